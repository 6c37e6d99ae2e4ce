package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("pw1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "pw1" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("unexpected hash format: %q", hash)
	}

	if err := h.Verify("pw1", hash); err != nil {
		t.Errorf("Verify() with correct password error = %v", err)
	}
	if err := h.Verify("wrong", hash); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() with wrong password error = %v, want ErrPasswordMismatch", err)
	}
	if err := h.Verify("pw1", "not-a-hash"); err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() with invalid hash error = %v, want non-mismatch error", err)
	}
}

func TestPasswordHasher_DefaultCost(t *testing.T) {
	h := NewPasswordHasher(0)
	if h.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", h.cost, bcrypt.DefaultCost)
	}
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if a == b {
		t.Error("expected distinct hashes for the same password")
	}
}

func TestPasswordHasher_TooLong(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)
	if _, err := h.Hash(strings.Repeat("x", MaxPasswordBytes+1)); !errors.Is(err, ErrPasswordTooLong) {
		t.Errorf("Hash() error = %v, want ErrPasswordTooLong", err)
	}
	if _, err := h.Hash(strings.Repeat("x", MaxPasswordBytes)); err != nil {
		t.Errorf("Hash() at the limit error = %v", err)
	}
}
