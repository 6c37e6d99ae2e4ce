package auth

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTokenTTL is how long an issued token stays valid
	DefaultTokenTTL = 24 * time.Hour
	// SigningKeyLength is the size of the generated HS512 key (512 bits)
	SigningKeyLength = 64
	// RolesClaim is the JWT claim holding the role label(s)
	RolesClaim = "roles"
)

// TokenIssuer issues signed identity tokens
type TokenIssuer interface {
	Issue(username, role string) (string, error)
}

// TokenVerifier verifies a token and resolves the identity it encodes
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// TokenCodec issues and verifies HS512-signed JWTs.
//
// The signing key is generated once per codec, lives only in memory and is never
// rotated: restarting the process invalidates every previously issued token.
// A codec is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// CodecOption configures a TokenCodec
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for issuing and expiry checks
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// WithSigningKey uses a caller-supplied key instead of generating one
func WithSigningKey(key []byte) CodecOption {
	return func(c *TokenCodec) {
		c.key = append([]byte(nil), key...)
	}
}

// NewTokenCodec creates a codec with a freshly generated signing key
func NewTokenCodec(opts ...CodecOption) (*TokenCodec, error) {
	c := &TokenCodec{
		ttl: DefaultTokenTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.key == nil {
		key := make([]byte, SigningKeyLength)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate signing key: %w", err)
		}
		c.key = key
	}

	return c, nil
}

// TTL returns the lifetime of issued tokens
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue creates a signed token for username carrying a single role label.
// Format: header.claims.signature with claims {sub, roles, iat, exp}.
//
// iat and exp are NumericDates in whole seconds, truncated from the clock.
// exp - iat is exactly the TTL, but a token issued at a fractional second
// expires up to one second before issuance plus TTL in wall time.
func (c *TokenCodec) Issue(username, role string) (string, error) {
	now := c.now()
	claims := &tokenClaims{
		Roles: roleClaim{labels: []string{role}, decoded: true},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the encoded identity.
// Errors wrap ErrMalformedToken, ErrSignatureMismatch or ErrExpired.
func (c *TokenCodec) Verify(token string) (*Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyTokenError(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}

	return NewIdentity(claims.Subject, claims.Roles.Labels()...), nil
}

func (c *TokenCodec) keyFunc(*jwt.Token) (interface{}, error) {
	return c.key, nil
}

// classifyTokenError maps jwt parser errors onto the verification taxonomy
func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}

type tokenClaims struct {
	Roles roleClaim `json:"roles"`
	jwt.RegisteredClaims
}

// roleClaim decodes the "roles" claim, which may be a single label or a list of labels.
// Any other shape decodes to the ROLE_USER default instead of failing verification.
type roleClaim struct {
	labels  []string
	decoded bool
}

// Labels returns the decoded role labels, falling back to ROLE_USER
func (rc roleClaim) Labels() []string {
	if !rc.decoded {
		return []string{RoleUser}
	}
	return rc.labels
}

func (rc roleClaim) MarshalJSON() ([]byte, error) {
	if len(rc.labels) == 1 {
		return json.Marshal(rc.labels[0])
	}
	if rc.labels == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(rc.labels)
}

func (rc *roleClaim) UnmarshalJSON(data []byte) error {
	rc.labels, rc.decoded = nil, false
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			rc.labels, rc.decoded = []string{single}, true
		}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		rc.labels, rc.decoded = list, true
	}
	return nil
}
