package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultConfig tests the DefaultConfig function
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, TypeMemory, cfg.Type)
	assert.Empty(t, cfg.PostgresURL)
	assert.Equal(t, 20, cfg.PostgresMaxConns)
	assert.Equal(t, 2, cfg.PostgresMinConns)
	assert.Equal(t, 10*time.Second, cfg.PostgresTimeout)
	assert.Equal(t, 30*time.Minute, cfg.PostgresMaxLifetime)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 3, cfg.RedisMaxRetries)
	assert.Equal(t, 10, cfg.RedisPoolSize)
}

func TestMemoryDirectory_ImplementsAccountStore(t *testing.T) {
	var store AccountStore = NewMemoryDirectory()
	assert.NotNil(t, store)
}

func TestStorageErrors(t *testing.T) {
	assert.EqualError(t, ErrAccountNotFound, "account not found")
	assert.EqualError(t, ErrUsernameTaken, "username already taken")
	assert.NotErrorIs(t, ErrAccountNotFound, ErrUsernameTaken)
}
