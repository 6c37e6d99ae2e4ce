package storage

import (
	"context"
	"errors"
	"time"

	"github.com/platinummonkey/storefront/pkg/auth"
)

var (
	// ErrAccountNotFound is returned when no account matches the lookup
	ErrAccountNotFound = errors.New("account not found")

	// ErrUsernameTaken is returned when inserting an account whose username already exists
	ErrUsernameTaken = errors.New("username already taken")
)

// AccountReader provides account lookups
type AccountReader interface {
	FindByUsername(ctx context.Context, username string) (*auth.Account, error)
	FindByID(ctx context.Context, id int64) (*auth.Account, error)
	// FindAll returns every account ordered by id ascending
	FindAll(ctx context.Context) ([]*auth.Account, error)
}

// AccountWriter persists accounts. Save inserts when ID is zero (assigning
// the new ID on the passed account) and otherwise updates the row in place.
type AccountWriter interface {
	Save(ctx context.Context, account *auth.Account) error
}

// AccountStore is the full persistence surface for accounts
type AccountStore interface {
	AccountReader
	AccountWriter
}

// Storage backend types
const (
	TypeMemory   = "memory"
	TypePostgres = "postgres"
)

// Config for storage backend
type Config struct {
	Type string `yaml:"type"` // "memory" or "postgres"

	// PostgreSQL config
	PostgresURL         string        `yaml:"postgres_url"`
	PostgresMaxConns    int           `yaml:"postgres_max_conns"`
	PostgresMinConns    int           `yaml:"postgres_min_conns"`
	PostgresTimeout     time.Duration `yaml:"postgres_timeout"`
	PostgresMaxLifetime time.Duration `yaml:"postgres_max_lifetime"`

	// Redis config, used by the distributed rate limiter
	RedisURL        string `yaml:"redis_url"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`
	RedisMaxRetries int    `yaml:"redis_max_retries"`
	RedisPoolSize   int    `yaml:"redis_pool_size"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() Config {
	return Config{
		Type:                TypeMemory,
		PostgresMaxConns:    20,
		PostgresMinConns:    2,
		PostgresTimeout:     10 * time.Second,
		PostgresMaxLifetime: 30 * time.Minute,
		RedisDB:             0,
		RedisMaxRetries:     3,
		RedisPoolSize:       10,
	}
}
