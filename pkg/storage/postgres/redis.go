package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/storefront/pkg/storage"
)

// Limiter calls sit on the login path, so every Redis wait is short.
const (
	redisDialTimeout = 5 * time.Second
	redisIOTimeout   = 3 * time.Second
	redisPoolTimeout = 4 * time.Second
	redisPingTimeout = 5 * time.Second
)

// RedisOptions parses config.RedisURL and applies the explicit overrides
// (password, db, retries, pool size) on top of it.
func RedisOptions(config storage.Config) (*redis.Options, error) {
	opts, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	if config.RedisPassword != "" {
		opts.Password = config.RedisPassword
	}
	if config.RedisDB > 0 {
		opts.DB = config.RedisDB
	}
	if config.RedisMaxRetries > 0 {
		opts.MaxRetries = config.RedisMaxRetries
	}
	if config.RedisPoolSize > 0 {
		opts.PoolSize = config.RedisPoolSize
	}

	opts.DialTimeout = redisDialTimeout
	opts.ReadTimeout = redisIOTimeout
	opts.WriteTimeout = redisIOTimeout
	opts.PoolTimeout = redisPoolTimeout
	return opts, nil
}

// NewRedisClient connects to the rate limit store and verifies it with a ping
func NewRedisClient(ctx context.Context, config storage.Config) (*redis.Client, error) {
	opts, err := RedisOptions(config)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}
