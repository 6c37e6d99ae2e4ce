package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// takeScript increments the window counter and starts its expiry on the
// first hit only, so later requests do not push the reset forward.
var takeScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

// DistributedRateLimiter shares fixed windows across instances through Redis
type DistributedRateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	prefix string
}

// NewDistributedRateLimiter creates a new Redis-backed rate limiter
func NewDistributedRateLimiter(redisClient *redis.Client, config RateLimitConfig, prefix string) *DistributedRateLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &DistributedRateLimiter{
		redis:  redisClient,
		config: config,
		prefix: prefix,
	}
}

// Take counts one request for key
func (rl *DistributedRateLimiter) Take(ctx context.Context, key string) (RateLimitResult, error) {
	redisKey := rl.prefix + ":" + key

	res, err := takeScript.Run(ctx, rl.redis, []string{redisKey}, rl.config.WindowDuration.Milliseconds()).Result()
	if err != nil {
		return RateLimitResult{}, fmt.Errorf("redis error: %w", err)
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return RateLimitResult{}, fmt.Errorf("unexpected rate limit script reply: %v", res)
	}
	count, _ := values[0].(int64)
	pttl, _ := values[1].(int64)

	resetIn := time.Duration(pttl) * time.Millisecond
	if pttl < 0 {
		resetIn = rl.config.WindowDuration
	}

	remaining := rl.config.RequestsPerWindow - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:   count <= int64(rl.config.RequestsPerWindow),
		Limit:     rl.config.RequestsPerWindow,
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

// Reset clears the window for a key
func (rl *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, rl.prefix+":"+key).Err()
}
