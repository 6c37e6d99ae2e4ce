package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/platinummonkey/storefront/pkg/httputil"
	"github.com/platinummonkey/storefront/pkg/observability"
)

// RateLimitConfig defines rate limiting configuration
type RateLimitConfig struct {
	// RequestsPerWindow is the max requests allowed in the time window
	RequestsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
	// MaxKeys bounds the number of tracked clients in memory
	MaxKeys int
}

// DefaultRateLimitConfig returns settings for the credential endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerWindow: 20,
		WindowDuration:    time.Minute,
		MaxKeys:           10000,
	}
}

// RateLimitResult describes the state of one key after a request was counted
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// Limiter counts requests per key in fixed windows
type Limiter interface {
	Take(ctx context.Context, key string) (RateLimitResult, error)
}

type window struct {
	count int
	start time.Time
}

// RateLimiter is an in-process fixed-window limiter. Idle keys age out of a
// bounded expirable LRU, so memory stays flat under many distinct clients.
type RateLimiter struct {
	config  RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	windows *lru.LRU[string, *window]
}

// NewRateLimiter creates a new in-memory rate limiter
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.MaxKeys <= 0 {
		config.MaxKeys = DefaultRateLimitConfig().MaxKeys
	}
	return &RateLimiter{
		config:  config,
		now:     time.Now,
		windows: lru.NewLRU[string, *window](config.MaxKeys, nil, config.WindowDuration),
	}
}

// Take counts one request for key
func (rl *RateLimiter) Take(_ context.Context, key string) (RateLimitResult, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows.Get(key)
	if !ok || now.Sub(w.start) >= rl.config.WindowDuration {
		w = &window{start: now}
		rl.windows.Add(key, w)
	}
	w.count++

	remaining := rl.config.RequestsPerWindow - w.count
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   w.count <= rl.config.RequestsPerWindow,
		Limit:     rl.config.RequestsPerWindow,
		Remaining: remaining,
		ResetIn:   rl.config.WindowDuration - now.Sub(w.start),
	}, nil
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	return rl.windows.Len()
}

// RateLimitMiddleware limits requests per client IP. Limiter errors fail
// open: the request is served and the error logged.
type RateLimitMiddleware struct {
	limiter  Limiter
	route    string
	clientIP *ClientIPResolver
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewRateLimitMiddleware creates a rate limit middleware; route labels metrics and log lines
func NewRateLimitMiddleware(limiter Limiter, route string, logger *observability.Logger, metrics *observability.Metrics) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		route:   route,
		logger:  logger,
		metrics: metrics,
	}
}

// WithClientIPResolver keys clients through resolver instead of the raw peer address
func (m *RateLimitMiddleware) WithClientIPResolver(resolver *ClientIPResolver) *RateLimitMiddleware {
	m.clientIP = resolver
	return m
}

// Handler wraps an HTTP handler with rate limiting
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.route + ":" + m.clientIP.ClientIP(r)

		result, err := m.limiter.Take(r.Context(), key)
		if err != nil {
			m.logger.WithError(err).WithField("route", m.route).Warn("Rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}

		setRateLimitHeaders(w, result)
		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.RateLimitedTotal.WithLabelValues(m.route).Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(result.ResetIn)))
			httputil.WriteTooManyRequests(w, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setRateLimitHeaders(w http.ResponseWriter, result RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(result.ResetIn).Unix(), 10))
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
