// Package middleware provides HTTP middleware for bearer token resolution
// and rate limiting of the credential endpoints.
//
// # Middleware Components
//
// AuthMiddleware: bearer token resolution
//
//	authn := middleware.NewAuthMiddleware(codec, logger, metrics)
//	router.Use(authn.Handler)
//	// on success the request carries an *auth.Identity; otherwise nothing
//
// The middleware never writes a response. Rejecting anonymous callers is
// the job of rbac.PolicyMiddleware, which runs after it.
//
// RateLimitMiddleware: fixed-window limiting keyed by client IP
//
//	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())
//	login := middleware.NewRateLimitMiddleware(limiter, "login", logger, metrics)
//
// DistributedRateLimiter implements the same Limiter interface on Redis so
// several replicas share one budget per client.
//
// # Related Packages
//
//   - pkg/auth: Token verification
//   - pkg/rbac: Route authorization
package middleware
