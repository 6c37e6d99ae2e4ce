package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/storefront/pkg/accounts"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/httputil"
	"github.com/platinummonkey/storefront/pkg/middleware"
	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/rbac"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// ServerOptions wires the API server's collaborators
type ServerOptions struct {
	Accounts *accounts.Service
	Verifier auth.TokenVerifier

	// Policy defaults to rbac.NewDefaultPolicy()
	Policy *rbac.Policy

	// Limiter throttles /auth/login and /auth/register; nil disables it
	Limiter middleware.Limiter
	// ClientIP decides when forwarding headers are believed; nil keys on the peer
	ClientIP *middleware.ClientIPResolver

	Logger  *observability.Logger
	Metrics *observability.Metrics // optional

	CORSOrigins  []string
	MaxBodyBytes int64

	// Tracing wraps the handler with otelhttp server spans
	Tracing bool
}

// Server represents our API server
type Server struct {
	router       *mux.Router
	handler      http.Handler
	authHandlers *AuthHandlers
}

// NewServer creates a new API server.
//
// Every request, including ones that match no route, passes bearer token
// resolution and the route policy before any handler runs.
func NewServer(opts ServerOptions) *Server {
	if opts.Policy == nil {
		opts.Policy = rbac.NewDefaultPolicy()
	}

	s := &Server{
		router:       mux.NewRouter(),
		authHandlers: NewAuthHandlers(opts.Accounts, opts.Logger.Logrus()),
	}
	if opts.Limiter != nil {
		s.authHandlers.SetRateLimiter(opts.Limiter, opts.ClientIP, opts.Logger, opts.Metrics)
	}

	authn := middleware.NewAuthMiddleware(opts.Verifier, opts.Logger, opts.Metrics)
	authz := rbac.NewPolicyMiddleware(opts.Policy, opts.Logger, opts.Metrics)

	var guards []func(http.Handler) http.Handler
	if opts.Metrics != nil {
		guards = append(guards, observability.HTTPMetricsMiddleware(opts.Metrics))
	}
	guards = append(guards, authn.Handler, authz.Handler)

	// mux skips route middleware for unmatched requests, so the fallback
	// handlers get the same guards explicitly
	for _, g := range guards {
		s.router.Use(mux.MiddlewareFunc(g))
	}
	guard := httputil.Chain(guards...)
	s.router.NotFoundHandler = guard(http.HandlerFunc(notFound))
	s.router.MethodNotAllowedHandler = guard(http.HandlerFunc(methodNotAllowed))

	s.setupRoutes()

	outer := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(opts.Logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.CORSMiddleware(opts.CORSOrigins),
	}
	if opts.MaxBodyBytes > 0 {
		outer = append(outer, httputil.MaxBytesMiddleware(opts.MaxBodyBytes))
	}
	s.handler = httputil.Chain(outer...)(s.router)

	if opts.Tracing {
		s.handler = otelhttp.NewHandler(s.handler, "storefront-api")
	}
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.authHandlers.RegisterRoutes(s.router)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar. They sit behind
// the same token resolution and route policy as the built-in routes.
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteNotFoundError(w, "not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}
