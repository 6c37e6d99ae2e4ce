package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/contextkeys"
	"github.com/platinummonkey/storefront/pkg/observability"
)

const bearerPrefix = "Bearer "

// Authentication outcome labels
const (
	OutcomeNone      = "none"
	OutcomeMalformed = "malformed"
	OutcomeSignature = "signature"
	OutcomeExpired   = "expired"
	OutcomeOK        = "ok"
)

// AuthMiddleware resolves a bearer token into an Identity on the request
// context. It never rejects a request: a missing or bad token simply leaves
// the request anonymous and the route policy decides what that means.
type AuthMiddleware struct {
	verifier auth.TokenVerifier
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates a new authentication middleware. metrics may be nil.
func NewAuthMiddleware(verifier auth.TokenVerifier, logger *observability.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler wraps an HTTP handler with token resolution
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
		if !ok {
			m.record(OutcomeNone)
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.verifier.Verify(token)
		if err != nil {
			outcome := outcomeFor(err)
			m.record(outcome)
			m.logger.WithError(err).WithField("outcome", outcome).Debug("Bearer token rejected")
			next.ServeHTTP(w, r)
			return
		}

		m.record(OutcomeOK)
		ctx := contextkeys.WithIdentity(r.Context(), identity)
		ctx = contextkeys.WithUserID(ctx, identity.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) record(outcome string) {
	if m.metrics != nil {
		m.metrics.AuthnOutcomesTotal.WithLabelValues(outcome).Inc()
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return OutcomeExpired
	case errors.Is(err, auth.ErrSignatureMismatch):
		return OutcomeSignature
	default:
		return OutcomeMalformed
	}
}

// GetIdentity returns the identity resolved for the request, or nil when anonymous
func GetIdentity(r *http.Request) *auth.Identity {
	return contextkeys.GetIdentity(r.Context())
}
