package rbac

import (
	"net/http"

	"github.com/platinummonkey/storefront/pkg/contextkeys"
	"github.com/platinummonkey/storefront/pkg/httputil"
	"github.com/platinummonkey/storefront/pkg/observability"
)

// PolicyMiddleware enforces a Policy before requests reach their handlers.
// It expects the authentication middleware to have run first.
type PolicyMiddleware struct {
	policy  *Policy
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewPolicyMiddleware creates a new policy middleware
func NewPolicyMiddleware(policy *Policy, logger *observability.Logger, metrics *observability.Metrics) *PolicyMiddleware {
	return &PolicyMiddleware{
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Handler wraps an HTTP handler with route authorization
func (pm *PolicyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := contextkeys.GetIdentity(r.Context())
		decision := pm.policy.Decide(identity, r.Method, r.URL.Path)

		if pm.metrics != nil {
			pm.metrics.AuthzDecisionsTotal.WithLabelValues(string(decision.Required), decision.Result()).Inc()
		}

		if decision.Allowed {
			next.ServeHTTP(w, r)
			return
		}

		fields := map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"required": string(decision.Required),
		}
		if identity != nil {
			fields["username"] = identity.Username
		}
		pm.logger.WithFields(fields).Debug("Request denied by route policy")

		if decision.Status == http.StatusUnauthorized {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		httputil.WriteForbidden(w, "insufficient permissions")
	})
}
