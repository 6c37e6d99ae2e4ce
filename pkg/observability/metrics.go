package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Security metrics
	AuthnOutcomesTotal  *prometheus.CounterVec
	AuthzDecisionsTotal *prometheus.CounterVec
	TokensIssuedTotal   *prometheus.CounterVec
	LoginAttemptsTotal  *prometheus.CounterVec
	RateLimitedTotal    *prometheus.CounterVec
	PromotionsTotal     *prometheus.CounterVec

	// Storage metrics
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsOpen prometheus.Gauge
	DBConnectionsIdle prometheus.Gauge

	// Business metrics
	AccountsTotal prometheus.Gauge
	AdminsTotal   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "route"},
		),

		AuthnOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_authn_outcomes_total",
				Help: "Bearer token resolution outcomes",
			},
			[]string{"outcome"},
		),
		AuthzDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_authz_decisions_total",
				Help: "Route authorization decisions",
			},
			[]string{"capability", "result"},
		),
		TokensIssuedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_tokens_issued_total",
				Help: "Total number of bearer tokens issued",
			},
			[]string{"role"},
		),
		LoginAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_login_attempts_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		RateLimitedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_rate_limited_total",
				Help: "Requests rejected by the credential endpoint rate limiter",
			},
			[]string{"route"},
		),
		PromotionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_promotions_total",
				Help: "Admin status changes by action and result",
			},
			[]string{"action", "result"},
		),

		StorageOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_storage_operations_total",
				Help: "Total number of account storage operations",
			},
			[]string{"operation", "backend", "status"},
		),
		StorageOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_storage_operation_duration_seconds",
				Help:    "Account storage operation duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "backend"},
		),

		DBConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),

		AccountsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_accounts_total",
				Help: "Total number of registered accounts",
			},
		),
		AdminsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "storefront_admins_total",
				Help: "Number of accounts with admin status",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.AuthnOutcomesTotal,
		m.AuthzDecisionsTotal,
		m.TokensIssuedTotal,
		m.LoginAttemptsTotal,
		m.RateLimitedTotal,
		m.PromotionsTotal,
		m.StorageOperationsTotal,
		m.StorageOperationDuration,
		m.DBConnectionsOpen,
		m.DBConnectionsIdle,
		m.AccountsTotal,
		m.AdminsTotal,
	)

	return m
}

// ObserveStorage records one storage call. Safe on a nil receiver.
func (m *Metrics) ObserveStorage(operation, backend string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StorageOperationsTotal.WithLabelValues(operation, backend, status).Inc()
	m.StorageOperationDuration.WithLabelValues(operation, backend).Observe(time.Since(start).Seconds())
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// routeLabel keeps label cardinality bounded by using the mux template
// (/auth/promote/{userId}) instead of the raw path.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
