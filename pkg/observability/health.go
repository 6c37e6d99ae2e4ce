package observability

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// readinessTimeout bounds one /health/ready evaluation across all dependencies
const readinessTimeout = 5 * time.Second

// Dependency is one named readiness probe. A failing critical dependency
// makes the service unhealthy; any other failure only degrades it.
type Dependency struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

type degradedError struct{ reason string }

func (e *degradedError) Error() string { return e.reason }

// Degraded reports a dependency that answers but is impaired
func Degraded(reason string) error {
	return &degradedError{reason: reason}
}

// DatabaseDependency probes the account database with a ping and a trivial
// query, and reports a saturated pool as degraded.
func DatabaseDependency(db *sql.DB) Dependency {
	return Dependency{
		Name:     "database",
		Critical: true,
		Check: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			var one int
			if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
				return errors.New("query failed: " + err.Error())
			}
			if stats := db.Stats(); stats.MaxOpenConnections > 0 && stats.OpenConnections >= stats.MaxOpenConnections {
				return Degraded("connection pool exhausted")
			}
			return nil
		},
	}
}

// RedisDependency probes the rate limit store. Non-critical: the login
// limiter fails open while Redis is away.
func RedisDependency(client *redis.Client) Dependency {
	return Dependency{
		Name: "redis",
		Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// HealthChecker reports liveness and dependency readiness
type HealthChecker struct {
	version      string
	dependencies []Dependency
	now          func() time.Time
}

// NewHealthChecker creates a checker over deps, evaluated in order
func NewHealthChecker(version string, deps ...Dependency) *HealthChecker {
	return &HealthChecker{
		version:      version,
		dependencies: deps,
		now:          time.Now,
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus represents the health of a single dependency
type DependencyStatus struct {
	Status    string    `json:"status"`
	Critical  bool      `json:"critical"`
	Message   string    `json:"message,omitempty"`
	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// Liveness always answers 200 while the process is serving
func (h *HealthChecker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeHealth(w, http.StatusOK, HealthStatus{
		Status:    StatusHealthy,
		Timestamp: h.now(),
		Version:   h.version,
	})
}

// Readiness answers 503 only when a critical dependency is unhealthy
func (h *HealthChecker) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := h.Check(ctx)

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	writeHealth(w, code, status)
}

// Check evaluates every dependency and folds the results into one status
func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	overall := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: h.now(),
		Version:   h.version,
	}
	if len(h.dependencies) == 0 {
		return overall
	}

	overall.Dependencies = make(map[string]DependencyStatus, len(h.dependencies))
	for _, dep := range h.dependencies {
		ds := h.probe(ctx, dep)
		overall.Dependencies[dep.Name] = ds
		overall.Status = worse(overall.Status, effectiveStatus(dep, ds.Status))
	}
	return overall
}

func (h *HealthChecker) probe(ctx context.Context, dep Dependency) DependencyStatus {
	start := h.now()
	err := dep.Check(ctx)
	ds := DependencyStatus{
		Status:    StatusHealthy,
		Critical:  dep.Critical,
		LatencyMS: time.Since(start).Milliseconds(),
		Timestamp: start,
	}

	var degraded *degradedError
	switch {
	case err == nil:
	case errors.As(err, &degraded):
		ds.Status = StatusDegraded
		ds.Message = degraded.reason
	default:
		ds.Status = StatusUnhealthy
		ds.Message = err.Error()
	}
	return ds
}

// effectiveStatus caps a non-critical failure at degraded
func effectiveStatus(dep Dependency, status string) string {
	if status == StatusUnhealthy && !dep.Critical {
		return StatusDegraded
	}
	return status
}

func worse(a, b string) string {
	rank := map[string]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

func writeHealth(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// RegisterHealthRoutes registers health check endpoints
func RegisterHealthRoutes(mux *http.ServeMux, checker *HealthChecker) {
	mux.HandleFunc("/health", checker.Readiness)
	mux.HandleFunc("/health/live", checker.Liveness)
	mux.HandleFunc("/health/ready", checker.Readiness)
}
