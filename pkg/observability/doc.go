// Package observability provides structured logging, Prometheus metrics,
// health checks and OpenTelemetry tracing.
//
// # Structured Logging
//
// Logger wraps logrus with a JSON formatter:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("target_id", 7).Info("admin status changed")
//
// Request-scoped loggers travel on the context:
//
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).Warn("login rejected")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.AuthzDecisionsTotal.WithLabelValues("ADMIN", "forbidden").Inc()
//
// HTTP metrics are labelled by the gorilla/mux route template so
// /auth/promote/1 and /auth/promote/2 share a series.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version,
//		observability.DatabaseDependency(db),
//		observability.RedisDependency(redisClient),
//	)
//	observability.RegisterHealthRoutes(mux, checker)
//
// The database is critical (503 when down); Redis only degrades readiness.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/httputil: Request logging middleware
package observability
