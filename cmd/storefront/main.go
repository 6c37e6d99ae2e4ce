package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/storefront/pkg/accounts"
	"github.com/platinummonkey/storefront/pkg/api"
	"github.com/platinummonkey/storefront/pkg/audit"
	"github.com/platinummonkey/storefront/pkg/auth"
	"github.com/platinummonkey/storefront/pkg/config"
	"github.com/platinummonkey/storefront/pkg/middleware"
	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/storage"
	"github.com/platinummonkey/storefront/pkg/storage/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "YAML config file (overrides STOREFRONT_CONFIG_FILE)")
	flag.Parse()

	if *configFile != "" {
		os.Setenv("STOREFRONT_CONFIG_FILE", *configFile)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout)

	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
		SampleRatio:    cfg.Observability.OTelSampleRatio,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	shutdown.Register("otel", func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
	}

	// Storage
	var (
		store   accounts.Directory
		db      *sql.DB
		backend = cfg.Storage.Type
	)
	switch cfg.Storage.Type {
	case storage.TypePostgres:
		db, err = postgres.Connect(ctx, postgres.ConnectionConfigFrom(cfg.Storage))
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		shutdown.Register("database", func(context.Context) error { return db.Close() })

		if err := postgres.RunMigrations(ctx, db, logger); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		store = postgres.NewAccountStore(db)
	default:
		logger.Warn("Using in-memory account storage; accounts are lost on restart")
		store = storage.NewMemoryDirectory()
	}
	if metrics != nil {
		store = accounts.NewInstrumentedDirectory(store, backend, metrics)
	}

	// Login throttling
	var (
		redisClient *redis.Client
		limiter     middleware.Limiter
	)
	if cfg.Auth.LoginRateLimit > 0 {
		limitCfg := middleware.DefaultRateLimitConfig()
		limitCfg.RequestsPerWindow = cfg.Auth.LoginRateLimit
		limitCfg.WindowDuration = cfg.Auth.LoginRateWindow
		if cfg.Storage.RedisURL != "" {
			redisClient, err = postgres.NewRedisClient(ctx, cfg.Storage)
			if err != nil {
				log.Fatalf("Failed to connect to redis: %v", err)
			}
			shutdown.Register("redis", func(context.Context) error { return redisClient.Close() })
			limiter = middleware.NewDistributedRateLimiter(redisClient, limitCfg, "")
		} else {
			limiter = middleware.NewRateLimiter(limitCfg)
		}
	}

	clientIP, err := middleware.NewClientIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		log.Fatalf("Invalid trusted proxies: %v", err)
	}

	// Audit trail
	sinks := []audit.Logger{audit.NewLogrusLogger(logger)}
	if cfg.Observability.AuditLogDir != "" {
		fileCfg := audit.DefaultFileLoggerConfig()
		fileCfg.BasePath = cfg.Observability.AuditLogDir
		fileLogger, err := audit.NewFileLogger(fileCfg)
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		sinks = append(sinks, fileLogger.WithLogger(logger))
	}
	trail := audit.NewMultiLogger(sinks...)
	shutdown.Register("audit", func(context.Context) error { return trail.Close() })

	codec, err := auth.NewTokenCodec()
	if err != nil {
		log.Fatalf("Failed to create token codec: %v", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	service := accounts.NewService(store, hasher, codec, trail, logger, metrics)
	if _, err := service.EnsureBootstrapAdmin(ctx, cfg.Auth.BootstrapAdmin, cfg.Auth.BootstrapAdminPassword); err != nil {
		log.Fatalf("Failed to bootstrap administrator: %v", err)
	}

	if metrics != nil {
		reporter := accounts.NewGaugeReporter(store, db, metrics, logger)
		if err := reporter.Start(cfg.Observability.GaugeSchedule); err != nil {
			log.Fatalf("Failed to schedule account gauges: %v", err)
		}
		shutdown.Register("gauges", reporter.Stop)
	}

	server := api.NewServer(api.ServerOptions{
		Accounts:     service,
		Verifier:     codec,
		Limiter:      limiter,
		ClientIP:     clientIP,
		Logger:       logger,
		Metrics:      metrics,
		CORSOrigins:  cfg.Server.CORSOrigins,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Tracing:      cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Probes and metrics on a separate port
	var deps []observability.Dependency
	if db != nil {
		deps = append(deps, observability.DatabaseDependency(db))
	}
	if redisClient != nil {
		deps = append(deps, observability.RedisDependency(redisClient))
	}
	healthMux := http.NewServeMux()
	observability.RegisterHealthRoutes(healthMux, observability.NewHealthChecker(cfg.Observability.OTelServiceVersion, deps...))
	if metrics != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	// Registered last so the listeners stop before the stores they use
	shutdown.Register("health-server", healthServer.Shutdown)
	shutdown.Register("api-server", apiServer.Shutdown)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Infof("Starting storefront API on %s", apiServer.Addr)
		return serve(apiServer)
	})
	eg.Go(func() error {
		logger.Infof("Starting health server on %s", healthServer.Addr)
		return serve(healthServer)
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("Shutting down gracefully...")
		return shutdown.Shutdown(context.Background())
	})

	if err := eg.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Println("Storefront stopped")
}

// serve treats a graceful shutdown as a clean exit
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
