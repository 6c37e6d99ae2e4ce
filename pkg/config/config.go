package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/storage"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       storage.Config      `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// Origins allowed to call the API with credentials
	CORSOrigins []string `yaml:"cors_origins"`

	// Proxies (IPs or CIDRs) whose X-Forwarded-For / X-Real-IP headers are believed
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// AuthConfig holds token, password and credential endpoint settings
type AuthConfig struct {
	BcryptCost int `yaml:"bcrypt_cost"`

	// Requests per window per client on /auth/login and /auth/register; 0 disables
	LoginRateLimit  int           `yaml:"login_rate_limit"`
	LoginRateWindow time.Duration `yaml:"login_rate_window"`

	// Seeded on startup when the username does not exist yet
	BootstrapAdmin         string `yaml:"bootstrap_admin"`
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	// Cron spec for refreshing account gauges
	GaugeSchedule string `yaml:"gauge_schedule"`

	// Directory for the rotating JSON audit trail; empty keeps audit events in the service log only
	AuditLogDir string `yaml:"audit_log_dir"`

	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"`
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Level converts the configured log level name
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    1 << 20,
			HealthPort:      "9090",
			CORSOrigins:     []string{"http://localhost:3000"},
		},
		Auth: AuthConfig{
			BcryptCost:      10,
			LoginRateLimit:  20,
			LoginRateWindow: time.Minute,
		},
		Storage: storage.DefaultConfig(),
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			GaugeSchedule:      "@every 1m",
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "storefront",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
		},
	}
}

// LoadConfig builds configuration from defaults, then the YAML file named by
// STOREFRONT_CONFIG_FILE (if any), then STOREFRONT_* environment variables.
func LoadConfig() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("STOREFRONT_CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyServerEnv(&cfg.Server)
	applyAuthEnv(&cfg.Auth)
	applyStorageEnv(&cfg.Storage)
	applyObservabilityEnv(&cfg.Observability)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the YAML file onto cfg; keys absent from the file keep their value
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyServerEnv(s *ServerConfig) {
	s.Host = getEnv("STOREFRONT_HOST", s.Host)
	s.Port = getEnv("STOREFRONT_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("STOREFRONT_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("STOREFRONT_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("STOREFRONT_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("STOREFRONT_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.MaxBodyBytes = getEnvInt64("STOREFRONT_MAX_BODY_BYTES", s.MaxBodyBytes)
	s.HealthPort = getEnv("STOREFRONT_HEALTH_PORT", s.HealthPort)
	s.CORSOrigins = getEnvList("STOREFRONT_CORS_ORIGINS", s.CORSOrigins)
	s.TrustedProxies = getEnvList("STOREFRONT_TRUSTED_PROXIES", s.TrustedProxies)
}

func applyAuthEnv(a *AuthConfig) {
	a.BcryptCost = getEnvInt("STOREFRONT_BCRYPT_COST", a.BcryptCost)
	a.LoginRateLimit = getEnvInt("STOREFRONT_LOGIN_RATE_LIMIT", a.LoginRateLimit)
	a.LoginRateWindow = getEnvDuration("STOREFRONT_LOGIN_RATE_WINDOW", a.LoginRateWindow)
	a.BootstrapAdmin = getEnv("STOREFRONT_BOOTSTRAP_ADMIN", a.BootstrapAdmin)
	a.BootstrapAdminPassword = getEnv("STOREFRONT_BOOTSTRAP_ADMIN_PASSWORD", a.BootstrapAdminPassword)
}

func applyStorageEnv(s *storage.Config) {
	s.Type = getEnv("STOREFRONT_STORAGE_TYPE", s.Type)
	s.PostgresURL = getEnv("STOREFRONT_POSTGRES_URL", s.PostgresURL)
	s.PostgresMaxConns = getEnvInt("STOREFRONT_POSTGRES_MAX_CONNS", s.PostgresMaxConns)
	s.PostgresMinConns = getEnvInt("STOREFRONT_POSTGRES_MIN_CONNS", s.PostgresMinConns)
	s.PostgresTimeout = getEnvDuration("STOREFRONT_POSTGRES_TIMEOUT", s.PostgresTimeout)
	s.RedisURL = getEnv("STOREFRONT_REDIS_URL", s.RedisURL)
	s.RedisPassword = getEnv("STOREFRONT_REDIS_PASSWORD", s.RedisPassword)
	s.RedisDB = getEnvInt("STOREFRONT_REDIS_DB", s.RedisDB)
	s.RedisPoolSize = getEnvInt("STOREFRONT_REDIS_POOL_SIZE", s.RedisPoolSize)
}

func applyObservabilityEnv(o *ObservabilityConfig) {
	o.LogLevel = getEnv("STOREFRONT_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("STOREFRONT_METRICS_ENABLED", o.MetricsEnabled)
	o.GaugeSchedule = getEnv("STOREFRONT_GAUGE_SCHEDULE", o.GaugeSchedule)
	o.AuditLogDir = getEnv("STOREFRONT_AUDIT_LOG_DIR", o.AuditLogDir)
	o.OTelEnabled = getEnvBool("STOREFRONT_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("STOREFRONT_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("STOREFRONT_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("STOREFRONT_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("STOREFRONT_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("STOREFRONT_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	for _, proxy := range c.Server.TrustedProxies {
		if !validProxy(proxy) {
			return fmt.Errorf("invalid trusted proxy: %q (must be an IP or CIDR)", proxy)
		}
	}

	if c.Auth.LoginRateLimit < 0 {
		return fmt.Errorf("login rate limit must not be negative")
	}
	if c.Auth.LoginRateLimit > 0 && c.Auth.LoginRateWindow <= 0 {
		return fmt.Errorf("login rate window must be positive when rate limiting is enabled")
	}
	if c.Auth.BootstrapAdmin != "" && c.Auth.BootstrapAdminPassword == "" {
		return fmt.Errorf("bootstrap admin password is required when a bootstrap admin is set")
	}

	switch c.Storage.Type {
	case storage.TypeMemory:
	case storage.TypePostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory or postgres)", c.Storage.Type)
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func validProxy(p string) bool {
	p = strings.TrimSpace(p)
	if strings.Contains(p, "/") {
		_, _, err := net.ParseCIDR(p)
		return err == nil
	}
	return net.ParseIP(p) != nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
