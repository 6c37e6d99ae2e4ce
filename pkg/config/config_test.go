package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/platinummonkey/storefront/pkg/observability"
	"github.com/platinummonkey/storefront/pkg/storage"
)

// TestGetEnv tests the getEnv helper function
func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "custom")

	if got := getEnv("TEST_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %v, want custom", got)
	}
	if got := getEnv("TEST_VAR_NOT_SET", "default"); got != "default" {
		t.Errorf("getEnv() = %v, want default", got)
	}
}

// TestGetEnvBool tests the getEnvBool helper function
func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"true", "true", false, true},
		{"TRUE", "TRUE", false, true},
		{"one", "1", false, true},
		{"false", "false", true, false},
		{"garbage", "yes please", true, false},
		{"unset", "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("TEST_BOOL", tt.envValue)
			}
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetEnvDuration tests the getEnvDuration helper function
func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvDuration() = %v, want 90s", got)
	}

	t.Setenv("TEST_DURATION", "soon")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != time.Second {
		t.Errorf("getEnvDuration() with invalid value = %v, want default", got)
	}
}

// TestGetEnvList tests comma-separated parsing
func TestGetEnvList(t *testing.T) {
	t.Setenv("TEST_LIST", " http://a.example , ,http://b.example")
	got := getEnvList("TEST_LIST", nil)
	if len(got) != 2 || got[0] != "http://a.example" || got[1] != "http://b.example" {
		t.Errorf("getEnvList() = %v", got)
	}

	def := []string{"x"}
	if got := getEnvList("TEST_LIST_UNSET", def); len(got) != 1 || got[0] != "x" {
		t.Errorf("getEnvList() default = %v", got)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.HealthPort != "9090" {
		t.Errorf("unexpected ports %s/%s", cfg.Server.Port, cfg.Server.HealthPort)
	}
	if cfg.Storage.Type != storage.TypeMemory {
		t.Errorf("Storage.Type = %s, want memory", cfg.Storage.Type)
	}
	if cfg.Observability.Level() != observability.InfoLevel {
		t.Errorf("Level() = %v, want INFO", cfg.Observability.Level())
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("STOREFRONT_PORT", "8000")
	t.Setenv("STOREFRONT_STORAGE_TYPE", "postgres")
	t.Setenv("STOREFRONT_POSTGRES_URL", "postgres://db/storefront")
	t.Setenv("STOREFRONT_LOG_LEVEL", "debug")
	t.Setenv("STOREFRONT_CORS_ORIGINS", "https://shop.example")
	t.Setenv("STOREFRONT_AUDIT_LOG_DIR", "/tmp/storefront-audit")
	t.Setenv("STOREFRONT_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "8000" {
		t.Errorf("Port = %s", cfg.Server.Port)
	}
	if cfg.Storage.PostgresURL != "postgres://db/storefront" {
		t.Errorf("PostgresURL = %s", cfg.Storage.PostgresURL)
	}
	if cfg.Observability.Level() != observability.DebugLevel {
		t.Errorf("Level() = %v", cfg.Observability.Level())
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://shop.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Observability.AuditLogDir != "/tmp/storefront-audit" {
		t.Errorf("AuditLogDir = %s", cfg.Observability.AuditLogDir)
	}
	if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "192.168.1.1" {
		t.Errorf("TrustedProxies = %v", cfg.Server.TrustedProxies)
	}
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	content := `
server:
  port: "7000"
  read_timeout: 5s
auth:
  bootstrap_admin: root
  bootstrap_admin_password: changeme
  login_rate_limit: 5
storage:
  type: memory
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STOREFRONT_CONFIG_FILE", path)
	t.Setenv("STOREFRONT_LOGIN_RATE_LIMIT", "9")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "7000" {
		t.Errorf("Port = %s, want 7000 from file", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.HealthPort != "9090" {
		t.Errorf("HealthPort = %s, want default kept", cfg.Server.HealthPort)
	}
	if cfg.Auth.BootstrapAdmin != "root" {
		t.Errorf("BootstrapAdmin = %s", cfg.Auth.BootstrapAdmin)
	}
	if cfg.Auth.LoginRateLimit != 9 {
		t.Errorf("LoginRateLimit = %d, want env to win", cfg.Auth.LoginRateLimit)
	}
}

func TestLoadConfig_BadFile(t *testing.T) {
	t.Setenv("STOREFRONT_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"same ports", func(c *Config) { c.Server.HealthPort = c.Server.Port }, true},
		{"rate limit without window", func(c *Config) { c.Auth.LoginRateWindow = 0 }, true},
		{"rate limit disabled", func(c *Config) { c.Auth.LoginRateLimit = 0; c.Auth.LoginRateWindow = 0 }, false},
		{"bootstrap without password", func(c *Config) { c.Auth.BootstrapAdmin = "root" }, true},
		{"postgres without url", func(c *Config) { c.Storage.Type = storage.TypePostgres }, true},
		{"unknown storage", func(c *Config) { c.Storage.Type = "filesystem" }, true},
		{"trusted proxy cidr", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "::1"} }, false},
		{"trusted proxy garbage", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.internal"} }, true},
		{"otel without endpoint", func(c *Config) {
			c.Observability.OTelEnabled = true
			c.Observability.OTelEndpoint = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
