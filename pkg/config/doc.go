// Package config loads application configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
//
// # Configuration Structure
//
// Server settings:
//
//	STOREFRONT_HOST="0.0.0.0"
//	STOREFRONT_PORT="8080"
//	STOREFRONT_HEALTH_PORT="9090"
//	STOREFRONT_CORS_ORIGINS="http://localhost:3000,https://shop.example"
//	STOREFRONT_TRUSTED_PROXIES="10.0.0.0/8"   # forwarding headers are honoured only from these peers
//
// Auth settings:
//
//	STOREFRONT_LOGIN_RATE_LIMIT="20"   # per client per window, 0 disables
//	STOREFRONT_BOOTSTRAP_ADMIN="root"
//	STOREFRONT_BOOTSTRAP_ADMIN_PASSWORD="..."
//
// Storage settings:
//
//	STOREFRONT_STORAGE_TYPE="postgres"  # memory, postgres
//	STOREFRONT_POSTGRES_URL="postgres://localhost/storefront"
//	STOREFRONT_REDIS_URL="redis://localhost:6379"  # enables the shared rate limiter
//
// Observability settings:
//
//	STOREFRONT_LOG_LEVEL="info"  # debug, info, warn, error
//	STOREFRONT_OTEL_ENABLED="true"
//	STOREFRONT_OTEL_ENDPOINT="otel-collector:4317"
//
// STOREFRONT_CONFIG_FILE names a YAML file whose keys mirror the struct
// tags on Config. Environment variables override it.
//
// # Related Packages
//
//   - pkg/storage: Uses storage configuration
//   - pkg/observability: Uses observability configuration
package config
