package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"trustguard/internal/observability"

	"github.com/joho/godotenv"
)

// Environment identifies the deployment tier the process runs in.
// It is resolved once at startup and drives every policy decision
// in the subsystem; nothing downgrades a Production requirement.
type Environment int

const (
	// EnvDevelopment is a local developer machine
	EnvDevelopment Environment = iota

	// EnvTesting is a CI or automated test environment
	EnvTesting

	// EnvStaging is a pre-production environment
	EnvStaging

	// EnvProduction is the production environment
	EnvProduction
)

// String returns the canonical lowercase name of the environment
func (e Environment) String() string {
	switch e {
	case EnvDevelopment:
		return "development"
	case EnvTesting:
		return "testing"
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "production"
	default:
		return "unknown"
	}
}

// IsProduction reports whether this is the production tier
func (e Environment) IsProduction() bool {
	return e == EnvProduction
}

// ParseEnvironment parses an environment name. Unrecognized values are an
// error rather than a silent default so a typo in APP_ENV cannot quietly
// run a process under development-tier policy.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "development", "dev", "local":
		return EnvDevelopment, nil
	case "testing", "test", "ci":
		return EnvTesting, nil
	case "staging", "stage":
		return EnvStaging, nil
	case "production", "prod":
		return EnvProduction, nil
	default:
		return EnvDevelopment, fmt.Errorf("unknown environment %q", s)
	}
}

// Config holds all configuration for the trust boundary subsystem
type Config struct {
	Environment Environment
	Debug       bool

	Secrets   SecretsConfig
	Tenant    TenantConfig
	CSRF      CSRFConfig
	Registry  RegistryConfig
	RateLimit RateLimitConfig
	Metrics   *observability.Config
	Logging   *observability.LoggingConfig
}

// SecretsConfig holds configuration for the secrets policy engine
type SecretsConfig struct {
	// VaultAddr is the base URL of the hardened backing store
	VaultAddr string

	// VaultToken authenticates against the hardened store
	VaultToken string

	// VaultMount is the KV mount path on the hardened store
	VaultMount string

	// RequestTimeout bounds every network call to the hardened store
	RequestTimeout time.Duration
}

// TenantConfig holds configuration for tenant boundary enforcement
type TenantConfig struct {
	// GatewayHeader is the header injected by the trusted API gateway
	GatewayHeader string

	// ContainerHeader is the header injected by the container platform
	ContainerHeader string

	// BaseDomain is stripped from the Host to obtain the subdomain candidate
	BaseDomain string

	// JWTSecret verifies auth-token tenant claims
	JWTSecret string

	// ExemptPaths never require a tenant context
	ExemptPaths []string
}

// CSRFConfig holds configuration for CSRF protection
type CSRFConfig struct {
	// MasterSecret is the process-scoped signing secret
	MasterSecret string

	// TokenLifetime bounds token validity
	TokenLifetime time.Duration

	// APIPrefixes classify requests as API-style
	APIPrefixes []string

	// SSRPrefixes classify requests as server-rendered
	SSRPrefixes []string

	// AllowedOrigins is the referer-check allow-list
	AllowedOrigins []string
}

// RegistryConfig holds tenant registry configuration
type RegistryConfig struct {
	DatabaseURL string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	Enabled           bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Attempt to load .env file - useful for local dev, ignored in production if vars are set
	_ = godotenv.Load()

	env, err := ParseEnvironment(getEnv("APP_ENV", "development"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Environment: env,
		Debug:       getEnvAsBool("DEBUG", !env.IsProduction()),
		Secrets: SecretsConfig{
			VaultAddr:      getEnv("VAULT_ADDR", ""),
			VaultToken:     getEnv("VAULT_TOKEN", ""),
			VaultMount:     getEnv("VAULT_MOUNT", "secret"),
			RequestTimeout: getEnvAsDuration("VAULT_TIMEOUT", 5*time.Second),
		},
		Tenant: TenantConfig{
			GatewayHeader:   getEnv("TENANT_GATEWAY_HEADER", "X-Tenant-ID"),
			ContainerHeader: getEnv("TENANT_CONTAINER_HEADER", "X-Container-Tenant"),
			BaseDomain:      getEnv("TENANT_BASE_DOMAIN", ""),
			JWTSecret:       getEnv("JWT_SECRET", ""),
			ExemptPaths:     getEnvAsSlice("TENANT_EXEMPT_PATHS", []string{"/health", "/metrics", "/auth/login", "/docs"}),
		},
		CSRF: CSRFConfig{
			MasterSecret:   getEnv("CSRF_SECRET", ""),
			TokenLifetime:  getEnvAsDuration("CSRF_TOKEN_LIFETIME", time.Hour),
			APIPrefixes:    getEnvAsSlice("CSRF_API_PREFIXES", []string{"/api/"}),
			SSRPrefixes:    getEnvAsSlice("CSRF_SSR_PREFIXES", []string{"/portal/"}),
			AllowedOrigins: getEnvAsSlice("CSRF_ALLOWED_ORIGINS", nil),
		},
		Registry: RegistryConfig{
			DatabaseURL: getEnv("DATABASE_URL", ""),
			RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:     getEnvAsInt("REDIS_DB", 0),
			RedisPass:   getEnv("REDIS_PASSWORD", ""),
			CacheTTL:    getEnvAsDuration("REGISTRY_CACHE_TTL", 30*time.Second),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat64("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", true),
		},
		Metrics: &observability.Config{
			Enabled:          getEnvAsBool("METRICS_ENABLED", true),
			MetricsNamespace: getEnv("METRICS_NAMESPACE", "trustguard"),
		},
		Logging: &observability.LoggingConfig{
			Level:      observability.LogLevel(getEnv("LOG_LEVEL", defaultLogLevel(env))),
			JSONFormat: getEnvAsBool("LOG_JSON", true),
			OutputPath: getEnv("LOG_FILE", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate rejects configurations that must not reach runtime. Production
// checks are deliberately strict: a missing secret there is a startup
// failure, not a logged warning.
func validate(cfg *Config) error {
	if cfg.CSRF.MasterSecret == "" && cfg.Environment.IsProduction() {
		return fmt.Errorf("CSRF_SECRET is required in %s", cfg.Environment)
	}

	if cfg.Tenant.JWTSecret == "" && cfg.Environment.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required in %s", cfg.Environment)
	}

	if cfg.CSRF.TokenLifetime <= 0 {
		return fmt.Errorf("CSRF token lifetime must be positive, got %s", cfg.CSRF.TokenLifetime)
	}

	return nil
}

func defaultLogLevel(env Environment) string {
	if env.IsProduction() {
		return "info"
	}
	return "debug"
}

// Helper functions to get environment variables with default values
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
