package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Config is the full environment-driven configuration for the draftd server.
type Config struct {
	Environment string
	HTTPAddr    string

	DatabaseURL string

	AuthDomain string
	JWTSecret  string
	// AdminAPIKey guards the tenant seeding endpoint. Empty disables it.
	AdminAPIKey string
	// AuthzMode selects the role/tenant authorizer: "static" or "opa".
	AuthzMode     string
	OPAPolicyPath string

	RateLimitBackend    string // "memory" or "redis"
	RateLimitFailClosed bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	AuditBackend    string // "postgres" or "memory"
	AuditBufferSize int
	AuditWorkers    int

	VaultAddr       string
	VaultToken      string
	VaultSecretPath string

	LogLevel string

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment. A .env file is honored in
// development for local runs; real deployments set variables directly.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		Environment:         getEnv("DRAFTD_ENV", EnvDevelopment),
		HTTPAddr:            getEnv("DRAFTD_HTTP_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		AuthDomain:          getEnv("AUTH_DOMAIN", "draftd.local"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AdminAPIKey:         os.Getenv("ADMIN_API_KEY"),
		AuthzMode:           getEnv("AUTHZ_MODE", "static"),
		OPAPolicyPath:       os.Getenv("OPA_POLICY_PATH"),
		RateLimitBackend:    getEnv("RATE_LIMIT_BACKEND", "memory"),
		RateLimitFailClosed: getEnvBool("RATE_LIMIT_FAIL_CLOSED", false),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),
		AuditBackend:        getEnv("AUDIT_BACKEND", "postgres"),
		AuditBufferSize:     getEnvInt("AUDIT_BUFFER_SIZE", 4096),
		AuditWorkers:        getEnvInt("AUDIT_WORKERS", 2),
		VaultAddr:           os.Getenv("VAULT_ADDR"),
		VaultToken:          os.Getenv("VAULT_TOKEN"),
		VaultSecretPath:     os.Getenv("VAULT_SECRET_PATH"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Environment {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return fmt.Errorf("invalid DRAFTD_ENV %q", c.Environment)
	}
	// The project and tenant stores are always postgres-backed, so the DSN
	// is required even when the audit trail runs in memory.
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.RateLimitBackend {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return fmt.Errorf("RATE_LIMIT_BACKEND=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("invalid RATE_LIMIT_BACKEND %q", c.RateLimitBackend)
	}
	switch c.AuthzMode {
	case "static", "opa":
	default:
		return fmt.Errorf("invalid AUTHZ_MODE %q", c.AuthzMode)
	}
	switch c.AuditBackend {
	case "postgres":
	case "memory":
		if c.Environment == EnvProduction {
			return fmt.Errorf("AUDIT_BACKEND=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("invalid AUDIT_BACKEND %q", c.AuditBackend)
	}
	if c.Environment == EnvProduction && c.JWTSecret == "" && c.VaultSecretPath == "" {
		return fmt.Errorf("JWT_SECRET or VAULT_SECRET_PATH is required in production")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvDevelopment
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
