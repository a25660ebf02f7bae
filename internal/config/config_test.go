package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DRAFTD_ENV", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/draftd_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Environment != EnvDevelopment {
		t.Fatalf("expected development, got %s", cfg.Environment)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.RateLimitBackend != "memory" {
		t.Fatalf("expected memory backend, got %s", cfg.RateLimitBackend)
	}
	if cfg.AuditBufferSize != 4096 || cfg.AuditWorkers != 2 {
		t.Fatalf("unexpected audit defaults: %d/%d", cfg.AuditBufferSize, cfg.AuditWorkers)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected shutdown timeout: %s", cfg.ShutdownTimeout)
	}
}

func TestLoad_DatabaseURLRequiredInAllEnvironments(t *testing.T) {
	// The relational stores need postgres even when the audit trail is
	// in-memory, so a dev run without a DSN must fail at load, not at boot.
	t.Setenv("DRAFTD_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("AUDIT_BACKEND", "memory")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoad_RedisBackendRequiresAddr(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/draftd_test")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for redis backend without addr")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr: %s", cfg.RedisAddr)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("DRAFTD_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://db/draftd")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("VAULT_SECRET_PATH", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for production without a token secret")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoad_MemoryAuditForbiddenInProduction(t *testing.T) {
	t.Setenv("DRAFTD_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://db/draftd")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("AUDIT_BACKEND", "memory")

	if _, err := Load(); err == nil {
		t.Fatal("expected memory audit backend to be rejected in production")
	}
}

func TestLoad_InvalidAuthzMode(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/draftd_test")
	t.Setenv("AUTHZ_MODE", "cel")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown authz mode")
	}
}
