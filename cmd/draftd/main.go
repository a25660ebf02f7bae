package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"draftd/internal/config"
	"draftd/internal/domain"
	"draftd/internal/infra/auditmem"
	"draftd/internal/infra/auth/opa"
	"draftd/internal/infra/auth/rbac"
	"draftd/internal/infra/auth/token"
	"draftd/internal/infra/db"
	httpinfra "draftd/internal/infra/http"
	"draftd/internal/infra/ratelimit"
	"draftd/internal/infra/vaultclient"
	"draftd/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "draftd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	secret, err := signingSecret(cfg)
	if err != nil {
		return err
	}

	gdb, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	projects := db.NewProjectRepository(gdb)
	officeActions := db.NewOfficeActionRepository(gdb)
	tenants := db.NewTenantRepository(gdb)

	var auditStore domain.AuditStore
	if cfg.AuditBackend == "memory" {
		auditStore = auditmem.New()
		logger.Warn("audit backend is in-memory, entries will not survive restart")
	} else {
		auditStore = db.NewAuditLogRepository(gdb)
	}

	limiter, err := newLimiter(cfg)
	if err != nil {
		return err
	}

	authorizer, err := newAuthorizer(cfg)
	if err != nil {
		return err
	}

	authenticator, err := token.NewAuthenticator(token.Config{
		Secret: secret,
		Issuer: cfg.AuthDomain,
	})
	if err != nil {
		return err
	}

	recorder, err := usecase.NewAuditRecorder(auditStore, logger, usecase.AuditRecorderConfig{
		BufferSize: cfg.AuditBufferSize,
		Workers:    cfg.AuditWorkers,
	})
	if err != nil {
		return err
	}

	server := httpinfra.NewServer(httpinfra.Config{
		Environment:         cfg.Environment,
		AdminAPIKey:         cfg.AdminAPIKey,
		RateLimitFailClosed: cfg.RateLimitFailClosed,
	}, httpinfra.Deps{
		Logger:               logger,
		Authenticator:        authenticator,
		Authorizer:           authorizer,
		RateLimiter:          limiter,
		Audit:                recorder,
		AuditLogs:            auditStore,
		Projects:             projects,
		OfficeActions:        officeActions,
		Tenants:              tenants,
		ProjectResolver:      &usecase.ProjectTenantResolver{Projects: projects},
		OfficeActionResolver: &usecase.OfficeActionTenantResolver{OfficeActions: officeActions},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("draftd listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Error("audit recorder drain", zap.Error(err))
	}
	return nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// signingSecret prefers Vault when configured and falls back to the
// JWT_SECRET environment value.
func signingSecret(cfg config.Config) (string, error) {
	if cfg.VaultSecretPath != "" {
		client := vaultclient.New(cfg.VaultAddr, cfg.VaultToken)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return client.SigningSecret(ctx, cfg.VaultSecretPath)
	}
	if cfg.JWTSecret == "" {
		return "", errors.New("no JWT secret: set JWT_SECRET or VAULT_SECRET_PATH")
	}
	return cfg.JWTSecret, nil
}

func newLimiter(cfg config.Config) (domain.RateLimiter, error) {
	switch cfg.RateLimitBackend {
	case "redis":
		return ratelimit.NewRedisLimiter(ratelimit.RedisLimiterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "memory", "":
		return ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{}), nil
	default:
		return nil, fmt.Errorf("unknown rate limit backend %q", cfg.RateLimitBackend)
	}
}

func newAuthorizer(cfg config.Config) (domain.Authorizer, error) {
	switch cfg.AuthzMode {
	case "opa":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cfg.OPAPolicyPath != "" {
			return opa.NewEngineFromPath(ctx, cfg.OPAPolicyPath)
		}
		return opa.NewEngine(ctx)
	case "static", "":
		return rbac.NewAuthorizer(), nil
	default:
		return nil, fmt.Errorf("unknown authz mode %q", cfg.AuthzMode)
	}
}
