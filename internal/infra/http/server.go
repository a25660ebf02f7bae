package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"draftd/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator verifies a bearer token and yields the request principal.
type Authenticator interface {
	Authenticate(ctx context.Context, bearerToken string) (domain.Principal, error)
}

// AuditRecorder is the fire-and-forget sink for guard outcomes.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}

type ProjectStore interface {
	GetByID(ctx context.Context, id string) (domain.Project, error)
	Delete(ctx context.Context, id string) error
}

type OfficeActionStore interface {
	GetByID(ctx context.Context, id string) (domain.OfficeAction, error)
	ListByProject(ctx context.Context, projectID string, limit, offset int) ([]domain.OfficeAction, error)
	Create(ctx context.Context, action domain.OfficeAction) (domain.OfficeAction, error)
}

type TenantStore interface {
	Create(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error)
}

type Config struct {
	Environment         string
	AdminAPIKey         string
	RateLimitFailClosed bool
}

type Deps struct {
	Logger        *zap.Logger
	Authenticator Authenticator
	Authorizer    domain.Authorizer
	RateLimiter   domain.RateLimiter
	Audit         AuditRecorder
	AuditLogs     domain.AuditStore

	Projects      ProjectStore
	OfficeActions OfficeActionStore
	Tenants       TenantStore

	ProjectResolver      domain.TenantResolver
	OfficeActionResolver domain.TenantResolver
}

type Server struct {
	engine *gin.Engine
	logger *zap.Logger

	environment         string
	adminAPIKey         string
	rateLimitFailClosed bool

	authenticator Authenticator
	authorizer    domain.Authorizer
	rateLimiter   domain.RateLimiter
	audit         AuditRecorder
	auditLogs     domain.AuditStore

	projects      ProjectStore
	officeActions OfficeActionStore
	tenants       TenantStore

	projectResolver      domain.TenantResolver
	officeActionResolver domain.TenantResolver
}

func NewServer(cfg Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		logger:               logger,
		environment:          cfg.Environment,
		adminAPIKey:          cfg.AdminAPIKey,
		rateLimitFailClosed:  cfg.RateLimitFailClosed,
		authenticator:        deps.Authenticator,
		authorizer:           deps.Authorizer,
		rateLimiter:          deps.RateLimiter,
		audit:                deps.Audit,
		auditLogs:            deps.AuditLogs,
		projects:             deps.Projects,
		officeActions:        deps.OfficeActions,
		tenants:              deps.Tenants,
		projectResolver:      deps.ProjectResolver,
		officeActionResolver: deps.OfficeActionResolver,
	}
	s.engine = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	engine := gin.New()
	engine.Use(s.requestLogger())
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic in handler",
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered))
		writeErrorCode(c, http.StatusInternalServerError, domain.CodeInternal, publicMessage(domain.CodeInternal))
	}))

	engine.HandleMethodNotAllowed = true
	engine.NoMethod(s.methodNotAllowed)
	engine.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, domain.CodeNotFound, publicMessage(domain.CodeNotFound))
	})

	engine.GET("/healthz", s.handleHealthz)

	v1 := engine.Group("/v1")
	v1.POST("/tenants", s.requireAdminKey, s.handleCreateTenant)

	v1.GET("/projects/:id", s.secure(Preset{
		Name:            "projects:read",
		Resolver:        s.projectResolver,
		ResourceParam:   "id",
		RateLimitPreset: "read",
		Action:          domain.AuditActionProjectRead,
		ResourceType:    domain.AuditResourceProject,
	}, s.handleGetProject))

	v1.DELETE("/projects/:id", s.secure(Preset{
		Name:            "projects:delete",
		Resolver:        s.projectResolver,
		ResourceParam:   "id",
		AllowedRoles:    []domain.Role{domain.RoleAdmin},
		RateLimitPreset: "api",
		Action:          domain.AuditActionProjectDeleted,
		ResourceType:    domain.AuditResourceProject,
	}, s.handleDeleteProject))

	v1.GET("/projects/:id/office-actions", s.secure(Preset{
		Name:            "office_actions:list",
		Resolver:        s.projectResolver,
		ResourceParam:   "id",
		RateLimitPreset: "read",
		NewQuery:        func() any { return &listOfficeActionsQuery{} },
		Action:          domain.AuditActionOfficeActionListed,
		ResourceType:    domain.AuditResourceOfficeAction,
	}, s.handleListOfficeActions))

	v1.POST("/projects/:id/office-actions", s.secure(Preset{
		Name:            "office_actions:file",
		Resolver:        s.projectResolver,
		ResourceParam:   "id",
		RateLimitPreset: "upload",
		NewBody:         func() any { return &createOfficeActionRequest{} },
		Action:          domain.AuditActionOfficeActionFiled,
		ResourceType:    domain.AuditResourceOfficeAction,
	}, s.handleCreateOfficeAction))

	v1.GET("/office-actions/:id", s.secure(Preset{
		Name:            "office_actions:read",
		Resolver:        s.officeActionResolver,
		ResourceParam:   "id",
		RateLimitPreset: "read",
		Action:          domain.AuditActionOfficeActionListed,
		ResourceType:    domain.AuditResourceOfficeAction,
	}, s.handleGetOfficeAction))

	v1.GET("/admin/audit-logs", s.secure(Preset{
		Name:            "audit:read",
		AllowedRoles:    []domain.Role{domain.RoleAdmin},
		RateLimitPreset: "admin",
		NewQuery:        func() any { return &auditLogQuery{} },
		Action:          domain.AuditActionAuditLogRead,
		ResourceType:    domain.AuditResourceAuditLog,
	}, s.handleReadAuditLogs))

	// Exercises the limiter end to end; registered only for local runs so
	// production never exposes it.
	if s.environment == "development" {
		v1.GET("/debug/rate-limit-test", s.secure(Preset{
			Name:            "debug:rate_limit",
			RateLimitPreset: "debug",
		}, func(c *gin.Context, _ *Request) error {
			writeSuccess(c, http.StatusOK, gin.H{"ok": true})
			return nil
		}))
	}

	return engine
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(c *gin.Context) {
	writeSuccess(c, http.StatusOK, gin.H{"status": "ok"})
}

// requireAdminKey guards the seeding endpoints with a static operator key.
// These are not tenant operations; they sit outside the JWT gate.
func (s *Server) requireAdminKey(c *gin.Context) {
	if s.adminAPIKey == "" {
		writeErrorCode(c, http.StatusNotFound, domain.CodeNotFound, publicMessage(domain.CodeNotFound))
		return
	}
	if c.GetHeader("X-Admin-API-Key") != s.adminAPIKey {
		writeErrorCode(c, http.StatusUnauthorized, domain.CodeUnauthorized, publicMessage(domain.CodeUnauthorized))
		return
	}
	if !s.enforceRateLimit(c, domain.Principal{}, "admin") {
		return
	}
	c.Next()
}

// methodNotAllowed answers 405 with an Allow header listing the methods
// actually registered for the matched path.
func (s *Server) methodNotAllowed(c *gin.Context) {
	allowed := s.allowedMethods(c.Request.URL.Path)
	if len(allowed) > 0 {
		c.Header("Allow", strings.Join(allowed, ", "))
	}
	writeErrorCode(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

func (s *Server) allowedMethods(path string) []string {
	var methods []string
	for _, route := range s.engine.Routes() {
		if routePatternMatches(route.Path, path) {
			methods = append(methods, route.Method)
		}
	}
	return methods
}

func routePatternMatches(pattern, path string) bool {
	patternParts := strings.Split(strings.Trim(pattern, "/"), "/")
	pathParts := strings.Split(strings.Trim(path, "/"), "/")
	if len(patternParts) != len(pathParts) {
		return false
	}
	for i, part := range patternParts {
		if strings.HasPrefix(part, ":") || strings.HasPrefix(part, "*") {
			continue
		}
		if part != pathParts[i] {
			return false
		}
	}
	return true
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
