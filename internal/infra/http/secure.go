package http

import (
	"time"

	"draftd/internal/domain"

	"github.com/gin-gonic/gin"
)

// Stage names, in the only order the runner ever executes them. The order is
// a security property: no validation work or validation detail is spent on a
// caller that has not cleared authentication and the tenant gate.
const (
	stageAuthenticate = "authenticate"
	stageTenantGate   = "tenant_gate"
	stageRateLimit    = "rate_limit"
	stageValidate     = "validate"
)

// Preset declares everything a guarded route needs. The composer turns it
// into one gin handler; routes never assemble middleware by hand.
type Preset struct {
	Name string

	// Resolver maps the resource named by ResourceParam to its owning
	// tenant. Nil means the operation is scoped to the caller's own tenant.
	Resolver      domain.TenantResolver
	ResourceParam string

	// AllowedRoles restricts the operation. Empty means any authenticated
	// role within the tenant.
	AllowedRoles []domain.Role

	RateLimitPreset string

	// NewBody / NewQuery allocate the binding targets for the validation
	// stage. Nil skips that binding.
	NewBody  func() any
	NewQuery func() any

	Action       domain.AuditAction
	ResourceType domain.AuditResourceType
}

// Request is the strongly typed guarded request handed to route handlers.
// Body and Query are the validated binding targets from the preset.
type Request struct {
	Principal domain.Principal
	TenantID  string
	Body      any
	Query     any
}

// HandlerFunc is a guarded route handler. Returning an error delegates the
// response to the central error mapping.
type HandlerFunc func(c *gin.Context, req *Request) error

type stage struct {
	name string
	run  func(c *gin.Context, req *Request) bool
}

// stagesFor builds the ordered stage list for a preset. Tests assert the
// sequence; changing it changes the security posture.
func (s *Server) stagesFor(preset Preset) []stage {
	return []stage{
		{name: stageAuthenticate, run: s.authenticateStage},
		{name: stageTenantGate, run: s.tenantGateStage(preset)},
		{name: stageRateLimit, run: s.rateLimitStage(preset)},
		{name: stageValidate, run: s.validateStage(preset)},
	}
}

// secure composes the guard chain for one route. Every stage either passes
// or writes the response and stops the chain; the handler runs only after
// all stages pass. The outcome is audited either way, off the request path.
func (s *Server) secure(preset Preset, handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		startedAt := time.Now()
		req := &Request{}

		for _, st := range s.stagesFor(preset) {
			if !st.run(c, req) {
				s.auditOutcome(c, preset, req, startedAt, false)
				return
			}
		}

		if err := handler(c, req); err != nil {
			s.handleError(c, err)
			s.auditOutcome(c, preset, req, startedAt, false)
			return
		}
		s.auditOutcome(c, preset, req, startedAt, true)
	}
}

func (s *Server) rateLimitStage(preset Preset) func(c *gin.Context, req *Request) bool {
	presetName := preset.RateLimitPreset
	if presetName == "" {
		presetName = domain.DefaultRateLimitPreset
	}
	return func(c *gin.Context, req *Request) bool {
		return s.enforceRateLimit(c, req.Principal, presetName)
	}
}

func (s *Server) auditOutcome(c *gin.Context, preset Preset, req *Request, startedAt time.Time, success bool) {
	if s.audit == nil || preset.Action == "" {
		return
	}
	status := c.Writer.Status()
	entry := domain.AuditEntry{
		UserID:       req.Principal.Subject,
		TenantID:     req.TenantID,
		Action:       preset.Action,
		ResourceType: preset.ResourceType,
		ResourceID:   c.Param(preset.ResourceParam),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		StatusCode:   status,
		DurationMS:   time.Since(startedAt).Milliseconds(),
		IPAddress:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Success:      success,
	}
	if entry.TenantID == "" {
		entry.TenantID = req.Principal.TenantID
	}
	if !success {
		entry.ErrorMessage = responseErrorCode(c, status)
		if status == 403 {
			entry.Action = domain.AuditActionAccessDenied
		}
	}
	s.audit.Record(entry)
}

// responseErrorCode reports the denial reason for the audit trail without
// rereading the response body.
func responseErrorCode(c *gin.Context, status int) string {
	if code, ok := c.Get(ctxKeyDenialCode); ok {
		if s, ok := code.(string); ok {
			return s
		}
	}
	switch status {
	case 401:
		return domain.CodeUnauthorized
	case 403:
		return domain.CodeForbidden
	case 404:
		return domain.CodeNotFound
	case 429:
		return domain.CodeRateLimited
	case 400:
		return domain.CodeValidation
	default:
		return domain.CodeInternal
	}
}
