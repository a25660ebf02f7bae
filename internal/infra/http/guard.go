package http

import (
	"net/http"
	"strings"

	"draftd/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// authenticateStage turns the bearer token into a Principal on the guarded
// request. Missing or invalid credentials end the chain with a 401.
func (s *Server) authenticateStage(c *gin.Context, req *Request) bool {
	token := bearerToken(c)
	if token == "" {
		writeErrorCode(c, http.StatusUnauthorized, domain.CodeUnauthorized, publicMessage(domain.CodeUnauthorized))
		return false
	}
	principal, err := s.authenticator.Authenticate(c.Request.Context(), token)
	if err != nil {
		writeErrorCode(c, http.StatusUnauthorized, domain.CodeUnauthorized, publicMessage(domain.CodeUnauthorized))
		return false
	}
	req.Principal = principal
	return true
}

// tenantGateStage resolves the target resource's tenant and runs the
// authorizer. An unresolvable resource is a 404, never a 403 that would
// confirm it exists in another tenant.
func (s *Server) tenantGateStage(preset Preset) func(c *gin.Context, req *Request) bool {
	return func(c *gin.Context, req *Request) bool {
		tenantID := req.Principal.TenantID
		if preset.Resolver != nil {
			resolved, err := preset.Resolver.ResolveTenant(c.Request.Context(), c.Param(preset.ResourceParam))
			if err != nil {
				s.logger.Error("tenant resolution failed",
					zap.String("preset", preset.Name),
					zap.String("resource_id", c.Param(preset.ResourceParam)),
					zap.Error(err))
				writeErrorCode(c, http.StatusInternalServerError, domain.CodeInternal, publicMessage(domain.CodeInternal))
				return false
			}
			if resolved == "" {
				writeErrorCode(c, http.StatusNotFound, domain.CodeNotFound, publicMessage(domain.CodeNotFound))
				return false
			}
			tenantID = resolved
		}

		if err := s.authorizer.Require(req.Principal, tenantID, preset.AllowedRoles...); err != nil {
			s.handleError(c, err)
			return false
		}
		req.TenantID = tenantID
		return true
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
