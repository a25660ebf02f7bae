package http

import (
	"errors"
	"net/http"

	"draftd/internal/domain"
	"draftd/internal/infra/auth/rbac"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type errorEnvelope struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError is one entry of the structured validation detail, built from
// the validator library's native error shape.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ctxKeyDenialCode records the machine code of a denial on the gin context
// so the audit stage can report it without rereading the response body.
const ctxKeyDenialCode = "draftd.denial_code"

func writeSuccess(c *gin.Context, status int, data any) {
	c.JSON(status, successEnvelope{Success: true, Data: data})
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.Set(ctxKeyDenialCode, code)
	c.AbortWithStatusJSON(status, errorEnvelope{Error: code, Message: message})
}

func writeValidationError(c *gin.Context, fields []FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, errorEnvelope{
		Error:   domain.CodeValidation,
		Message: "request validation failed",
		Fields:  fields,
	})
}

var codeStatus = map[string]int{
	domain.CodeUnauthorized:   http.StatusUnauthorized,
	domain.CodeForbidden:      http.StatusForbidden,
	domain.CodeTenantMismatch: http.StatusForbidden,
	domain.CodeMissingRole:    http.StatusForbidden,
	domain.CodeNotFound:       http.StatusNotFound,
	domain.CodeValidation:     http.StatusBadRequest,
	domain.CodeRateLimited:    http.StatusTooManyRequests,
	domain.CodeInternal:       http.StatusInternalServerError,
}

func statusForCode(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// publicMessage strips detail from denial codes so responses never confirm
// resource existence or tenant boundaries.
func publicMessage(code string) string {
	switch statusForCode(code) {
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusTooManyRequests:
		return "rate limit exceeded"
	default:
		return "internal error"
	}
}

// handleError maps a handler error to a response. Typed errors carry their
// code; everything else is logged in full and rendered as a generic 500.
func (s *Server) handleError(c *gin.Context, err error) {
	if appErr, ok := domain.AsAppError(err); ok {
		status := statusForCode(appErr.Code)
		if status >= http.StatusInternalServerError {
			s.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
			writeErrorCode(c, status, appErr.Code, publicMessage(appErr.Code))
			return
		}
		writeErrorCode(c, status, appErr.Code, publicMessage(appErr.Code))
		return
	}
	if authzErr, ok := rbac.IsAuthzError(err); ok {
		status := statusForCode(authzErr.Code)
		writeErrorCode(c, status, authzErr.Code, publicMessage(authzErr.Code))
		return
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrorCode(c, http.StatusNotFound, domain.CodeNotFound, publicMessage(domain.CodeNotFound))
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorCode(c, http.StatusUnauthorized, domain.CodeUnauthorized, publicMessage(domain.CodeUnauthorized))
	case errors.Is(err, domain.ErrForbidden):
		writeErrorCode(c, http.StatusForbidden, domain.CodeForbidden, publicMessage(domain.CodeForbidden))
	default:
		s.logger.Error("unexpected error", zap.String("path", c.FullPath()), zap.Error(err))
		writeErrorCode(c, http.StatusInternalServerError, domain.CodeInternal, publicMessage(domain.CodeInternal))
	}
}
