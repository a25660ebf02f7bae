package http

import (
	"fmt"
	"net/http"
	"strconv"

	"draftd/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// rateLimitKey scopes a bucket to the client identity and the preset so
// different route classes never share a counter. Unauthenticated callers
// (admin-key routes) are keyed by source IP.
func rateLimitKey(c *gin.Context, principal domain.Principal, presetName string) string {
	identity := principal.Subject
	if identity == "" {
		identity = "ip:" + c.ClientIP()
	}
	return fmt.Sprintf("tenant:%s:client:%s:preset:%s", principal.TenantID, identity, presetName)
}

// enforceRateLimit applies the named preset. Limiter outages fail open
// unless the server is configured fail-closed; abuse mitigation should not
// take the API down with it.
func (s *Server) enforceRateLimit(c *gin.Context, principal domain.Principal, presetName string) bool {
	if s.rateLimiter == nil {
		return true
	}
	preset := domain.PresetByName(presetName)
	key := rateLimitKey(c, principal, preset.Name)

	decision, err := s.rateLimiter.Allow(c.Request.Context(), key, preset.Requests, preset.Window)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", zap.String("preset", preset.Name), zap.Error(err))
		if s.rateLimitFailClosed {
			writeErrorCode(c, http.StatusTooManyRequests, domain.CodeRateLimited, "rate limiter unavailable")
			return false
		}
		return true
	}
	writeRateLimitHeaders(c, decision)
	if !decision.Allowed {
		writeErrorCode(c, http.StatusTooManyRequests, domain.CodeRateLimited, publicMessage(domain.CodeRateLimited))
		return false
	}
	return true
}

func writeRateLimitHeaders(c *gin.Context, decision domain.RateLimitDecision) {
	if decision.Limit > 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	}
	if decision.Remaining >= 0 {
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	}
	if !decision.ResetAt.IsZero() {
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	}
	if !decision.Allowed {
		retryAfter := int64(decision.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
	}
}
