package rbac

import (
	"errors"

	"draftd/internal/domain"
)

// AuthzError carries a machine code for the denial reason. The HTTP layer
// renders every denial as a generic 403; the code feeds the audit trail.
type AuthzError struct {
	Code    string
	Message string
}

func (e *AuthzError) Error() string {
	return e.Code + ": " + e.Message
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authzErr *AuthzError
	if errors.As(err, &authzErr) {
		return authzErr, true
	}
	return nil, false
}

// Authorizer is the static tenant/role gate. Tenant isolation is absolute:
// no role, including ADMIN, crosses a tenant boundary.
type Authorizer struct{}

func NewAuthorizer() *Authorizer {
	return &Authorizer{}
}

func (a *Authorizer) Require(principal domain.Principal, tenantID string, allowedRoles ...domain.Role) error {
	if principal.Subject == "" {
		return &AuthzError{Code: domain.CodeUnauthorized, Message: "no authenticated principal"}
	}
	if tenantID != "" && principal.TenantID != tenantID {
		return &AuthzError{Code: domain.CodeTenantMismatch, Message: "principal tenant does not match resource tenant"}
	}
	if len(allowedRoles) > 0 && !principal.HasRole(allowedRoles...) {
		return &AuthzError{Code: domain.CodeMissingRole, Message: "role not permitted for this operation"}
	}
	return nil
}

var _ domain.Authorizer = (*Authorizer)(nil)
