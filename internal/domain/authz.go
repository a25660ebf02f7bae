package domain

// Authorizer decides whether a principal may act on a tenant's resource.
// Implementations must be pure decision functions: no side effects, denial
// logging belongs to the audit layer.
type Authorizer interface {
	Require(principal Principal, tenantID string, allowedRoles ...Role) error
}
