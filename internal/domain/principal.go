package domain

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes a claim value to a known role. Unknown values map to
// RoleUser so a malformed token can never grant elevated access.
func ParseRole(value string) Role {
	switch Role(value) {
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Principal is the authenticated identity attached to a request by the
// authentication stage. It is immutable for the request lifetime.
type Principal struct {
	Subject  string
	Email    string
	Role     Role
	TenantID string
}

func (p Principal) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
