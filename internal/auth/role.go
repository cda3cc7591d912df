// Package auth authenticates API requests with HS256 bearer tokens carrying a role claim.
package auth

import "strings"

// Role is a user role. Roles are ordered: admin > supervisor > operator.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
	RoleAdmin      Role = "admin"
)

func (r Role) rank() int {
	switch r {
	case RoleOperator:
		return 1
	case RoleSupervisor:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Allows reports whether r is at least required.
func (r Role) Allows(required Role) bool {
	return r.rank() > 0 && r.rank() >= required.rank()
}

// NormalizeRole parses a role name case-insensitively.
func NormalizeRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if role.rank() == 0 {
		return "", false
	}
	return role, true
}
