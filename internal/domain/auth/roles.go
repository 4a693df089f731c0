package auth

import "strings"

// Role is the closed set of dashboard roles a session can carry.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

var Roles = []Role{RoleAdmin, RoleEmployee}

// ParseRole normalizes a raw role claim. Anything outside Roles is rejected.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleEmployee:
		return RoleEmployee, true
	default:
		return "", false
	}
}

func (r Role) String() string {
	return string(r)
}

func (r Role) In(allowed []Role) bool {
	for _, candidate := range allowed {
		if candidate == r {
			return true
		}
	}
	return false
}
