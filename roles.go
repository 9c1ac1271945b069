package auth

import "strings"

// Role is the coarse-grained access tag attached to a Principal. The set
// is closed; free-form role strings from storage go through ParseRole.
type Role string

const (
	// RoleAdmin can reach the administrative surface
	RoleAdmin Role = "ADMIN"
	// RoleIntervener is a project intervener
	RoleIntervener Role = "INTERVENER"
	// RoleUser is the default role assigned on registration
	RoleUser Role = "USER"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch Role(strings.ToUpper(string(r))) {
	case RoleAdmin, RoleIntervener, RoleUser:
		return true
	default:
		return false
	}
}

// Equals compares roles case-insensitively.
func (r Role) Equals(other Role) bool {
	return strings.EqualFold(string(r), string(other))
}

// AllRoles returns the closed role set.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleIntervener, RoleUser}
}

// ParseRole safely parses a string into a Role, case-insensitively.
func ParseRole(roleStr string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(roleStr)))
	return role, role.IsValid()
}

// Authorize is the access control gate consulted before every role-gated
// operation. The check is a case-insensitive exact match with no
// hierarchy: ADMIN does not implicitly act as INTERVENER. A nil or
// inactive principal is never authorized.
func Authorize(principal *Principal, required Role) bool {
	if principal == nil || !principal.Active() {
		return false
	}
	return principal.Role.Equals(required)
}

// AuthorizeRole is the claims-level variant of Authorize, used by the
// middleware before the principal has been loaded from the store.
func AuthorizeRole(have, required Role) bool {
	if !have.IsValid() {
		return false
	}
	return have.Equals(required)
}
