package auth

import "strings"

type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleSociety Role = "society"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether role is one of the four recognized roles.
func ValidRole(role string) bool {
	switch Role(strings.ToLower(strings.TrimSpace(role))) {
	case RoleStudent, RoleFaculty, RoleSociety, RoleAdmin:
		return true
	default:
		return false
	}
}

func NormalizeRole(role string) Role {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case string(RoleAdmin):
		return RoleAdmin
	case string(RoleFaculty):
		return RoleFaculty
	case string(RoleSociety):
		return RoleSociety
	default:
		return RoleStudent
	}
}

func HasRole(role string, allowed ...Role) bool {
	if len(allowed) == 0 {
		return false
	}
	current := NormalizeRole(role)
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role string) bool {
	return HasRole(role, RoleAdmin)
}
