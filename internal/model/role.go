package model

// Role is the closed set of roles an identity can hold.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// IsValid checks if the role is one of the predefined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}

// ParseRole parses a string into a Role, reporting whether it is known.
func ParseRole(s string) (Role, bool) {
	role := Role(s)
	return role, role.IsValid()
}
