package model

// Role is the access level carried in a bearer token.
type Role string

const (
	RoleUser    Role = "user"
	RoleSupport Role = "support"
	RoleAdmin   Role = "admin"
)

// roleRank orders roles for RoleAtLeast comparisons.
var roleRank = map[Role]int{
	RoleUser:    1,
	RoleSupport: 2,
	RoleAdmin:   3,
}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	_, ok := roleRank[r]
	return ok
}

// RoleAtLeast reports whether role meets or exceeds the minimum.
// Unknown roles never satisfy any minimum.
func RoleAtLeast(role, minimum Role) bool {
	rr, ok := roleRank[role]
	if !ok {
		return false
	}
	mr, ok := roleRank[minimum]
	if !ok {
		return false
	}
	return rr >= mr
}
