package authz

// Role is the application-level role stored on a user's profile.
// Role is a trust boundary: only the backend mutates it, clients
// read and react.
type Role string

const (
	RoleClient   Role = "client"
	RoleStylist  Role = "stylist"
	RoleColorist Role = "colorist"
	RoleBarber   Role = "barber"
	RoleAdmin    Role = "admin"
)

// DefaultRole is assigned when a user has no profile yet.
const DefaultRole = RoleClient

// Valid reports whether r is a known role value.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStylist, RoleColorist, RoleBarber, RoleAdmin:
		return true
	}
	return false
}

// IsStylist reports whether r is any of the stylist variants.
// The variants share the stylist dashboard and schedule tooling.
func (r Role) IsStylist() bool {
	switch r {
	case RoleStylist, RoleColorist, RoleBarber:
		return true
	}
	return false
}

// ParseRole validates an externally supplied role string.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// RoleSet is a set of roles accepted by a protected route.
type RoleSet map[Role]struct{}

// NewRoleSet builds a RoleSet from the given roles.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// StylistRoles returns a set accepting every stylist variant.
func StylistRoles() RoleSet {
	return NewRoleSet(RoleStylist, RoleColorist, RoleBarber)
}

// Has reports whether r is in the set.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Empty reports whether the set places no role restriction.
func (s RoleSet) Empty() bool {
	return len(s) == 0
}
