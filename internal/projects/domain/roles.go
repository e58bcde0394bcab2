package domain

// Role is the closed set of membership roles. Roles are compared by set
// membership, never by rank.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// ParseRole accepts a role name; empty defaults to RoleMember.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return RoleMember, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", Validationf("unknown role %q", s)
	}
	return r, nil
}

// RoleSet is the explicit set of roles an operation accepts.
type RoleSet []Role

var (
	OwnerOnly        = RoleSet{RoleOwner}
	ManagementRoles  = RoleSet{RoleOwner, RoleAdmin}
	ContributorRoles = RoleSet{RoleOwner, RoleAdmin, RoleMember}
	AnyRole          = RoleSet{RoleOwner, RoleAdmin, RoleMember, RoleViewer}
)

func (s RoleSet) Contains(r Role) bool {
	for _, v := range s {
		if v == r {
			return true
		}
	}
	return false
}
