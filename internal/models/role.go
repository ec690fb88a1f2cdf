package models

// Role is a member's role within a profile. Roles are totally ordered; Level
// gives the precedence used by every permission check.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
	RoleOperator   Role = "operator"
	RoleGuest      Role = "guest"

	// RoleNone is the zero value for non-members.
	RoleNone Role = ""
)

// Level returns the role's rank, 0 for non-members.
func (r Role) Level() int {
	switch r {
	case RoleOwner:
		return 5
	case RoleAdmin:
		return 4
	case RoleTechnician:
		return 3
	case RoleOperator:
		return 2
	case RoleGuest:
		return 1
	default:
		return 0
	}
}

// IsValid reports whether r names a real role.
func (r Role) IsValid() bool {
	return r.Level() > 0
}

// IsAssignable reports whether r can be granted through member management or
// invitations. Owner is excluded: only ownership transfer assigns it.
func (r Role) IsAssignable() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleOperator, RoleGuest:
		return true
	default:
		return false
	}
}
