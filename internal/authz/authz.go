// Package authz is the single authorization model for the service. Every
// entry point (socket handlers and REST handlers alike) asks this package;
// no handler re-derives role logic on its own.
package authz

import (
	"faderbank/internal/models"
)

// Operation is something a member can attempt against a profile.
type Operation int

const (
	// OpViewProfile covers reading the profile, its channels and members.
	OpViewProfile Operation = iota
	// OpOperate covers fader, mute and solo changes and taking responsibility.
	OpOperate
	// OpEditChannels covers channel strip create/update/delete/reorder.
	OpEditChannels
	// OpManageMembers covers role changes, removals and invitations.
	OpManageMembers
	// OpOwner covers profile deletion, ownership transfer and slug changes.
	OpOwner
)

func (o Operation) String() string {
	switch o {
	case OpViewProfile:
		return "view_profile"
	case OpOperate:
		return "operate"
	case OpEditChannels:
		return "edit_channels"
	case OpManageMembers:
		return "manage_members"
	case OpOwner:
		return "owner"
	default:
		return "unknown"
	}
}

// MinLevel returns the minimum role level required for the operation.
func (o Operation) MinLevel() int {
	switch o {
	case OpViewProfile:
		return models.RoleGuest.Level()
	case OpOperate:
		return models.RoleOperator.Level()
	case OpEditChannels:
		return models.RoleTechnician.Level()
	case OpManageMembers:
		return models.RoleAdmin.Level()
	case OpOwner:
		return models.RoleOwner.Level()
	default:
		return models.RoleOwner.Level() + 1
	}
}

// Allow is the pure threshold check: role level >= the operation's minimum.
func Allow(role models.Role, op Operation) bool {
	return role.Level() >= op.MinLevel()
}

// CanChangeRole applies the member-management rules beyond the plain
// threshold: the owner is untouchable through this path, admins cannot alter
// other admins, and admins cannot promote anyone to admin.
func CanChangeRole(actor, target, newRole models.Role, targetIsOwner bool) bool {
	if !Allow(actor, OpManageMembers) {
		return false
	}
	if targetIsOwner {
		return false
	}
	if !newRole.IsAssignable() {
		return false
	}
	if actor == models.RoleAdmin && target == models.RoleAdmin {
		return false
	}
	if actor == models.RoleAdmin && newRole == models.RoleAdmin {
		return false
	}
	return true
}

// CanRemoveMember mirrors CanChangeRole for removals.
func CanRemoveMember(actor, target models.Role, targetIsOwner bool) bool {
	if !Allow(actor, OpManageMembers) {
		return false
	}
	if targetIsOwner {
		return false
	}
	if actor == models.RoleAdmin && target == models.RoleAdmin {
		return false
	}
	return true
}

// CanInviteRole reports whether the actor may mint an invitation granting the
// given role. Admins cannot create admin-level invitations.
func CanInviteRole(actor models.Role, invite models.Role) bool {
	if !Allow(actor, OpManageMembers) {
		return false
	}
	if !invite.IsAssignable() {
		return false
	}
	if actor == models.RoleAdmin && invite == models.RoleAdmin {
		return false
	}
	return true
}
