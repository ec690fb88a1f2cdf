package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faderbank/internal/models"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"
)

// memberFixture: owner 1, admins 2 and 3, technician 4, operator 5.
func memberFixture(t *testing.T) (*fixture, *models.Profile) {
	t.Helper()
	f := newFixture(t)
	for id, name := range map[uint]string{1: "Ava", 2: "Ben", 3: "Cleo", 4: "Dan", 5: "Eve"} {
		f.seedUser(t, id, name)
	}

	profile, err := f.profiles.CreateProfile(context.Background(), "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	f.seedMember(t, profile.ID, 2, models.RoleAdmin)
	f.seedMember(t, profile.ID, 3, models.RoleAdmin)
	f.seedMember(t, profile.ID, 4, models.RoleTechnician)
	f.seedMember(t, profile.ID, 5, models.RoleOperator)
	f.bc.reset()
	return f, profile
}

func TestAdminCanChangeNonAdminRoles(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	require.NoError(t, f.members.UpdateRole(ctx, 2, profile.ID, 5, models.RoleTechnician))

	role, err := f.members.GetRole(ctx, profile.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTechnician, role)
	assert.Len(t, f.bc.named(rooms.EventMemberUpdated), 1)
}

func TestAdminCannotTouchOtherAdmins(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	err := f.members.UpdateRole(ctx, 2, profile.ID, 3, models.RoleOperator)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	err = f.members.Remove(ctx, 2, profile.ID, 3)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestAdminCannotPromoteToAdmin(t *testing.T) {
	f, profile := memberFixture(t)

	err := f.members.UpdateRole(context.Background(), 2, profile.ID, 4, models.RoleAdmin)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestOwnerMayManageAdmins(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	require.NoError(t, f.members.UpdateRole(ctx, 1, profile.ID, 3, models.RoleTechnician))
	require.NoError(t, f.members.UpdateRole(ctx, 1, profile.ID, 4, models.RoleAdmin))
	require.NoError(t, f.members.Remove(ctx, 1, profile.ID, 2))
}

func TestOwnerIsUntouchable(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	err := f.members.UpdateRole(ctx, 2, profile.ID, 1, models.RoleGuest)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	err = f.members.Remove(ctx, 2, profile.ID, 1)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestTechnicianCannotManageMembers(t *testing.T) {
	f, profile := memberFixture(t)

	err := f.members.UpdateRole(context.Background(), 4, profile.ID, 5, models.RoleGuest)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestUpdateRoleUnknownMember(t *testing.T) {
	f, profile := memberFixture(t)

	err := f.members.UpdateRole(context.Background(), 2, profile.ID, 999, models.RoleGuest)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestRemoveMember(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	require.NoError(t, f.members.Remove(ctx, 2, profile.ID, 5))

	role, err := f.members.GetRole(ctx, profile.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)
	assert.Len(t, f.bc.named(rooms.EventMemberRemoved), 1)
}

func TestRemovedHolderLosesResponsibility(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	_, _, err := f.resp.Take(ctx, profile.ID, 5, "Eve", false)
	require.NoError(t, err)

	require.NoError(t, f.members.Remove(ctx, 2, profile.ID, 5))

	state, err := f.resp.State(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, state.UserID)
}

func TestDemotedHolderKeepsResponsibility(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()

	_, _, err := f.resp.Take(ctx, profile.ID, 5, "Eve", false)
	require.NoError(t, err)

	// Dropping below operator does not revoke a held token; the threshold
	// applies at take time only
	require.NoError(t, f.members.UpdateRole(ctx, 2, profile.ID, 5, models.RoleGuest))

	state, err := f.resp.State(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, state.UserID)
	assert.Equal(t, uint(5), *state.UserID)
}

func TestListMembersOrderedAndGated(t *testing.T) {
	f, profile := memberFixture(t)
	ctx := context.Background()
	f.seedUser(t, 9, "Zed")

	members, err := f.members.List(ctx, 5, profile.ID)
	require.NoError(t, err)
	require.Len(t, members, 5)
	assert.Equal(t, models.RoleOwner, members[0].Role)

	_, err = f.members.List(ctx, 9, profile.ID)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}
