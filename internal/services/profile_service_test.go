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

func TestCreateProfileSetsUpOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")

	profile, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	assert.Equal(t, "Main Hall", profile.Name)
	assert.Equal(t, "main-hall", profile.Slug)
	assert.Equal(t, uint(1), profile.OwnerID)

	role, err := f.members.GetRole(ctx, profile.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, role)

	// The control token exists from the start, unclaimed
	state, err := f.resp.State(ctx, profile.ID)
	require.NoError(t, err)
	assert.Nil(t, state.UserID)
}

func TestCreateProfileRejectsBadSlug(t *testing.T) {
	f := newFixture(t)
	f.seedUser(t, 1, "Ava")

	_, err := f.profiles.CreateProfile(context.Background(), "Main Hall", "Main Hall!", 1)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestCreateProfileSlugConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")
	f.seedUser(t, 2, "Ben")

	_, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)

	_, err = f.profiles.CreateProfile(ctx, "Other Hall", "main-hall", 2)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestSuggestSlug(t *testing.T) {
	assert.Equal(t, "main-hall-foh", SuggestSlug("Main Hall FOH"))
	assert.Equal(t, "studio-b", SuggestSlug("  Studio   B  "))
}

func TestUpdateProfileRolePolicy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")
	f.seedUser(t, 2, "Ben")
	f.seedUser(t, 3, "Cleo")

	profile, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	f.seedMember(t, profile.ID, 2, models.RoleAdmin)
	f.seedMember(t, profile.ID, 3, models.RoleTechnician)

	newName := "Main Hall FOH"
	newSlug := "main-hall-foh"

	// Technicians configure channels, not the profile itself
	err = f.profiles.UpdateProfile(ctx, 3, profile.ID, &models.UpdateProfileRequest{Name: &newName})
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	// Admins may rename but not move the slug
	require.NoError(t, f.profiles.UpdateProfile(ctx, 2, profile.ID, &models.UpdateProfileRequest{Name: &newName}))
	err = f.profiles.UpdateProfile(ctx, 2, profile.ID, &models.UpdateProfileRequest{Slug: &newSlug})
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	require.NoError(t, f.profiles.UpdateProfile(ctx, 1, profile.ID, &models.UpdateProfileRequest{Slug: &newSlug}))

	got, err := f.profiles.GetBySlug(ctx, "main-hall-foh")
	require.NoError(t, err)
	assert.Equal(t, "Main Hall FOH", got.Name)
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")
	f.seedUser(t, 2, "Ben")
	f.seedUser(t, 3, "Cleo")

	profile, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	f.seedMember(t, profile.ID, 2, models.RoleOperator)

	// Only the owner may transfer
	err = f.profiles.TransferOwnership(ctx, 2, profile.ID, 2)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	// The new owner must already be a member
	err = f.profiles.TransferOwnership(ctx, 1, profile.ID, 3)
	require.Error(t, err)

	require.NoError(t, f.profiles.TransferOwnership(ctx, 1, profile.ID, 2))

	got, err := f.profiles.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(2), got.OwnerID)

	newOwnerRole, _ := f.members.GetRole(ctx, profile.ID, 2)
	oldOwnerRole, _ := f.members.GetRole(ctx, profile.ID, 1)
	assert.Equal(t, models.RoleOwner, newOwnerRole)
	assert.Equal(t, models.RoleAdmin, oldOwnerRole)

	// Both role changes were announced
	assert.Len(t, f.bc.named(rooms.EventMemberUpdated), 2)
}

func TestDeleteProfileOwnerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")
	f.seedUser(t, 2, "Ben")

	profile, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	f.seedMember(t, profile.ID, 2, models.RoleAdmin)

	err = f.profiles.DeleteProfile(ctx, 2, profile.ID)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	require.NoError(t, f.profiles.DeleteProfile(ctx, 1, profile.ID))

	_, err = f.profiles.GetByID(ctx, profile.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestListForUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")
	f.seedUser(t, 2, "Ben")

	p1, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	_, err = f.profiles.CreateProfile(ctx, "Studio B", "studio-b", 2)
	require.NoError(t, err)

	mine, err := f.profiles.ListForUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, p1.ID, mine[0].ID)
}

func TestSlugAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedUser(t, 1, "Ava")

	profile, err := f.profiles.CreateProfile(ctx, "Main Hall", "main-hall", 1)
	require.NoError(t, err)

	available, err := f.profiles.SlugAvailable(ctx, "main-hall", 0)
	require.NoError(t, err)
	assert.False(t, available)

	// A profile does not block its own slug
	available, err = f.profiles.SlugAvailable(ctx, "main-hall", profile.ID)
	require.NoError(t, err)
	assert.True(t, available)

	available, err = f.profiles.SlugAvailable(ctx, "studio-b", 0)
	require.NoError(t, err)
	assert.True(t, available)
}
