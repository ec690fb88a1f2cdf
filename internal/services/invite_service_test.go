package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faderbank/internal/models"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"
)

// inviteFixture: owner 1, admin 2, technician 3; users 8 and 9 are outsiders.
func inviteFixture(t *testing.T) (*fixture, *models.Profile) {
	t.Helper()
	f := newFixture(t)
	for id, name := range map[uint]string{1: "Ava", 2: "Ben", 3: "Cleo", 8: "Hal", 9: "Ida"} {
		f.seedUser(t, id, name)
	}

	profile, err := f.profiles.CreateProfile(context.Background(), "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	f.seedMember(t, profile.ID, 2, models.RoleAdmin)
	f.seedMember(t, profile.ID, 3, models.RoleTechnician)
	f.bc.reset()
	return f, profile
}

func TestCreateInvitation(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	link, err := f.invites.Create(ctx, 2, profile.ID, models.RoleOperator)
	require.NoError(t, err)
	assert.NotEmpty(t, link.Token)
	assert.Equal(t, models.RoleOperator, link.Role)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), link.ExpiresAt, time.Minute)

	// No role requested defaults to guest
	link, err = f.invites.Create(ctx, 2, profile.ID, models.RoleNone)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGuest, link.Role)
}

func TestInvitationRoleRules(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	// Admins cannot mint admin links, the owner can
	_, err := f.invites.Create(ctx, 2, profile.ID, models.RoleAdmin)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	_, err = f.invites.Create(ctx, 1, profile.ID, models.RoleAdmin)
	require.NoError(t, err)

	// Technicians cannot invite at all
	_, err = f.invites.Create(ctx, 3, profile.ID, models.RoleGuest)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	// Owner role is never assignable by invitation
	_, err = f.invites.Create(ctx, 1, profile.ID, models.RoleOwner)
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestRedeemInvitation(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	link, err := f.invites.Create(ctx, 2, profile.ID, models.RoleOperator)
	require.NoError(t, err)
	f.bc.reset()

	joined, err := f.invites.Redeem(ctx, 8, link.Token)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, joined.ID)

	role, err := f.members.GetRole(ctx, profile.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, role)
	assert.Len(t, f.bc.named(rooms.EventMemberUpdated), 1)

	// Second redemption of the same link loses
	_, err = f.invites.Redeem(ctx, 9, link.Token)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))

	role, err = f.members.GetRole(ctx, profile.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, models.RoleNone, role)
}

func TestRedeemByExistingMemberRejected(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	link, err := f.invites.Create(ctx, 2, profile.ID, models.RoleGuest)
	require.NoError(t, err)

	_, err = f.invites.Redeem(ctx, 3, link.Token)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))

	// The failed attempt must not consume the link
	_, err = f.invites.Redeem(ctx, 8, link.Token)
	require.NoError(t, err)
}

func TestRedeemExpiredInvitation(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	link, err := f.invites.Create(ctx, 2, profile.ID, models.RoleGuest)
	require.NoError(t, err)

	f.invites.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err = f.invites.Redeem(ctx, 8, link.Token)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestCancelInvitation(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	link, err := f.invites.Create(ctx, 2, profile.ID, models.RoleGuest)
	require.NoError(t, err)

	// Technician cannot cancel
	err = f.invites.Cancel(ctx, 3, link.ID)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	require.NoError(t, f.invites.Cancel(ctx, 2, link.ID))
	// Idempotent
	require.NoError(t, f.invites.Cancel(ctx, 2, link.ID))

	_, err = f.invites.Redeem(ctx, 8, link.Token)
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
}

func TestPeekUnknownToken(t *testing.T) {
	f, _ := inviteFixture(t)

	_, err := f.invites.Peek(context.Background(), "no-such-token")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestListInvitations(t *testing.T) {
	f, profile := inviteFixture(t)
	ctx := context.Background()

	link, err := f.invites.Create(ctx, 2, profile.ID, models.RoleOperator)
	require.NoError(t, err)
	_, err = f.invites.Redeem(ctx, 8, link.Token)
	require.NoError(t, err)

	links, err := f.invites.List(ctx, 2, profile.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "Ben", links[0].CreatorName)
	require.NotNil(t, links[0].RedeemerName)
	assert.Equal(t, "Hal", *links[0].RedeemerName)
	assert.NotNil(t, links[0].UsedAt)

	_, err = f.invites.List(ctx, 3, profile.ID)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}
