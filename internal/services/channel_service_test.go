package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faderbank/internal/models"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"
)

// channelFixture is a profile with one technician (2) and one operator (3)
// besides the owner (1).
func channelFixture(t *testing.T) (*fixture, *models.Profile) {
	t.Helper()
	f := newFixture(t)
	f.seedUser(t, 1, "Ava")
	f.seedUser(t, 2, "Ben")
	f.seedUser(t, 3, "Cleo")

	profile, err := f.profiles.CreateProfile(context.Background(), "Main Hall", "main-hall", 1)
	require.NoError(t, err)
	f.seedMember(t, profile.ID, 2, models.RoleTechnician)
	f.seedMember(t, profile.ID, 3, models.RoleOperator)
	f.bc.reset()
	return f, profile
}

func TestCreateChannelDefaults(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	first, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Channel 1", first.Name)
	assert.Equal(t, 0, first.Position)
	assert.Equal(t, "white", first.Color)
	assert.Equal(t, 0, first.MIDICCOutput)
	assert.Equal(t, 0, first.MinLevel)
	assert.Equal(t, 127, first.MaxLevel)
	assert.Equal(t, uint64(0), first.StateVersion)

	second, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{Name: "Vocals", Color: "red"})
	require.NoError(t, err)
	assert.Equal(t, "Vocals", second.Name)
	assert.Equal(t, 1, second.Position)
	assert.Equal(t, 1, second.MIDICCOutput)

	assert.Len(t, f.bc.named(rooms.EventChannelAdded), 2)
}

func TestCreateChannelRejectsInvertedRange(t *testing.T) {
	f, profile := channelFixture(t)
	lo, hi := 100, 10

	_, err := f.channels.Create(context.Background(), 2, profile.ID, &models.CreateChannelRequest{
		MinLevel: &lo, MaxLevel: &hi,
	})
	assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err))
}

func TestCreateChannelRequiresTechnician(t *testing.T) {
	f, profile := channelFixture(t)

	_, err := f.channels.Create(context.Background(), 3, profile.ID, &models.CreateChannelRequest{})
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestUpdateChannelSparse(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	muteCC := 20
	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{
		Name: "Vocals", MIDICCMute: &muteCC,
	})
	require.NoError(t, err)

	newName := "Lead Vocals"
	updated, err := f.channels.Update(ctx, 2, strip.ID, &models.ChannelStripUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Lead Vocals", updated.Name)
	require.NotNil(t, updated.MIDICCMute)
	assert.Equal(t, 20, *updated.MIDICCMute)

	// Explicit clear of a nullable mapping
	updated, err = f.channels.Update(ctx, 2, strip.ID, &models.ChannelStripUpdate{ClearMute: true})
	require.NoError(t, err)
	assert.Nil(t, updated.MIDICCMute)

	// Configuration edits never touch the state version
	assert.Equal(t, uint64(0), updated.StateVersion)
}

func TestReorderChannels(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
		require.NoError(t, err)
		ids = append(ids, strip.ID)
	}

	newOrder := []uint{ids[2], ids[0], ids[1]}
	require.NoError(t, f.channels.Reorder(ctx, 2, profile.ID, newOrder))

	strips, err := f.channels.List(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, strips, 3)
	assert.Equal(t, ids[2], strips[0].ID)
	assert.Equal(t, ids[0], strips[1].ID)
	assert.Equal(t, ids[1], strips[2].ID)

	// Same order again is a no-op, not an error
	require.NoError(t, f.channels.Reorder(ctx, 2, profile.ID, newOrder))
}

func TestReorderRejectsNonPermutations(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	var ids []uint
	for i := 0; i < 3; i++ {
		strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
		require.NoError(t, err)
		ids = append(ids, strip.ID)
	}

	cases := map[string][]uint{
		"too short":  {ids[0], ids[1]},
		"duplicate":  {ids[0], ids[1], ids[1]},
		"foreign id": {ids[0], ids[1], 9999},
	}
	for name, order := range cases {
		err := f.channels.Reorder(ctx, 2, profile.ID, order)
		assert.Equal(t, apperrors.CodeValidation, apperrors.CodeOf(err), name)
	}
}

func TestSetLevelClampsAndBumps(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	got, clamped, err := f.channels.SetLevel(ctx, 3, strip.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, 127, clamped)
	assert.Equal(t, uint64(1), got.StateVersion)

	got, clamped, err = f.channels.SetLevel(ctx, 3, strip.ID, -5)
	require.NoError(t, err)
	assert.Equal(t, 0, clamped)
	assert.Equal(t, uint64(2), got.StateVersion)
}

func TestSetLevelRequiresOperator(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()
	f.seedUser(t, 4, "Dan")
	f.seedMember(t, profile.ID, 4, models.RoleGuest)

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	_, _, err = f.channels.SetLevel(ctx, 4, strip.ID, 64)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestPromotionUnlocksFaderWrites(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()
	f.seedUser(t, 4, "Dan")
	f.seedMember(t, profile.ID, 4, models.RoleGuest)

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	_, _, err = f.channels.SetLevel(ctx, 4, strip.ID, 90)
	require.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	require.NoError(t, f.members.UpdateRole(ctx, 1, profile.ID, 4, models.RoleOperator))

	updated, clamped, err := f.channels.SetLevel(ctx, 4, strip.ID, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, clamped)
	assert.Equal(t, uint64(1), updated.StateVersion)
}

func TestMuteSoloBumpVersion(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	muted, err := f.channels.SetMute(ctx, 3, strip.ID, true)
	require.NoError(t, err)
	assert.True(t, muted.IsMuted)
	assert.Equal(t, uint64(1), muted.StateVersion)

	soloed, err := f.channels.SetSolo(ctx, 3, strip.ID, true)
	require.NoError(t, err)
	assert.True(t, soloed.IsSolo)
	assert.Equal(t, uint64(2), soloed.StateVersion)
}

func TestVUDoesNotBumpVersion(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	got, err := f.channels.SetVU(ctx, strip.ID, 90)
	require.NoError(t, err)
	assert.Equal(t, 90, got.VULevel)

	reloaded, err := f.channels.GetByID(ctx, strip.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), reloaded.StateVersion)
	assert.Equal(t, 90, reloaded.VULevel)
}

func TestConcurrentLevelWritesCountEveryBump(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(level int) {
			defer wg.Done()
			_, _, err := f.channels.SetLevel(ctx, 3, strip.ID, level)
			assert.NoError(t, err)
		}(i * 7 % 128)
	}
	wg.Wait()

	reloaded, err := f.channels.GetByID(ctx, strip.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(writers), reloaded.StateVersion)
}

func TestDeleteChannel(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	require.NoError(t, f.channels.Delete(ctx, 2, strip.ID))

	_, err = f.channels.GetByID(ctx, strip.ID)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	assert.Len(t, f.bc.named(rooms.EventChannelDeleted), 1)
}

func TestConcurrentWritesReportDistinctVersions(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)

	const writers = 8
	var mu sync.Mutex
	seen := make(map[uint64]int)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(level int) {
			defer wg.Done()
			updated, _, err := f.channels.SetLevel(ctx, 3, strip.ID, level)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[updated.StateVersion]++
			mu.Unlock()
		}(i * 11 % 128)
	}
	wg.Wait()

	// Every writer must see the version its own bump produced.
	require.Len(t, seen, writers)
	for v := uint64(1); v <= writers; v++ {
		assert.Equal(t, 1, seen[v], "version %d", v)
	}
}

func TestConcurrentCreatesAssignDensePositions(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	const creators = 6
	var wg sync.WaitGroup
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	strips, err := f.channels.List(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, strips, creators)
	for i, strip := range strips {
		assert.Equal(t, i, strip.Position)
	}
}

func TestDeleteClosesPositionGap(t *testing.T) {
	f, profile := channelFixture(t)
	ctx := context.Background()

	var strips []*models.ChannelStrip
	for i := 0; i < 3; i++ {
		strip, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
		require.NoError(t, err)
		strips = append(strips, strip)
	}

	require.NoError(t, f.channels.Delete(ctx, 2, strips[1].ID))

	remaining, err := f.channels.List(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, strips[0].ID, remaining[0].ID)
	assert.Equal(t, 0, remaining[0].Position)
	assert.Equal(t, strips[2].ID, remaining[1].ID)
	assert.Equal(t, 1, remaining[1].Position)

	appended, err := f.channels.Create(ctx, 2, profile.ID, &models.CreateChannelRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, appended.Position)
}
