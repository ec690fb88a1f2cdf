package services

import (
	"context"
	"fmt"
	"log/slog"

	"faderbank/internal/authz"
	"faderbank/internal/models"
	"faderbank/internal/repositories/postgres"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"

	"gorm.io/gorm"
)

// ChannelService owns channel strip state and its versioning contract: every
// durable level/mute/solo mutation bumps state_version by exactly one, and
// bumps for a channel never interleave.
type ChannelService struct {
	db      *gorm.DB
	strips  *postgres.ChannelStripRepository
	members *postgres.MemberRepository

	// locks serializes version bumps per channel; profileLocks serializes
	// position assignment (create, delete, reorder) per profile.
	locks        *keyedMutex
	profileLocks *keyedMutex
	broadcaster  rooms.Broadcaster
}

func NewChannelService(
	db *gorm.DB,
	strips *postgres.ChannelStripRepository,
	members *postgres.MemberRepository,
	broadcaster rooms.Broadcaster,
) *ChannelService {
	return &ChannelService{
		db:           db,
		strips:       strips,
		members:      members,
		locks:        newKeyedMutex(),
		profileLocks: newKeyedMutex(),
		broadcaster:  broadcaster,
	}
}

func (s *ChannelService) requireRole(profileID, userID uint, op authz.Operation) error {
	role, err := s.members.GetRole(profileID, userID)
	if err != nil {
		return apperrors.StoreFailure(err)
	}
	if !authz.Allow(role, op) {
		return apperrors.PermissionDenied("insufficient permissions")
	}
	return nil
}

func (s *ChannelService) GetByID(ctx context.Context, channelID uint) (*models.ChannelStrip, error) {
	strip, err := s.strips.GetByID(channelID)
	if err != nil {
		return nil, storeErr(err, "channel not found")
	}
	return strip, nil
}

// List returns the profile's strips ordered by position.
func (s *ChannelService) List(ctx context.Context, profileID uint) ([]models.ChannelStrip, error) {
	strips, err := s.strips.ListByProfile(profileID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return strips, nil
}

// Create appends a strip at the next dense position. Technician and up.
func (s *ChannelService) Create(ctx context.Context, actorID, profileID uint, req *models.CreateChannelRequest) (*models.ChannelStrip, error) {
	if err := s.requireRole(profileID, actorID, authz.OpEditChannels); err != nil {
		return nil, err
	}

	s.profileLocks.Lock(profileID)
	defer s.profileLocks.Unlock(profileID)

	count, err := s.strips.CountByProfile(profileID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	position := int(count)

	strip := &models.ChannelStrip{
		ProfileID:     profileID,
		Name:          req.Name,
		Position:      position,
		Color:         req.Color,
		MIDICCOutput:  position,
		MIDICCVUInput: req.MIDICCVUInput,
		MIDICCMute:    req.MIDICCMute,
		MIDICCSolo:    req.MIDICCSolo,
		MinLevel:      0,
		MaxLevel:      127,
	}
	if strip.Name == "" {
		strip.Name = fmt.Sprintf("Channel %d", position+1)
	}
	if strip.Color == "" {
		strip.Color = "white"
	}
	if req.MIDICCOutput != nil {
		strip.MIDICCOutput = *req.MIDICCOutput
	}
	if req.MinLevel != nil {
		strip.MinLevel = *req.MinLevel
	}
	if req.MaxLevel != nil {
		strip.MaxLevel = *req.MaxLevel
	}
	if strip.MaxLevel < strip.MinLevel {
		return nil, apperrors.Validation("max level must not be below min level")
	}
	strip.CurrentLevel = strip.MinLevel

	if err := s.strips.Create(strip); err != nil {
		return nil, apperrors.StoreFailure(err)
	}

	s.broadcaster.BroadcastToProfile(profileID, rooms.EventChannelAdded, map[string]interface{}{
		"channel": strip,
	})
	slog.Info("Channel created", "profileID", profileID, "channelID", strip.ID, "actorID", actorID)
	return strip, nil
}

// Update applies a sparse configuration update: only fields the caller
// explicitly set are written.
func (s *ChannelService) Update(ctx context.Context, actorID, channelID uint, update *models.ChannelStripUpdate) (*models.ChannelStrip, error) {
	strip, err := s.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(strip.ProfileID, actorID, authz.OpEditChannels); err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return strip, nil
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Color != nil {
		fields["color"] = *update.Color
	}
	if update.MIDICCOutput != nil {
		fields["midi_cc_output"] = *update.MIDICCOutput
	}
	if update.MIDICCVUInput != nil {
		fields["midi_cc_vu_input"] = *update.MIDICCVUInput
	} else if update.ClearVUInput {
		fields["midi_cc_vu_input"] = nil
	}
	if update.MIDICCMute != nil {
		fields["midi_cc_mute"] = *update.MIDICCMute
	} else if update.ClearMute {
		fields["midi_cc_mute"] = nil
	}
	if update.MIDICCSolo != nil {
		fields["midi_cc_solo"] = *update.MIDICCSolo
	} else if update.ClearSolo {
		fields["midi_cc_solo"] = nil
	}
	if update.MinLevel != nil {
		fields["min_level"] = *update.MinLevel
	}
	if update.MaxLevel != nil {
		fields["max_level"] = *update.MaxLevel
	}

	if err := s.strips.UpdateFields(channelID, fields); err != nil {
		return nil, apperrors.StoreFailure(err)
	}

	updated, err := s.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	s.broadcaster.BroadcastToProfile(strip.ProfileID, rooms.EventChannelUpdated, map[string]interface{}{
		"channel": updated,
	})
	return updated, nil
}

// Delete removes a strip and closes the position gap it leaves, so the
// profile's positions stay dense 0..n-1.
func (s *ChannelService) Delete(ctx context.Context, actorID, channelID uint) error {
	strip, err := s.GetByID(ctx, channelID)
	if err != nil {
		return err
	}
	if err := s.requireRole(strip.ProfileID, actorID, authz.OpEditChannels); err != nil {
		return err
	}

	s.profileLocks.Lock(strip.ProfileID)
	defer s.profileLocks.Unlock(strip.ProfileID)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.strips.WithTx(tx)
		current, err := repo.GetByID(channelID)
		if err != nil {
			return err
		}
		count, err := repo.CountByProfile(current.ProfileID)
		if err != nil {
			return err
		}
		if err := repo.Delete(channelID); err != nil {
			return err
		}
		return repo.CompactPositions(current.ProfileID, current.Position, int(count))
	})
	if err != nil {
		return apperrors.StoreFailure(err)
	}
	s.broadcaster.BroadcastToProfile(strip.ProfileID, rooms.EventChannelDeleted, map[string]interface{}{
		"channel_id": channelID,
	})
	slog.Info("Channel deleted", "profileID", strip.ProfileID, "channelID", channelID, "actorID", actorID)
	return nil
}

// Reorder assigns position = index for the submitted order. The order must
// be exactly a permutation of the profile's channel ids; partial or foreign
// id lists are rejected rather than silently desyncing positions. Calling
// twice with the same order is idempotent.
func (s *ChannelService) Reorder(ctx context.Context, actorID, profileID uint, order []uint) error {
	if err := s.requireRole(profileID, actorID, authz.OpEditChannels); err != nil {
		return err
	}

	s.profileLocks.Lock(profileID)
	defer s.profileLocks.Unlock(profileID)

	existing, err := s.strips.ListIDsByProfile(profileID)
	if err != nil {
		return apperrors.StoreFailure(err)
	}
	if len(order) != len(existing) {
		return apperrors.Validation("order must include every channel exactly once")
	}
	known := make(map[uint]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	seen := make(map[uint]bool, len(order))
	for _, id := range order {
		if !known[id] || seen[id] {
			return apperrors.Validation("order must be a permutation of this profile's channels")
		}
		seen[id] = true
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.strips.WithTx(tx)
		if err := repo.ShiftPositions(profileID, len(order)); err != nil {
			return err
		}
		for position, channelID := range order {
			if err := repo.SetPosition(profileID, channelID, position); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.StoreFailure(err)
	}

	s.broadcaster.BroadcastToProfile(profileID, rooms.EventChannelsReordered, map[string]interface{}{
		"order": order,
	})
	return nil
}

// SetLevel writes the fader level and bumps the version. The level is
// clamped into the strip's range; the clamped value is returned for the
// broadcast. Operator and up.
func (s *ChannelService) SetLevel(ctx context.Context, actorID, channelID uint, level int) (*models.ChannelStrip, int, error) {
	strip, err := s.GetByID(ctx, channelID)
	if err != nil {
		return nil, 0, err
	}
	if err := s.requireRole(strip.ProfileID, actorID, authz.OpOperate); err != nil {
		return nil, 0, err
	}

	clamped := strip.ClampLevel(level)

	updated, err := s.bumpAndReload(channelID, "current_level", clamped)
	if err != nil {
		return nil, 0, err
	}
	return updated, clamped, nil
}

// SetMute writes the mute flag and bumps the version. Operator and up.
func (s *ChannelService) SetMute(ctx context.Context, actorID, channelID uint, muted bool) (*models.ChannelStrip, error) {
	strip, err := s.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(strip.ProfileID, actorID, authz.OpOperate); err != nil {
		return nil, err
	}

	return s.bumpAndReload(channelID, "is_muted", muted)
}

// SetSolo writes the solo flag and bumps the version. Operator and up.
func (s *ChannelService) SetSolo(ctx context.Context, actorID, channelID uint, solo bool) (*models.ChannelStrip, error) {
	strip, err := s.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.requireRole(strip.ProfileID, actorID, authz.OpOperate); err != nil {
		return nil, err
	}

	return s.bumpAndReload(channelID, "is_solo", solo)
}

// bumpAndReload serializes the versioned write per channel and rereads the
// row while still holding the lock, so the version handed back for the
// broadcast is the one this bump produced rather than the caller's earlier
// snapshot.
func (s *ChannelService) bumpAndReload(channelID uint, field string, value interface{}) (*models.ChannelStrip, error) {
	s.locks.Lock(channelID)
	defer s.locks.Unlock(channelID)
	if err := s.strips.BumpState(channelID, field, value); err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	strip, err := s.strips.GetByID(channelID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return strip, nil
}

// SetVU writes ephemeral meter telemetry: no permission check, no version
// bump, no per-channel lock. Highest write wins.
func (s *ChannelService) SetVU(ctx context.Context, channelID uint, level int) (*models.ChannelStrip, error) {
	strip, err := s.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := s.strips.SetVU(channelID, level); err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	strip.VULevel = level
	return strip, nil
}

// SetVUBulk updates many meters at once for hardware bridges that report a
// whole bank per tick.
func (s *ChannelService) SetVUBulk(ctx context.Context, profileID uint, levels map[uint]int) error {
	if len(levels) == 0 {
		return nil
	}
	if err := s.strips.SetVUBulk(profileID, levels); err != nil {
		return apperrors.StoreFailure(err)
	}
	s.broadcaster.BroadcastToProfile(profileID, rooms.EventVUUpdate, map[string]interface{}{
		"levels": levels,
	})
	return nil
}
