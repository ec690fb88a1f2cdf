package services

import (
	"context"
	"log/slog"

	"faderbank/internal/authz"
	"faderbank/internal/models"
	"faderbank/internal/repositories/postgres"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"
)

// TakeOutcome describes what a take attempt did.
type TakeOutcome int

const (
	// TakeGranted: responsibility moved to the caller and the room was told.
	TakeGranted TakeOutcome = iota
	// TakeAlreadyHolder: the caller already held it; nothing changed.
	TakeAlreadyHolder
	// TakeNeedsConfirm: someone else holds it and force was not set. No
	// state change, no broadcast; only the requester gets a confirm prompt.
	TakeNeedsConfirm
)

// ResponsibilityService is the arbiter for the per-profile exclusive-control
// token. All transitions for a profile are serialized behind one lock, so
// concurrent takes resolve to exactly one winner.
type ResponsibilityService struct {
	resps       *postgres.ResponsibilityRepository
	members     *postgres.MemberRepository
	users       *postgres.UserRepository
	locks       *keyedMutex
	broadcaster rooms.Broadcaster
}

func NewResponsibilityService(
	resps *postgres.ResponsibilityRepository,
	members *postgres.MemberRepository,
	users *postgres.UserRepository,
	broadcaster rooms.Broadcaster,
) *ResponsibilityService {
	return &ResponsibilityService{
		resps:       resps,
		members:     members,
		users:       users,
		locks:       newKeyedMutex(),
		broadcaster: broadcaster,
	}
}

func (s *ResponsibilityService) Get(ctx context.Context, profileID uint) (*models.Responsibility, error) {
	resp, err := s.resps.Get(profileID)
	if err != nil {
		return nil, storeErr(err, "profile not found")
	}
	return resp, nil
}

// State returns the holder with display name resolved, for snapshots and
// broadcasts.
func (s *ResponsibilityService) State(ctx context.Context, profileID uint) (*models.ResponsibilityState, error) {
	resp, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return s.stateOf(resp), nil
}

func (s *ResponsibilityService) stateOf(resp *models.Responsibility) *models.ResponsibilityState {
	state := &models.ResponsibilityState{}
	if resp.UserID != nil {
		state.UserID = resp.UserID
		if user, err := s.users.FindByID(*resp.UserID); err == nil {
			name := user.DisplayName
			state.DisplayName = &name
		}
	}
	return state
}

// Take attempts to claim responsibility. Requires role >= operator. When the
// token is held by someone else and force is unset, the current holder's
// state comes back with TakeNeedsConfirm and nothing is mutated or
// broadcast.
func (s *ResponsibilityService) Take(ctx context.Context, profileID, userID uint, displayName string, force bool) (TakeOutcome, *models.ResponsibilityState, error) {
	role, err := s.members.GetRole(profileID, userID)
	if err != nil {
		return 0, nil, apperrors.StoreFailure(err)
	}
	if !authz.Allow(role, authz.OpOperate) {
		return 0, nil, apperrors.PermissionDenied("taking responsibility requires operator access")
	}

	s.locks.Lock(profileID)
	defer s.locks.Unlock(profileID)

	current, err := s.Get(ctx, profileID)
	if err != nil {
		return 0, nil, err
	}

	if current.HeldBy(userID) {
		return TakeAlreadyHolder, s.stateOf(current), nil
	}
	if current.Claimed() && !force {
		return TakeNeedsConfirm, s.stateOf(current), nil
	}

	if err := s.resps.SetHolder(profileID, userID); err != nil {
		return 0, nil, apperrors.StoreFailure(err)
	}

	state := &models.ResponsibilityState{UserID: &userID, DisplayName: &displayName}
	s.broadcastChange(profileID, state)
	slog.Info("Responsibility taken", "profileID", profileID, "userID", userID, "force", force)
	return TakeGranted, state, nil
}

// Drop releases responsibility if the caller holds it. A drop by anyone else
// is a no-op; another participant can only supersede via Take(force).
func (s *ResponsibilityService) Drop(ctx context.Context, profileID, userID uint) error {
	s.locks.Lock(profileID)
	defer s.locks.Unlock(profileID)
	return s.dropLocked(ctx, profileID, userID)
}

// DropIfHolder is the implicit-drop path used when the holder disconnects or
// is removed from the profile. Errors are logged, not surfaced: disconnect
// cleanup has no caller to report to.
func (s *ResponsibilityService) DropIfHolder(ctx context.Context, profileID, userID uint) {
	s.locks.Lock(profileID)
	defer s.locks.Unlock(profileID)
	if err := s.dropLocked(ctx, profileID, userID); err != nil {
		slog.Error("Implicit responsibility drop failed", "profileID", profileID, "userID", userID, "error", err)
	}
}

func (s *ResponsibilityService) dropLocked(ctx context.Context, profileID, userID uint) error {
	current, err := s.Get(ctx, profileID)
	if err != nil {
		return err
	}
	if !current.HeldBy(userID) {
		return nil
	}
	if err := s.resps.Clear(profileID); err != nil {
		return apperrors.StoreFailure(err)
	}
	s.broadcastChange(profileID, &models.ResponsibilityState{})
	slog.Info("Responsibility dropped", "profileID", profileID, "userID", userID)
	return nil
}

func (s *ResponsibilityService) broadcastChange(profileID uint, state *models.ResponsibilityState) {
	s.broadcaster.BroadcastToProfile(profileID, rooms.EventResponsibilityChanged, map[string]interface{}{
		"user_id":      state.UserID,
		"display_name": state.DisplayName,
	})
}
