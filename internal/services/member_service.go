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

type MemberService struct {
	profiles    *postgres.ProfileRepository
	members     *postgres.MemberRepository
	resp        *ResponsibilityService
	broadcaster rooms.Broadcaster
}

func NewMemberService(
	profiles *postgres.ProfileRepository,
	members *postgres.MemberRepository,
	resp *ResponsibilityService,
	broadcaster rooms.Broadcaster,
) *MemberService {
	return &MemberService{
		profiles:    profiles,
		members:     members,
		resp:        resp,
		broadcaster: broadcaster,
	}
}

// GetRole is the shared role lookup every entry point uses before asking the
// authorization model.
func (s *MemberService) GetRole(ctx context.Context, profileID, userID uint) (models.Role, error) {
	role, err := s.members.GetRole(profileID, userID)
	if err != nil {
		return models.RoleNone, apperrors.StoreFailure(err)
	}
	return role, nil
}

func (s *MemberService) List(ctx context.Context, actorID, profileID uint) ([]models.MemberResponse, error) {
	role, err := s.GetRole(ctx, profileID, actorID)
	if err != nil {
		return nil, err
	}
	if !authz.Allow(role, authz.OpViewProfile) {
		return nil, apperrors.PermissionDenied("you don't have access to this profile")
	}
	members, err := s.members.List(profileID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return members, nil
}

// UpdateRole changes a member's role subject to the admin-exception rules.
func (s *MemberService) UpdateRole(ctx context.Context, actorID, profileID, targetID uint, newRole models.Role) error {
	profile, err := s.profiles.GetByID(profileID)
	if err != nil {
		return storeErr(err, "profile not found")
	}
	actorRole, err := s.GetRole(ctx, profileID, actorID)
	if err != nil {
		return err
	}
	targetRole, err := s.GetRole(ctx, profileID, targetID)
	if err != nil {
		return err
	}
	if targetRole == models.RoleNone {
		return apperrors.NotFound("member not found")
	}
	if !newRole.IsValid() {
		return apperrors.Validation("invalid role")
	}
	if !authz.CanChangeRole(actorRole, targetRole, newRole, targetID == profile.OwnerID) {
		return apperrors.PermissionDenied("you cannot change this member's role")
	}

	if err := s.members.UpdateRole(profileID, targetID, newRole); err != nil {
		return apperrors.StoreFailure(err)
	}

	// A demoted responsibility holder keeps control until they drop or
	// disconnect; the operator threshold applies at take time only.
	s.broadcaster.BroadcastToProfile(profileID, rooms.EventMemberUpdated, map[string]interface{}{
		"user_id": targetID, "role": newRole,
	})
	slog.Info("Member role updated", "profileID", profileID, "userID", targetID, "role", newRole, "actorID", actorID)
	return nil
}

// Remove takes a member out of the profile. If the member held
// responsibility, it is force-dropped: a non-member may not keep exclusive
// control.
func (s *MemberService) Remove(ctx context.Context, actorID, profileID, targetID uint) error {
	profile, err := s.profiles.GetByID(profileID)
	if err != nil {
		return storeErr(err, "profile not found")
	}
	actorRole, err := s.GetRole(ctx, profileID, actorID)
	if err != nil {
		return err
	}
	targetRole, err := s.GetRole(ctx, profileID, targetID)
	if err != nil {
		return err
	}
	if targetRole == models.RoleNone {
		return apperrors.NotFound("member not found")
	}
	if !authz.CanRemoveMember(actorRole, targetRole, targetID == profile.OwnerID) {
		return apperrors.PermissionDenied("you cannot remove this member")
	}

	if err := s.members.Remove(profileID, targetID); err != nil {
		return apperrors.StoreFailure(err)
	}

	s.resp.DropIfHolder(ctx, profileID, targetID)

	s.broadcaster.BroadcastToProfile(profileID, rooms.EventMemberRemoved, map[string]interface{}{
		"user_id": targetID,
	})
	slog.Info("Member removed", "profileID", profileID, "userID", targetID, "actorID", actorID)
	return nil
}
