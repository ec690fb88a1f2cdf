package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"faderbank/internal/authz"
	"faderbank/internal/models"
	"faderbank/internal/repositories/postgres"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"

	"gorm.io/gorm"
)

const invitationTTL = 7 * 24 * time.Hour

// InviteService owns the single-use activation links that bring new members
// into a profile.
type InviteService struct {
	db          *gorm.DB
	links       *postgres.ActivationLinkRepository
	members     *postgres.MemberRepository
	profiles    *postgres.ProfileRepository
	broadcaster rooms.Broadcaster
	now         func() time.Time
}

func NewInviteService(
	db *gorm.DB,
	links *postgres.ActivationLinkRepository,
	members *postgres.MemberRepository,
	profiles *postgres.ProfileRepository,
	broadcaster rooms.Broadcaster,
) *InviteService {
	return &InviteService{
		db:          db,
		links:       links,
		members:     members,
		profiles:    profiles,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// newToken returns an unguessable URL-safe token, 32 bytes of entropy.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Create mints an activation link. Admin and up; admins cannot mint
// admin-level links.
func (s *InviteService) Create(ctx context.Context, actorID, profileID uint, role models.Role) (*models.ActivationLink, error) {
	if role == models.RoleNone {
		role = models.RoleGuest
	}
	actorRole, err := s.members.GetRole(profileID, actorID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	if !role.IsAssignable() {
		return nil, apperrors.Validation("invalid role")
	}
	if !authz.CanInviteRole(actorRole, role) {
		return nil, apperrors.PermissionDenied("you cannot create this invitation")
	}

	token, err := newToken()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "token generation failed", err)
	}

	link := &models.ActivationLink{
		ProfileID: profileID,
		Token:     token,
		Role:      role,
		CreatedBy: actorID,
		ExpiresAt: s.now().Add(invitationTTL),
	}
	if err := s.links.Create(link); err != nil {
		return nil, apperrors.StoreFailure(err)
	}

	slog.Info("Invitation created", "profileID", profileID, "role", role, "actorID", actorID)
	return link, nil
}

// Peek returns the link for a token without consuming it, so the redeem page
// can show what is being joined.
func (s *InviteService) Peek(ctx context.Context, token string) (*models.ActivationLink, error) {
	link, err := s.links.GetByToken(token)
	if err != nil {
		return nil, storeErr(err, "invitation not found")
	}
	return link, nil
}

// Redeem consumes the link and inserts the member as one unit. A link can be
// redeemed at most once: the used-stamp is guarded, and a lost race comes
// back as Conflict with membership untouched.
func (s *InviteService) Redeem(ctx context.Context, userID uint, token string) (*models.Profile, error) {
	link, err := s.Peek(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if link.UsedAt != nil {
		return nil, apperrors.Conflict("this invitation has already been used")
	}
	if link.CanceledAt != nil {
		return nil, apperrors.Conflict("this invitation has been canceled")
	}
	if !now.Before(link.ExpiresAt) {
		return nil, apperrors.Conflict("this invitation has expired")
	}

	existing, err := s.members.GetRole(link.ProfileID, userID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	if existing != models.RoleNone {
		return nil, apperrors.Conflict("you already have access to this profile")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed, err := s.links.WithTx(tx).MarkUsed(link.ID, userID, now)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return errRedemptionLost
		}
		return s.members.WithTx(tx).Add(&models.Member{
			ProfileID: link.ProfileID,
			UserID:    userID,
			Role:      link.Role,
			AddedBy:   link.CreatedBy,
		})
	})
	if errors.Is(err, errRedemptionLost) {
		return nil, apperrors.Conflict("this invitation has already been used")
	}
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}

	profile, err := s.profiles.GetByID(link.ProfileID)
	if err != nil {
		return nil, storeErr(err, "profile not found")
	}

	s.broadcaster.BroadcastToProfile(link.ProfileID, rooms.EventMemberUpdated, map[string]interface{}{
		"user_id": userID, "role": link.Role,
	})
	slog.Info("Invitation redeemed", "profileID", link.ProfileID, "userID", userID, "role", link.Role)
	return profile, nil
}

var errRedemptionLost = errors.New("redemption lost the race")

// Cancel stamps the link canceled. Admin and up; idempotent.
func (s *InviteService) Cancel(ctx context.Context, actorID, linkID uint) error {
	link, err := s.links.GetByID(linkID)
	if err != nil {
		return storeErr(err, "invitation not found")
	}
	actorRole, err := s.members.GetRole(link.ProfileID, actorID)
	if err != nil {
		return apperrors.StoreFailure(err)
	}
	if !authz.Allow(actorRole, authz.OpManageMembers) {
		return apperrors.PermissionDenied("insufficient permissions")
	}
	if err := s.links.Cancel(linkID, s.now()); err != nil {
		return apperrors.StoreFailure(err)
	}
	return nil
}

// List returns the profile's links for the config surface. Admin and up.
func (s *InviteService) List(ctx context.Context, actorID, profileID uint) ([]models.InvitationResponse, error) {
	actorRole, err := s.members.GetRole(profileID, actorID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	if !authz.Allow(actorRole, authz.OpManageMembers) {
		return nil, apperrors.PermissionDenied("insufficient permissions")
	}
	links, err := s.links.ListByProfile(profileID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return links, nil
}
