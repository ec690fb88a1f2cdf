package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"faderbank/internal/authz"
	"faderbank/internal/models"
	"faderbank/internal/repositories/postgres"
	"faderbank/internal/rooms"
	"faderbank/pkg/apperrors"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type ProfileService struct {
	db          *gorm.DB
	profiles    *postgres.ProfileRepository
	members     *postgres.MemberRepository
	resps       *postgres.ResponsibilityRepository
	broadcaster rooms.Broadcaster
}

func NewProfileService(
	db *gorm.DB,
	profiles *postgres.ProfileRepository,
	members *postgres.MemberRepository,
	resps *postgres.ResponsibilityRepository,
	broadcaster rooms.Broadcaster,
) *ProfileService {
	return &ProfileService{
		db:          db,
		profiles:    profiles,
		members:     members,
		resps:       resps,
		broadcaster: broadcaster,
	}
}

// SuggestSlug derives a URL-safe slug from a profile name.
func SuggestSlug(name string) string {
	return slug.Make(name)
}

func validateSlug(s string) error {
	if s == "" {
		return apperrors.Validation("slug is required")
	}
	if !slugPattern.MatchString(s) {
		return apperrors.Validation("slug must contain only lowercase letters, numbers, and hyphens")
	}
	return nil
}

// CreateProfile creates the profile, its owner membership and the unclaimed
// responsibility record as one unit. The creator becomes owner.
func (s *ProfileService) CreateProfile(ctx context.Context, name, slugStr string, creatorID uint) (*models.Profile, error) {
	if name == "" {
		return nil, apperrors.Validation("name is required")
	}
	if err := validateSlug(slugStr); err != nil {
		return nil, err
	}

	available, err := s.profiles.SlugAvailable(slugStr, 0)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	if !available {
		return nil, apperrors.Conflict("this slug is already taken")
	}

	profile := &models.Profile{Name: name, Slug: slugStr, OwnerID: creatorID}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.profiles.WithTx(tx).Create(profile); err != nil {
			return err
		}
		member := &models.Member{
			ProfileID: profile.ID,
			UserID:    creatorID,
			Role:      models.RoleOwner,
			AddedBy:   creatorID,
		}
		if err := s.members.WithTx(tx).Add(member); err != nil {
			return err
		}
		return s.resps.WithTx(tx).Init(profile.ID)
	})
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}

	slog.Info("Profile created", "profileID", profile.ID, "slug", profile.Slug, "ownerID", creatorID)
	return profile, nil
}

func (s *ProfileService) GetByID(ctx context.Context, profileID uint) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(profileID)
	if err != nil {
		return nil, storeErr(err, "profile not found")
	}
	return profile, nil
}

func (s *ProfileService) GetBySlug(ctx context.Context, slugStr string) (*models.Profile, error) {
	profile, err := s.profiles.GetBySlug(slugStr)
	if err != nil {
		return nil, storeErr(err, "profile not found")
	}
	return profile, nil
}

func (s *ProfileService) ListForUser(ctx context.Context, userID uint) ([]models.ProfileSummary, error) {
	summaries, err := s.profiles.ListForUser(userID)
	if err != nil {
		return nil, apperrors.StoreFailure(err)
	}
	return summaries, nil
}

// SlugAvailable checks availability for the new-profile and rename forms.
func (s *ProfileService) SlugAvailable(ctx context.Context, slugStr string, excludeID uint) (bool, error) {
	if err := validateSlug(slugStr); err != nil {
		return false, err
	}
	available, err := s.profiles.SlugAvailable(slugStr, excludeID)
	if err != nil {
		return false, apperrors.StoreFailure(err)
	}
	return available, nil
}

// UpdateProfile applies the explicitly-set fields. Slug changes re-validate
// uniqueness. Requires admin for the name, owner for the slug.
func (s *ProfileService) UpdateProfile(ctx context.Context, actorID, profileID uint, req *models.UpdateProfileRequest) error {
	profile, err := s.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	role, err := s.actorRole(profileID, actorID)
	if err != nil {
		return err
	}
	if !authz.Allow(role, authz.OpManageMembers) {
		return apperrors.PermissionDenied("insufficient permissions")
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		if *req.Name == "" {
			return apperrors.Validation("name cannot be empty")
		}
		fields["name"] = *req.Name
	}
	if req.Slug != nil && *req.Slug != profile.Slug {
		if !authz.Allow(role, authz.OpOwner) {
			return apperrors.PermissionDenied("only the owner can change the slug")
		}
		if err := validateSlug(*req.Slug); err != nil {
			return err
		}
		available, err := s.profiles.SlugAvailable(*req.Slug, profileID)
		if err != nil {
			return apperrors.StoreFailure(err)
		}
		if !available {
			return apperrors.Conflict("this slug is already taken")
		}
		fields["slug"] = *req.Slug
	}

	if len(fields) == 0 {
		return nil
	}
	if err := s.profiles.Update(profileID, fields); err != nil {
		return apperrors.StoreFailure(err)
	}
	return nil
}

// DeleteProfile removes the profile; members, strips, responsibility and
// links go with it via cascade. Owner only.
func (s *ProfileService) DeleteProfile(ctx context.Context, actorID, profileID uint) error {
	profile, err := s.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.OwnerID != actorID {
		return apperrors.PermissionDenied("only the owner can delete the profile")
	}
	if err := s.profiles.Delete(profileID); err != nil {
		return apperrors.StoreFailure(err)
	}
	slog.Info("Profile deleted", "profileID", profileID, "actorID", actorID)
	return nil
}

// TransferOwnership moves the owner flag and swaps the two member roles in
// one transaction, so there is never zero or two owners.
func (s *ProfileService) TransferOwnership(ctx context.Context, actorID, profileID, newOwnerID uint) error {
	profile, err := s.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	if profile.OwnerID != actorID {
		return apperrors.PermissionDenied("only the owner can transfer ownership")
	}
	if newOwnerID == actorID {
		return apperrors.Validation("cannot transfer ownership to yourself")
	}

	newOwnerRole, err := s.members.GetRole(profileID, newOwnerID)
	if err != nil {
		return apperrors.StoreFailure(err)
	}
	if newOwnerRole == models.RoleNone {
		return apperrors.Validation("user is not a member of this profile")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.profiles.WithTx(tx).SetOwner(profileID, newOwnerID); err != nil {
			return err
		}
		if err := s.members.WithTx(tx).UpdateRole(profileID, actorID, models.RoleAdmin); err != nil {
			return err
		}
		return s.members.WithTx(tx).UpdateRole(profileID, newOwnerID, models.RoleOwner)
	})
	if err != nil {
		return apperrors.StoreFailure(err)
	}

	s.broadcaster.BroadcastToProfile(profileID, rooms.EventMemberUpdated, map[string]interface{}{
		"user_id": actorID, "role": models.RoleAdmin,
	})
	s.broadcaster.BroadcastToProfile(profileID, rooms.EventMemberUpdated, map[string]interface{}{
		"user_id": newOwnerID, "role": models.RoleOwner,
	})
	slog.Info("Ownership transferred", "profileID", profileID, "from", actorID, "to", newOwnerID)
	return nil
}

func (s *ProfileService) actorRole(profileID, actorID uint) (models.Role, error) {
	role, err := s.members.GetRole(profileID, actorID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RoleNone, apperrors.StoreFailure(err)
	}
	return role, nil
}
