package postgres

import (
	"faderbank/internal/models"

	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db}
}

// WithTx binds the repository to a running transaction.
func (r *ProfileRepository) WithTx(tx *gorm.DB) *ProfileRepository {
	return &ProfileRepository{tx}
}

func (r *ProfileRepository) Create(profile *models.Profile) error {
	return r.db.Create(profile).Error
}

func (r *ProfileRepository) GetByID(profileID uint) (*models.Profile, error) {
	var p models.Profile
	err := r.db.First(&p, profileID).Error
	return &p, err
}

func (r *ProfileRepository) GetBySlug(slug string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.Where("slug = ?", slug).First(&p).Error
	return &p, err
}

// SlugAvailable reports whether no profile other than excludeID uses slug.
func (r *ProfileRepository) SlugAvailable(slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.Model(&models.Profile{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *ProfileRepository) Update(profileID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.Profile{}).Where("id = ?", profileID).Updates(fields).Error
}

func (r *ProfileRepository) SetOwner(profileID, ownerID uint) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", profileID).
		Update("owner_id", ownerID).Error
}

func (r *ProfileRepository) Delete(profileID uint) error {
	return r.db.Delete(&models.Profile{}, profileID).Error
}

// ListForUser returns every profile the user is a member of, annotated with
// the user's role, ordered by name.
func (r *ProfileRepository) ListForUser(userID uint) ([]models.ProfileSummary, error) {
	var summaries []models.ProfileSummary
	err := r.db.Table("profiles").
		Select("profiles.id, profiles.name, profiles.slug, profiles.owner_id, members.role").
		Joins("JOIN members ON members.profile_id = profiles.id").
		Where("members.user_id = ?", userID).
		Order("profiles.name").
		Scan(&summaries).Error
	return summaries, err
}
