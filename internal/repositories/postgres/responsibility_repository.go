package postgres

import (
	"time"

	"faderbank/internal/models"

	"gorm.io/gorm"
)

type ResponsibilityRepository struct {
	db *gorm.DB
}

func NewResponsibilityRepository(db *gorm.DB) *ResponsibilityRepository {
	return &ResponsibilityRepository{db}
}

func (r *ResponsibilityRepository) WithTx(tx *gorm.DB) *ResponsibilityRepository {
	return &ResponsibilityRepository{tx}
}

// Init creates the unclaimed record for a new profile.
func (r *ResponsibilityRepository) Init(profileID uint) error {
	return r.db.Create(&models.Responsibility{ProfileID: profileID}).Error
}

func (r *ResponsibilityRepository) Get(profileID uint) (*models.Responsibility, error) {
	var resp models.Responsibility
	err := r.db.First(&resp, "profile_id = ?", profileID).Error
	return &resp, err
}

func (r *ResponsibilityRepository) SetHolder(profileID, userID uint) error {
	now := time.Now()
	return r.db.Model(&models.Responsibility{}).
		Where("profile_id = ?", profileID).
		Updates(map[string]interface{}{"user_id": userID, "taken_at": now}).Error
}

func (r *ResponsibilityRepository) Clear(profileID uint) error {
	return r.db.Model(&models.Responsibility{}).
		Where("profile_id = ?", profileID).
		Updates(map[string]interface{}{"user_id": nil, "taken_at": nil}).Error
}
