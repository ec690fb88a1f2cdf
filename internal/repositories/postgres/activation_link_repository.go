package postgres

import (
	"time"

	"faderbank/internal/models"

	"gorm.io/gorm"
)

type ActivationLinkRepository struct {
	db *gorm.DB
}

func NewActivationLinkRepository(db *gorm.DB) *ActivationLinkRepository {
	return &ActivationLinkRepository{db}
}

func (r *ActivationLinkRepository) WithTx(tx *gorm.DB) *ActivationLinkRepository {
	return &ActivationLinkRepository{tx}
}

func (r *ActivationLinkRepository) Create(link *models.ActivationLink) error {
	return r.db.Create(link).Error
}

func (r *ActivationLinkRepository) GetByToken(token string) (*models.ActivationLink, error) {
	var link models.ActivationLink
	err := r.db.Where("token = ?", token).First(&link).Error
	return &link, err
}

func (r *ActivationLinkRepository) GetByID(linkID uint) (*models.ActivationLink, error) {
	var link models.ActivationLink
	err := r.db.First(&link, linkID).Error
	return &link, err
}

// MarkUsed stamps the link as redeemed, guarded so only one redemption can
// ever win. Returns the number of rows it claimed (0 or 1).
func (r *ActivationLinkRepository) MarkUsed(linkID, userID uint, now time.Time) (int64, error) {
	res := r.db.Model(&models.ActivationLink{}).
		Where("id = ? AND used_at IS NULL AND canceled_at IS NULL AND expires_at > ?", linkID, now).
		Updates(map[string]interface{}{"used_by": userID, "used_at": now})
	return res.RowsAffected, res.Error
}

// Cancel stamps canceled_at; repeated calls leave the original stamp alone.
func (r *ActivationLinkRepository) Cancel(linkID uint, now time.Time) error {
	return r.db.Model(&models.ActivationLink{}).
		Where("id = ? AND canceled_at IS NULL", linkID).
		Update("canceled_at", now).Error
}

// ListByProfile returns the profile's links joined with creator and redeemer
// display names, newest first.
func (r *ActivationLinkRepository) ListByProfile(profileID uint) ([]models.InvitationResponse, error) {
	var links []models.InvitationResponse
	err := r.db.Table("activation_links").
		Select(`activation_links.id, activation_links.profile_id, activation_links.token,
			activation_links.role, activation_links.expires_at, activation_links.used_at,
			activation_links.canceled_at, activation_links.created_at,
			creators.display_name AS creator_name,
			redeemers.display_name AS redeemer_name`).
		Joins("JOIN users AS creators ON creators.id = activation_links.created_by").
		Joins("LEFT JOIN users AS redeemers ON redeemers.id = activation_links.used_by").
		Where("activation_links.profile_id = ?", profileID).
		Order("activation_links.created_at DESC").
		Scan(&links).Error
	return links, err
}
