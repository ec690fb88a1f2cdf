package postgres

import (
	"faderbank/internal/models"

	"gorm.io/gorm"
)

type ChannelStripRepository struct {
	db *gorm.DB
}

func NewChannelStripRepository(db *gorm.DB) *ChannelStripRepository {
	return &ChannelStripRepository{db}
}

func (r *ChannelStripRepository) WithTx(tx *gorm.DB) *ChannelStripRepository {
	return &ChannelStripRepository{tx}
}

func (r *ChannelStripRepository) Create(strip *models.ChannelStrip) error {
	return r.db.Create(strip).Error
}

func (r *ChannelStripRepository) GetByID(channelID uint) (*models.ChannelStrip, error) {
	var c models.ChannelStrip
	err := r.db.First(&c, channelID).Error
	return &c, err
}

func (r *ChannelStripRepository) ListByProfile(profileID uint) ([]models.ChannelStrip, error) {
	var strips []models.ChannelStrip
	err := r.db.Where("profile_id = ?", profileID).Order("position").Find(&strips).Error
	return strips, err
}

func (r *ChannelStripRepository) ListIDsByProfile(profileID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ChannelStrip{}).
		Where("profile_id = ?", profileID).Pluck("id", &ids).Error
	return ids, err
}

func (r *ChannelStripRepository) CountByProfile(profileID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.ChannelStrip{}).
		Where("profile_id = ?", profileID).Count(&count).Error
	return count, err
}

// UpdateFields applies a pre-built sparse field set to one strip.
func (r *ChannelStripRepository) UpdateFields(channelID uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.Model(&models.ChannelStrip{}).Where("id = ?", channelID).Updates(fields).Error
}

func (r *ChannelStripRepository) Delete(channelID uint) error {
	return r.db.Delete(&models.ChannelStrip{}, channelID).Error
}

// SetPosition writes one strip's position; reorders run a batch of these
// inside a transaction.
func (r *ChannelStripRepository) SetPosition(profileID, channelID uint, position int) error {
	return r.db.Model(&models.ChannelStrip{}).
		Where("id = ? AND profile_id = ?", channelID, profileID).
		Update("position", position).Error
}

// ShiftPositions moves every strip in the profile up by offset. Reorders run
// this first so the unique (profile_id, position) index never sees a
// transient duplicate while final positions are assigned.
func (r *ChannelStripRepository) ShiftPositions(profileID uint, offset int) error {
	return r.db.Model(&models.ChannelStrip{}).
		Where("profile_id = ?", profileID).
		Update("position", gorm.Expr("position + ?", offset)).Error
}

// CompactPositions closes the gap a delete left at releasedPosition, keeping
// the profile's positions dense. span must exceed every live position; the
// two passes keep the unique index satisfied row by row.
func (r *ChannelStripRepository) CompactPositions(profileID uint, releasedPosition, span int) error {
	err := r.db.Model(&models.ChannelStrip{}).
		Where("profile_id = ? AND position > ?", profileID, releasedPosition).
		Update("position", gorm.Expr("position + ?", span)).Error
	if err != nil {
		return err
	}
	return r.db.Model(&models.ChannelStrip{}).
		Where("profile_id = ? AND position >= ?", profileID, span).
		Update("position", gorm.Expr("position - ?", span+1)).Error
}

// BumpState writes one of the versioned fields (current_level, is_muted,
// is_solo) and increments state_version in the same statement, so the bump
// and the value can never be split by a concurrent writer.
func (r *ChannelStripRepository) BumpState(channelID uint, field string, value interface{}) error {
	return r.db.Model(&models.ChannelStrip{}).Where("id = ?", channelID).
		Updates(map[string]interface{}{
			field:           value,
			"state_version": gorm.Expr("state_version + 1"),
		}).Error
}

// SetVU writes ephemeral telemetry only; no version change.
func (r *ChannelStripRepository) SetVU(channelID uint, level int) error {
	return r.db.Model(&models.ChannelStrip{}).Where("id = ?", channelID).
		UpdateColumn("vu_level", level).Error
}

func (r *ChannelStripRepository) SetVUBulk(profileID uint, levels map[uint]int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for channelID, level := range levels {
			err := tx.Model(&models.ChannelStrip{}).
				Where("id = ? AND profile_id = ?", channelID, profileID).
				UpdateColumn("vu_level", level).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}
