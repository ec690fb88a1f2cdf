package postgres

import (
	"errors"

	"faderbank/internal/models"

	"gorm.io/gorm"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db}
}

func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return &MemberRepository{tx}
}

func (r *MemberRepository) Add(member *models.Member) error {
	return r.db.Create(member).Error
}

// GetRole returns the user's role in the profile, RoleNone for non-members.
func (r *MemberRepository) GetRole(profileID, userID uint) (models.Role, error) {
	var m models.Member
	err := r.db.Where("profile_id = ? AND user_id = ?", profileID, userID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return m.Role, nil
}

func (r *MemberRepository) UpdateRole(profileID, userID uint, role models.Role) error {
	return r.db.Model(&models.Member{}).
		Where("profile_id = ? AND user_id = ?", profileID, userID).
		Update("role", role).Error
}

func (r *MemberRepository) Remove(profileID, userID uint) error {
	return r.db.Where("profile_id = ? AND user_id = ?", profileID, userID).
		Delete(&models.Member{}).Error
}

// List returns the profile's members joined with user display fields, owner
// first, then by display name.
func (r *MemberRepository) List(profileID uint) ([]models.MemberResponse, error) {
	var members []models.MemberResponse
	err := r.db.Table("members").
		Select("members.profile_id, members.user_id, members.role, users.username, users.display_name").
		Joins("JOIN users ON users.id = members.user_id").
		Where("members.profile_id = ?", profileID).
		Order(`CASE members.role
			WHEN 'owner' THEN 0
			WHEN 'admin' THEN 1
			WHEN 'technician' THEN 2
			WHEN 'operator' THEN 3
			ELSE 4 END, users.display_name`).
		Scan(&members).Error
	return members, err
}
