package postgres

import (
	"time"

	"faderbank/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) FindByID(userID uint) (*models.User, error) {
	var u models.User
	err := r.db.First(&u, userID).Error
	return &u, err
}

// Upsert syncs the gateway's view of a user into the local table, refreshing
// the display fields and last-active timestamp.
func (r *UserRepository) Upsert(ident *models.Identity) error {
	now := time.Now()
	user := models.User{
		ID:           ident.UserID,
		Username:     ident.Username,
		DisplayName:  ident.DisplayName,
		LastActiveAt: now,
		CreatedAt:    now,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"username":       ident.Username,
			"display_name":   ident.DisplayName,
			"last_active_at": now,
		}),
	}).Create(&user).Error
}
