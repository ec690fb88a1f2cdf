package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */

// Responsibility is the exclusive-control token for a profile. A nil UserID
// means unclaimed. There is exactly one row per profile, created with the
// profile itself.
type Responsibility struct {
	ProfileID uint       `gorm:"primaryKey;autoIncrement:false" json:"profileId"`
	UserID    *uint      `json:"userId"`
	TakenAt   *time.Time `json:"takenAt"`
}

// HeldBy reports whether userID currently holds responsibility.
func (r *Responsibility) HeldBy(userID uint) bool {
	return r.UserID != nil && *r.UserID == userID
}

// Claimed reports whether anyone holds responsibility.
func (r *Responsibility) Claimed() bool {
	return r.UserID != nil
}

/** -------------------- DTOs -------------------- */

// ResponsibilityState is the holder as broadcast to a room; both fields are
// null when unclaimed.
type ResponsibilityState struct {
	UserID      *uint   `json:"user_id"`
	DisplayName *string `json:"display_name"`
}
