package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */

// ActivationLink is a single-use invitation into a profile. It is valid while
// neither used nor canceled and not yet expired; redemption is the only
// mutation that sets UsedBy/UsedAt.
type ActivationLink struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ProfileID  uint       `gorm:"index;not null" json:"profileId"`
	Token      string     `gorm:"uniqueIndex;not null" json:"token"`
	Role       Role       `gorm:"type:varchar(20);not null" json:"role"`
	CreatedBy  uint       `gorm:"not null" json:"createdBy"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expiresAt"`
	UsedBy     *uint      `json:"usedBy"`
	UsedAt     *time.Time `json:"usedAt"`
	CanceledAt *time.Time `json:"canceledAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ValidAt reports whether the link can still be redeemed at the given time.
func (l *ActivationLink) ValidAt(now time.Time) bool {
	return l.UsedAt == nil && l.CanceledAt == nil && now.Before(l.ExpiresAt)
}

/** -------------------- DTOs -------------------- */

type CreateInvitationRequest struct {
	Role Role `json:"role"`
}

type RedeemInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

// InvitationResponse is an activation link joined with creator/redeemer
// display names for the config surface.
type InvitationResponse struct {
	ID           uint       `json:"id"`
	ProfileID    uint       `json:"profileId"`
	Token        string     `json:"token"`
	Role         Role       `json:"role"`
	CreatorName  string     `json:"creatorName"`
	RedeemerName *string    `json:"redeemerName,omitempty"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	UsedAt       *time.Time `json:"usedAt"`
	CanceledAt   *time.Time `json:"canceledAt"`
	CreatedAt    time.Time  `json:"createdAt"`
}
