package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */

// Profile is a named fader bank. Deleting a profile cascades to its members,
// channel strips, responsibility record and activation links.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	OwnerID   uint      `gorm:"not null" json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Members []Member `gorm:"constraint:OnDelete:CASCADE" json:"members,omitempty"`
}

// Member links a user to a profile with a role. Exactly one member per profile
// carries RoleOwner, and its UserID equals the profile's OwnerID.
type Member struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProfileID uint      `gorm:"uniqueIndex:idx_profile_user;not null" json:"profileId"`
	UserID    uint      `gorm:"uniqueIndex:idx_profile_user;not null" json:"userId"`
	Role      Role      `gorm:"type:varchar(20);not null" json:"role"`
	AddedBy   uint      `json:"addedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */

type CreateProfileRequest struct {
	Name string `json:"name" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

// UpdateProfileRequest carries only the fields the caller explicitly set.
type UpdateProfileRequest struct {
	Name *string `json:"name,omitempty"`
	Slug *string `json:"slug,omitempty"`
}

type TransferOwnershipRequest struct {
	NewOwnerID uint `json:"newOwnerId" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role Role `json:"role" binding:"required"`
}

// ProfileSummary is a profile as seen in a user's profile list, annotated with
// the user's own role.
type ProfileSummary struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	OwnerID uint   `json:"ownerId"`
	Role    Role   `json:"role"`
}

// MemberResponse is a member joined with the user's display fields.
type MemberResponse struct {
	ProfileID   uint   `json:"profileId"`
	UserID      uint   `json:"userId"`
	Role        Role   `json:"role"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}
