package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */

// User mirrors the identity gateway's view of a user. The ID is the gateway's
// stable user identifier, never generated locally.
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

/** -------------------- DTOs -------------------- */

// Identity is what the gateway resolves a session credential to.
type Identity struct {
	UserID      uint   `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}
