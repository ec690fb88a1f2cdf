package models

import (
	"time"
)

/** --------------------ENTITIES-------------------- */

// ChannelStrip is one strip of the fader bank: level, mute, solo, color and
// MIDI mapping. StateVersion increments on every durable mutation of
// level/mute/solo and is the only ordering signal clients get. VULevel is
// ephemeral telemetry and never bumps the version.
type ChannelStrip struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProfileID uint `gorm:"index;not null;uniqueIndex:idx_profile_position,priority:1" json:"profileId"`

	Name     string `gorm:"not null" json:"name"`
	Position int    `gorm:"not null;uniqueIndex:idx_profile_position,priority:2" json:"position"`
	Color    string `gorm:"type:varchar(20);default:white" json:"color"`

	MIDICCOutput  int  `gorm:"column:midi_cc_output" json:"midiCcOutput"`
	MIDICCVUInput *int `gorm:"column:midi_cc_vu_input" json:"midiCcVuInput,omitempty"`
	MIDICCMute    *int `gorm:"column:midi_cc_mute" json:"midiCcMute,omitempty"`
	MIDICCSolo    *int `gorm:"column:midi_cc_solo" json:"midiCcSolo,omitempty"`

	MinLevel     int    `gorm:"default:0" json:"minLevel"`
	MaxLevel     int    `gorm:"default:127" json:"maxLevel"`
	CurrentLevel int    `gorm:"default:0" json:"currentLevel"`
	IsMuted      bool   `gorm:"default:false" json:"isMuted"`
	IsSolo       bool   `gorm:"default:false" json:"isSolo"`
	VULevel      int    `gorm:"column:vu_level;default:0" json:"vuLevel"`
	StateVersion uint64 `gorm:"default:0" json:"stateVersion"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ClampLevel pulls a requested level into the strip's configured range.
func (c *ChannelStrip) ClampLevel(level int) int {
	if level < c.MinLevel {
		return c.MinLevel
	}
	if level > c.MaxLevel {
		return c.MaxLevel
	}
	return level
}

/** -------------------- DTOs -------------------- */

type CreateChannelRequest struct {
	Name          string `json:"name"`
	Color         string `json:"color"`
	MIDICCOutput  *int   `json:"midiCcOutput,omitempty"`
	MIDICCVUInput *int   `json:"midiCcVuInput,omitempty"`
	MIDICCMute    *int   `json:"midiCcMute,omitempty"`
	MIDICCSolo    *int   `json:"midiCcSolo,omitempty"`
	MinLevel      *int   `json:"minLevel,omitempty"`
	MaxLevel      *int   `json:"maxLevel,omitempty"`
}

// ChannelStripUpdate is a sparse update: nil means "leave untouched", a set
// pointer means "write this value", including explicit clears for the
// nullable MIDI mappings.
type ChannelStripUpdate struct {
	Name          *string `json:"name,omitempty"`
	Color         *string `json:"color,omitempty"`
	MIDICCOutput  *int    `json:"midiCcOutput,omitempty"`
	MIDICCVUInput *int    `json:"midiCcVuInput,omitempty"`
	ClearVUInput  bool    `json:"clearVuInput,omitempty"`
	MIDICCMute    *int    `json:"midiCcMute,omitempty"`
	ClearMute     bool    `json:"clearMute,omitempty"`
	MIDICCSolo    *int    `json:"midiCcSolo,omitempty"`
	ClearSolo     bool    `json:"clearSolo,omitempty"`
	MinLevel      *int    `json:"minLevel,omitempty"`
	MaxLevel      *int    `json:"maxLevel,omitempty"`
}

// IsEmpty reports whether the update names no field at all.
func (u *ChannelStripUpdate) IsEmpty() bool {
	return u.Name == nil && u.Color == nil && u.MIDICCOutput == nil &&
		u.MIDICCVUInput == nil && !u.ClearVUInput &&
		u.MIDICCMute == nil && !u.ClearMute &&
		u.MIDICCSolo == nil && !u.ClearSolo &&
		u.MinLevel == nil && u.MaxLevel == nil
}

type ReorderChannelsRequest struct {
	Order []uint `json:"order" binding:"required"`
}
