package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"faderbank/internal/rooms"
)

// Message is the wire envelope for every frame in either direction. Event
// names come from the rooms package so the HTTP surface and the hub agree.
type Message struct {
	ID        string          `json:"id,omitempty"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
	UserID    uint            `json:"user_id,omitempty"`
}

// NewMessage marshals payload into the envelope. Marshal failures collapse
// to an empty data object rather than dropping the frame.
func NewMessage(event string, userID uint, payload interface{}) *Message {
	var data json.RawMessage
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			data = b
		}
	}
	return &Message{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
	}
}

func NewErrorMessage(userID uint, code, message string) *Message {
	return NewMessage(rooms.EventError, userID, map[string]interface{}{
		"code":    code,
		"message": message,
	})
}

// Client→server payloads. Profile and channel IDs are always explicit so a
// single connection can sit in several rooms at once.

type JoinPayload struct {
	ProfileID uint `json:"profile_id" binding:"required"`
}

type LeavePayload struct {
	ProfileID uint `json:"profile_id" binding:"required"`
}

type FaderPayload struct {
	ChannelID uint `json:"channel_id" binding:"required"`
	Level     int  `json:"level"`
	IsFinal   bool `json:"is_final"`
}

type MutePayload struct {
	ChannelID uint `json:"channel_id" binding:"required"`
	Muted     bool `json:"muted"`
}

type SoloPayload struct {
	ChannelID uint `json:"channel_id" binding:"required"`
	Solo      bool `json:"solo"`
}

type VUPayload struct {
	ChannelID uint `json:"channel_id" binding:"required"`
	Level     int  `json:"level"`
}

type ResponsibilityPayload struct {
	ProfileID uint `json:"profile_id" binding:"required"`
	Force     bool `json:"force"`
}
