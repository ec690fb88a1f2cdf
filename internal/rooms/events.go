// Package rooms defines the room broadcast contract shared by the websocket
// hub and the request/response surface, so both access paths emit the same
// events to the same audiences.
package rooms

// Server→client event names.
const (
	EventOnlineUsers           = "online_users"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventChannelState          = "channel_state"
	EventChannelAdded          = "channel_added"
	EventChannelUpdated        = "channel_updated"
	EventChannelDeleted        = "channel_deleted"
	EventChannelsReordered     = "channels_reordered"
	EventMemberUpdated         = "member_updated"
	EventMemberRemoved         = "member_removed"
	EventResponsibilityChanged = "responsibility_changed"
	EventConfirmTake           = "confirm_take_responsibility"
	EventFaderUpdate           = "fader_update"
	EventMuteUpdate            = "mute_update"
	EventSoloUpdate            = "solo_update"
	EventVUUpdate              = "vu_update"
	EventError                 = "error"
)

// Client→server event names.
const (
	ActionJoin               = "join"
	ActionLeave              = "leave"
	ActionFaderChange        = "fader_change"
	ActionMuteToggle         = "mute_toggle"
	ActionSoloToggle         = "solo_toggle"
	ActionVULevel            = "vu_level"
	ActionTakeResponsibility = "take_responsibility"
	ActionDropResponsibility = "drop_responsibility"
)

// Broadcaster fans an event out to every live connection in a profile's
// room. Administrative actions taken over plain HTTP go through the same
// interface, so socket and non-socket paths stay consistent.
type Broadcaster interface {
	BroadcastToProfile(profileID uint, event string, payload interface{})
}

// NopBroadcaster is used where no live room exists (tests, tooling).
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastToProfile(uint, string, interface{}) {}
