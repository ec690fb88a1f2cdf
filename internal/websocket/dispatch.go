package websocket

import (
	"context"
	"encoding/json"
	"log/slog"

	"faderbank/internal/models"
	"faderbank/internal/rooms"
	"faderbank/internal/services"
	"faderbank/pkg/apperrors"
)

// EventRouter maps client frames onto the service layer. It runs inside
// each connection's read loop, so a single client's actions are applied in
// the order they arrived; cross-client ordering is settled by the services'
// locks. A bad frame gets an error event back and the connection lives on.
type EventRouter struct {
	hub      *Hub
	members  *services.MemberService
	channels *services.ChannelService
	resp     *services.ResponsibilityService
}

func NewEventRouter(
	hub *Hub,
	members *services.MemberService,
	channels *services.ChannelService,
	resp *services.ResponsibilityService,
) *EventRouter {
	return &EventRouter{
		hub:      hub,
		members:  members,
		channels: channels,
		resp:     resp,
	}
}

func (r *EventRouter) Handle(ctx context.Context, client *Client, msg *Message) {
	var err error

	switch msg.Event {
	case rooms.ActionJoin:
		err = r.handleJoin(ctx, client, msg.Data)
	case rooms.ActionLeave:
		err = r.handleLeave(ctx, client, msg.Data)
	case rooms.ActionFaderChange:
		err = r.handleFader(ctx, client, msg.Data)
	case rooms.ActionMuteToggle:
		err = r.handleMute(ctx, client, msg.Data)
	case rooms.ActionSoloToggle:
		err = r.handleSolo(ctx, client, msg.Data)
	case rooms.ActionVULevel:
		err = r.handleVU(ctx, client, msg.Data)
	case rooms.ActionTakeResponsibility:
		err = r.handleTake(ctx, client, msg.Data)
	case rooms.ActionDropResponsibility:
		err = r.handleDrop(ctx, client, msg.Data)
	default:
		client.sendError("UNKNOWN_EVENT", "Unknown event: "+msg.Event)
		return
	}

	if err != nil {
		slog.Debug("Client event rejected",
			"clientId", client.id, "userId", client.userID, "event", msg.Event, "error", err)
		client.sendError(string(apperrors.CodeOf(err)), err.Error())
	}
}

func decode(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return apperrors.Validation("event payload is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.Validation("malformed event payload")
	}
	return nil
}

// handleJoin checks membership, attaches the connection to the room and
// sends the joiner its private snapshot: who is here, the full channel
// state, and who holds responsibility.
func (r *EventRouter) handleJoin(ctx context.Context, client *Client, data json.RawMessage) error {
	var p JoinPayload
	if err := decode(data, &p); err != nil {
		return err
	}

	role, err := r.members.GetRole(ctx, p.ProfileID, client.userID)
	if err != nil {
		return err
	}
	if role == models.RoleNone {
		return apperrors.PermissionDenied("not a member of this profile")
	}

	strips, err := r.channels.List(ctx, p.ProfileID)
	if err != nil {
		return err
	}
	respState, err := r.resp.State(ctx, p.ProfileID)
	if err != nil {
		return err
	}

	roster := r.hub.JoinRoom(client, p.ProfileID)

	client.SendMessage(NewMessage(rooms.EventOnlineUsers, 0, map[string]interface{}{
		"profile_id": p.ProfileID,
		"users":      roster,
	}))
	client.SendMessage(NewMessage(rooms.EventChannelState, 0, map[string]interface{}{
		"profile_id": p.ProfileID,
		"channels":   strips,
	}))
	client.SendMessage(NewMessage(rooms.EventResponsibilityChanged, 0, map[string]interface{}{
		"profile_id":   p.ProfileID,
		"user_id":      respState.UserID,
		"display_name": respState.DisplayName,
	}))
	return nil
}

func (r *EventRouter) handleLeave(ctx context.Context, client *Client, data json.RawMessage) error {
	var p LeavePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	r.hub.LeaveRoom(client, p.ProfileID)
	return nil
}

// stripInRoom loads the strip and verifies the connection actually joined
// the room it belongs to. Authorization happens later in the service.
func (r *EventRouter) stripInRoom(ctx context.Context, client *Client, channelID uint) (*models.ChannelStrip, error) {
	strip, err := r.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !r.hub.InRoom(client, strip.ProfileID) {
		return nil, apperrors.PermissionDenied("join the profile room before sending state events")
	}
	return strip, nil
}

func (r *EventRouter) handleFader(ctx context.Context, client *Client, data json.RawMessage) error {
	var p FaderPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if _, err := r.stripInRoom(ctx, client, p.ChannelID); err != nil {
		return err
	}

	strip, clamped, err := r.channels.SetLevel(ctx, client.userID, p.ChannelID, p.Level)
	if err != nil {
		return err
	}

	r.hub.BroadcastToOthers(strip.ProfileID, client, rooms.EventFaderUpdate, map[string]interface{}{
		"channel_id":    strip.ID,
		"level":         clamped,
		"is_final":      p.IsFinal,
		"state_version": strip.StateVersion,
		"user_id":       client.userID,
	})
	return nil
}

func (r *EventRouter) handleMute(ctx context.Context, client *Client, data json.RawMessage) error {
	var p MutePayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if _, err := r.stripInRoom(ctx, client, p.ChannelID); err != nil {
		return err
	}

	strip, err := r.channels.SetMute(ctx, client.userID, p.ChannelID, p.Muted)
	if err != nil {
		return err
	}

	r.hub.BroadcastToOthers(strip.ProfileID, client, rooms.EventMuteUpdate, map[string]interface{}{
		"channel_id":    strip.ID,
		"muted":         strip.IsMuted,
		"state_version": strip.StateVersion,
		"user_id":       client.userID,
	})
	return nil
}

func (r *EventRouter) handleSolo(ctx context.Context, client *Client, data json.RawMessage) error {
	var p SoloPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if _, err := r.stripInRoom(ctx, client, p.ChannelID); err != nil {
		return err
	}

	strip, err := r.channels.SetSolo(ctx, client.userID, p.ChannelID, p.Solo)
	if err != nil {
		return err
	}

	r.hub.BroadcastToOthers(strip.ProfileID, client, rooms.EventSoloUpdate, map[string]interface{}{
		"channel_id":    strip.ID,
		"solo":          strip.IsSolo,
		"state_version": strip.StateVersion,
		"user_id":       client.userID,
	})
	return nil
}

// handleVU relays meter telemetry. No version, no permission gate, and the
// persisted value is advisory; late frames simply lose.
func (r *EventRouter) handleVU(ctx context.Context, client *Client, data json.RawMessage) error {
	var p VUPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if _, err := r.stripInRoom(ctx, client, p.ChannelID); err != nil {
		return err
	}

	strip, err := r.channels.SetVU(ctx, p.ChannelID, p.Level)
	if err != nil {
		return err
	}

	r.hub.BroadcastToOthers(strip.ProfileID, client, rooms.EventVUUpdate, map[string]interface{}{
		"channel_id": strip.ID,
		"level":      strip.VULevel,
	})
	return nil
}

func (r *EventRouter) handleTake(ctx context.Context, client *Client, data json.RawMessage) error {
	var p ResponsibilityPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	if !r.hub.InRoom(client, p.ProfileID) {
		return apperrors.PermissionDenied("join the profile room before taking responsibility")
	}

	outcome, state, err := r.resp.Take(ctx, p.ProfileID, client.userID, client.displayName, p.Force)
	if err != nil {
		return err
	}

	if outcome == services.TakeNeedsConfirm {
		// Only the requester learns someone else holds it; the room is
		// not disturbed until force resolves the standoff.
		client.SendMessage(NewMessage(rooms.EventConfirmTake, 0, map[string]interface{}{
			"profile_id":   p.ProfileID,
			"user_id":      state.UserID,
			"display_name": state.DisplayName,
		}))
	}
	// TakeGranted already broadcast responsibility_changed to the room;
	// taking what you already hold is a silent no-op.
	return nil
}

func (r *EventRouter) handleDrop(ctx context.Context, client *Client, data json.RawMessage) error {
	var p ResponsibilityPayload
	if err := decode(data, &p); err != nil {
		return err
	}
	return r.resp.Drop(ctx, p.ProfileID, client.userID)
}
