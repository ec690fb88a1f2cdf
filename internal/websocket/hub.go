package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"faderbank/internal/journal"
	"faderbank/internal/rooms"
	"faderbank/internal/services"
)

var ErrClientDisconnected = fmt.Errorf("client disconnected")

// Hub owns the live connection set and the per-profile rooms. Connection
// lifecycle runs through the register/unregister channels in Run; room
// membership and fan-out take h.mu so request handlers can broadcast
// without going through the loop.
//
// Hub implements rooms.Broadcaster for the service layer.
type Hub struct {
	mu sync.RWMutex

	// Registered clients
	clients map[*Client]bool

	// Live rooms keyed by profile ID
	rooms map[uint]*Room

	// Register requests from new connections
	register chan *Client

	// Unregister requests from closing connections
	unregister chan *Client

	// Responsibility arbiter, for the implicit drop on disconnect. Set
	// via AttachResponsibility after the services are built, since they
	// need the hub as their broadcaster first.
	resp *services.ResponsibilityService

	// Redis advisory presence mirror
	redisService *services.RedisService

	// Optional admin-event journal, nil when unconfigured
	journal *journal.Journal

	// Context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(redisService *services.RedisService, jrnl *journal.Journal) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:      make(map[*Client]bool),
		rooms:        make(map[uint]*Room),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		redisService: redisService,
		journal:      jrnl,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// AttachResponsibility closes the construction cycle between the hub and
// the arbiter. Must be called before Run.
func (h *Hub) AttachResponsibility(resp *services.ResponsibilityService) {
	h.resp = resp
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case <-h.ctx.Done():
			slog.Info("WebSocket hub shutting down")
			return
		}
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	slog.Info("Client registered", "clientId", client.id, "userId", client.userID)

	if err := h.redisService.SetUserOnline(h.ctx, client.userID); err != nil {
		slog.Error("Failed to set user online", "userId", client.userID, "error", err)
	}
}

// unregisterClient tears the connection out of every room it joined, with
// the same side effects as an explicit leave for each.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	if !h.clients[client] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	h.mu.Unlock()

	for _, profileID := range client.Profiles() {
		h.LeaveRoom(client, profileID)
	}
	client.closeSendChannel()

	slog.Info("Client unregistered", "clientId", client.id, "userId", client.userID)

	if err := h.redisService.SetUserOffline(h.ctx, client.userID); err != nil {
		slog.Error("Failed to set user offline", "userId", client.userID, "error", err)
	}
}

// JoinRoom attaches the client to a profile's room and announces it to the
// rest of the room. The caller has already checked membership. Returns the
// roster including the new connection, for the joiner's private snapshot.
func (h *Hub) JoinRoom(client *Client, profileID uint) []PresenceEntry {
	h.mu.Lock()
	room := h.rooms[profileID]
	if room == nil {
		room = newRoom(profileID)
		h.rooms[profileID] = room
	}
	alreadyIn := room.has(client)
	room.add(client)
	roster := room.roster()
	h.mu.Unlock()

	client.AddProfile(profileID)

	if !alreadyIn {
		h.broadcast(profileID, client, rooms.EventUserJoined, PresenceEntry{
			UserID:      client.userID,
			DisplayName: client.displayName,
			ConnID:      client.id,
		})
	}
	return roster
}

// LeaveRoom detaches the client and announces the departure. When this was
// the user's last connection in the room, responsibility is dropped if the
// user held it.
func (h *Hub) LeaveRoom(client *Client, profileID uint) {
	h.mu.Lock()
	room := h.rooms[profileID]
	if room == nil || !room.has(client) {
		h.mu.Unlock()
		return
	}
	room.remove(client)
	lastOfUser := true
	for other := range room.clients {
		if other.userID == client.userID {
			lastOfUser = false
			break
		}
	}
	if room.empty() {
		delete(h.rooms, profileID)
	}
	h.mu.Unlock()

	client.RemoveProfile(profileID)

	h.broadcast(profileID, client, rooms.EventUserLeft, PresenceEntry{
		UserID:      client.userID,
		DisplayName: client.displayName,
		ConnID:      client.id,
	})

	if lastOfUser && h.resp != nil {
		h.resp.DropIfHolder(h.ctx, profileID, client.userID)
	}
}

// InRoom reports whether the connection currently sits in the profile's
// room. State events from connections that never joined are rejected.
func (h *Hub) InRoom(client *Client, profileID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[profileID]
	return room != nil && room.has(client)
}

// Roster returns the current presence list for a profile's room.
func (h *Hub) Roster(profileID uint) []PresenceEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[profileID]
	if room == nil {
		return []PresenceEntry{}
	}
	return room.roster()
}

// BroadcastToProfile sends an event to every connection in the room and
// records it in the journal. This is the path for durable room events
// (channel edits, membership, responsibility); presence and telemetry use
// the internal variants and are not journaled.
func (h *Hub) BroadcastToProfile(profileID uint, event string, payload interface{}) {
	h.broadcast(profileID, nil, event, payload)
	if event != rooms.EventVUUpdate {
		h.journal.Record(h.ctx, profileID, event, payload)
	}
}

// BroadcastToOthers sends a state event to everyone in the room except the
// originating connection, which already applied the change locally.
func (h *Hub) BroadcastToOthers(profileID uint, sender *Client, event string, payload interface{}) {
	h.broadcast(profileID, sender, event, payload)
}

func (h *Hub) broadcast(profileID uint, exclude *Client, event string, payload interface{}) {
	h.mu.RLock()
	room := h.rooms[profileID]
	if room == nil {
		h.mu.RUnlock()
		return
	}
	targets := room.snapshot()
	h.mu.RUnlock()

	msg := NewMessage(event, 0, payload)
	for _, client := range targets {
		if client == exclude {
			continue
		}
		if err := client.SendMessage(msg); err != nil {
			slog.Debug("Dropping undeliverable client", "clientId", client.id, "event", event)
		}
	}
}
