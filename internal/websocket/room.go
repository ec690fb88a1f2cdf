package websocket

import "sort"

// PresenceEntry is one live connection inside a room as reported to
// clients. The same user appears once per connection.
type PresenceEntry struct {
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	ConnID      string `json:"conn_id"`
}

// Room is the set of live connections attached to one profile. Rooms are
// owned by the hub and must only be touched with the hub's lock held.
type Room struct {
	profileID uint
	clients   map[*Client]bool
}

func newRoom(profileID uint) *Room {
	return &Room{
		profileID: profileID,
		clients:   make(map[*Client]bool),
	}
}

func (r *Room) add(client *Client) {
	r.clients[client] = true
}

func (r *Room) remove(client *Client) {
	delete(r.clients, client)
}

func (r *Room) has(client *Client) bool {
	return r.clients[client]
}

func (r *Room) empty() bool {
	return len(r.clients) == 0
}

// roster returns the presence list in a stable order so repeated snapshots
// compare equal for an unchanged room.
func (r *Room) roster() []PresenceEntry {
	entries := make([]PresenceEntry, 0, len(r.clients))
	for client := range r.clients {
		entries = append(entries, PresenceEntry{
			UserID:      client.userID,
			DisplayName: client.displayName,
			ConnID:      client.id,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].UserID != entries[j].UserID {
			return entries[i].UserID < entries[j].UserID
		}
		return entries[i].ConnID < entries[j].ConnID
	})
	return entries
}

// snapshot copies the member set out so callers can fan out without
// holding the hub lock during sends.
func (r *Room) snapshot() []*Client {
	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}
