package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

type Client struct {
	id          string
	hub         *Hub
	router      *EventRouter
	conn        *websocket.Conn
	send        chan []byte
	userID      uint
	displayName string
	profiles    map[uint]bool // rooms this connection has joined
	mu          sync.RWMutex

	// Connection state management
	ctx        context.Context
	cancel     context.CancelFunc
	closed     int32 // atomic flag to track if client is closed
	sendClosed int32 // atomic flag to track if send channel is closed

	wg sync.WaitGroup
}

func NewClient(hub *Hub, router *EventRouter, conn *websocket.Conn, userID uint, displayName string) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		id:          uuid.New().String(),
		hub:         hub,
		router:      router,
		conn:        conn,
		send:        make(chan []byte, 256),
		userID:      userID,
		displayName: displayName,
		profiles:    make(map[uint]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *Client) GetID() string {
	return c.id
}

func (c *Client) GetUserID() uint {
	return c.userID
}

// Profiles returns the rooms this connection has joined.
func (c *Client) Profiles() []uint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	profiles := make([]uint, 0, len(c.profiles))
	for profileID := range c.profiles {
		profiles = append(profiles, profileID)
	}
	return profiles
}

func (c *Client) AddProfile(profileID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profiles[profileID] = true
}

func (c *Client) RemoveProfile(profileID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.profiles, profileID)
}

func (c *Client) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

func (c *Client) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.cancel()
	}
}

func (c *Client) closeSendChannel() {
	if atomic.CompareAndSwapInt32(&c.sendClosed, 0, 1) {
		close(c.send)
	}
}

func (c *Client) readPump() {
	c.wg.Add(1)
	defer func() {
		c.wg.Done()
		c.close()

		select {
		case c.hub.unregister <- c:
		case <-time.After(5 * time.Second):
			slog.Warn("Timeout sending unregister request", "clientId", c.id, "userId", c.userID)
		}

		if err := c.conn.Close(); err != nil {
			slog.Debug("Error closing connection", "clientId", c.id, "error", err)
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		if c.isClosed() {
			return websocket.ErrCloseSent
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "clientId", c.id, "userId", c.userID, "error", err)
			} else {
				slog.Debug("WebSocket connection closed", "clientId", c.id, "userId", c.userID)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			slog.Debug("Failed to unmarshal message", "clientId", c.id, "error", err)
			c.sendError("INVALID_MESSAGE", "Invalid message format")
			continue
		}

		// The connection's authenticated identity always wins over
		// whatever the frame claims.
		msg.UserID = c.userID
		msg.Timestamp = time.Now().Unix()
		if msg.ID == "" {
			msg.ID = uuid.New().String()
		}

		// Events are handled here, one at a time per connection, so a
		// client's own actions apply in the order it sent them.
		c.router.Handle(c.ctx, c, &msg)
	}
}

func (c *Client) writePump() {
	c.wg.Add(1)
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		c.wg.Done()
		ticker.Stop()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if c.isClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}

			if _, err := w.Write(message); err != nil {
				w.Close()
				return
			}

			// Fold queued messages into the same WebSocket frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				select {
				case queuedMsg := <-c.send:
					w.Write([]byte{'\n'})
					w.Write(queuedMsg)
				default:
					i = n
				}
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			if c.isClosed() {
				return
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) SendMessage(message *Message) error {
	if c.isClosed() {
		return ErrClientDisconnected
	}

	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	case <-c.ctx.Done():
		return ErrClientDisconnected
	default:
		// Send buffer is full, cut the slow client loose
		slog.Warn("Send buffer full, closing client", "clientId", c.id, "userId", c.userID)
		c.close()
		return ErrClientDisconnected
	}
}

func (c *Client) sendError(code, message string) {
	c.SendMessage(NewErrorMessage(c.userID, code, message))
}

// ServeWS upgrades the request and starts the connection's pumps. Identity
// has already been established by the handshake layer.
func ServeWS(hub *Hub, router *EventRouter, w http.ResponseWriter, r *http.Request, userID uint, displayName string) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "userId", userID, "error", err)
		return
	}

	client := NewClient(hub, router, conn, userID, displayName)
	slog.Info("New WebSocket connection established", "clientId", client.id, "userId", userID)

	select {
	case hub.register <- client:
	case <-time.After(5 * time.Second):
		slog.Error("Timeout sending registration request", "clientId", client.id)
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
