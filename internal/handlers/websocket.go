package handlers

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event types sent over WebSocket
const (
	EventHabitCreated = "habit_created"
	EventHabitUpdated = "habit_updated"
	EventHabitDeleted = "habit_deleted"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 16
)

// HabitEvent is the JSON message sent to connected clients
type HabitEvent struct {
	Type    string      `json:"type"`
	OwnerID string      `json:"ownerId"`
	HabitID string      `json:"habitId"`
	Data    interface{} `json:"data,omitempty"`
}

// subscriber is the part of *websocket.Conn the hub uses.
type subscriber interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client owns one connection. Only its write loop touches the connection,
// and it closes the connection on the way out.
type client struct {
	conn    subscriber
	send    chan []byte
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub fans habit changes out to WebSocket clients, one room per owner.
// Broadcast never waits on a socket: a client whose queue is full is dropped.
// A nil *Hub drops every event.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]bool // ownerID -> set of clients
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*client]bool),
		log:   log,
	}
}

// register adds sub to the owner's room and starts its write loop.
func (h *Hub) register(ownerID uuid.UUID, sub subscriber) *client {
	c := &client{
		conn:    sub,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	h.mu.Lock()
	if h.rooms[ownerID] == nil {
		h.rooms[ownerID] = make(map[*client]bool)
	}
	h.rooms[ownerID][c] = true
	total := len(h.rooms[ownerID])
	h.mu.Unlock()

	h.log.Debug("ws register", zap.Stringer("ownerId", ownerID), zap.Int("total", total))
	go h.writeLoop(ownerID, c)
	return c
}

// unregister removes c from the room and stops its write loop. Safe to call
// more than once.
func (h *Hub) unregister(ownerID uuid.UUID, c *client) {
	h.mu.Lock()
	if subs, ok := h.rooms[ownerID]; ok && subs[c] {
		delete(subs, c)
		h.log.Debug("ws unregister", zap.Stringer("ownerId", ownerID), zap.Int("remaining", len(subs)))
		if len(subs) == 0 {
			delete(h.rooms, ownerID)
		}
	}
	h.mu.Unlock()
	c.stop()
}

func (h *Hub) writeLoop(ownerID uuid.UUID, c *client) {
	defer close(c.stopped)
	defer func() {
		if err := c.conn.Close(); err != nil {
			h.log.Debug("ws close", zap.Stringer("ownerId", ownerID), zap.Error(err))
		}
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			err := c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err == nil {
				err = c.conn.WriteMessage(websocket.TextMessage, msg)
			}
			if err != nil {
				h.log.Warn("ws write failed, dropping client", zap.Stringer("ownerId", ownerID), zap.Error(err))
				h.unregister(ownerID, c)
				return
			}
		}
	}
}

// Subscribers reports how many connections listen to ownerID.
func (h *Hub) Subscribers(ownerID uuid.UUID) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ownerID])
}

// Broadcast queues an event for every client in the owner's room.
func (h *Hub) Broadcast(ownerID uuid.UUID, event HabitEvent) {
	if h == nil {
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[ownerID]))
	for c := range h.rooms[ownerID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("ws broadcast marshal", zap.Error(err))
		return
	}

	for _, c := range clients {
		select {
		case c.send <- data:
		case <-c.done:
		default:
			h.log.Warn("ws client too slow, dropping", zap.Stringer("ownerId", ownerID))
			h.unregister(ownerID, c)
		}
	}
}

// Upgrade rejects plain HTTP requests on the WebSocket routes.
func (h *Hub) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handle serves /ws/habits/:ownerId until the client goes away.
func (h *Hub) Handle(conn *websocket.Conn) {
	ownerID, err := uuid.Parse(conn.Params("ownerId"))
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "invalid owner id")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
			h.log.Debug("ws reject", zap.Error(err))
		}
		if err := conn.Close(); err != nil {
			h.log.Debug("ws close", zap.Error(err))
		}
		return
	}

	c := h.register(ownerID, conn)
	defer func() {
		h.unregister(ownerID, c)
		// The connection is recycled once Handle returns.
		<-c.stopped
	}()

	// Incoming messages are ignored; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
