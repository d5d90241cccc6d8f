package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/squadup/squadup"
	"github.com/squadup/squadup/internal/domain"
)

// Client is the hub's view of a connection.
type Client interface {
	Key() string
	Identity() string
	IsStaff() bool
	Send(payload []byte) error
}

// Key returns the connection id.
func (c *Connection) Key() string { return c.ID }

func (c *Connection) Identity() string { return c.IdentityID }

func (c *Connection) IsStaff() bool { return c.Staff }

// Hub routes event envelopes to room members. Rooms are keyed by channel
// name: one per session, one per connected identity, and the staff room.
type Hub struct {
	mu          sync.RWMutex
	rooms       map[string]map[string]Client
	clientRooms map[string]map[string]struct{}
	clients     map[string]Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[string]Client),
		clientRooms: make(map[string]map[string]struct{}),
		clients:     make(map[string]Client),
	}
}

// Attach registers a connection and subscribes it to its private identity
// channel, plus the staff room for staff identities.
func (h *Hub) Attach(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.Key()] = c
	h.clientRooms[c.Key()] = make(map[string]struct{})

	h.joinLocked(c, squadup.IdentityChannel(c.Identity()))
	if c.IsStaff() {
		h.joinLocked(c, squadup.StaffChannel)
	}
}

// Detach releases every room membership held by the connection. Committed
// chat and reputation mutations are unaffected by a disconnect.
func (h *Hub) Detach(c Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c.Key())
}

// JoinSession subscribes the connection to a session's broadcast room.
func (h *Hub) JoinSession(c Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.Key()]; !ok {
		return
	}
	h.joinLocked(c, squadup.SessionChannel(sessionID))
}

// LeaveSession unsubscribes the connection from a session's room.
func (h *Hub) LeaveSession(c Client, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c.Key(), squadup.SessionChannel(sessionID))
}

// Dispatch delivers the envelope to every member of its channel. A
// session-closed envelope additionally evicts the room after delivery, so
// every member sees the closure before losing the subscription.
func (h *Hub) Dispatch(event squadup.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event",
			slog.String("error", err.Error()),
			slog.String("module", "realtime"),
		)
		return
	}

	h.mu.RLock()
	members := make([]Client, 0, len(h.rooms[event.Channel]))
	for _, member := range h.rooms[event.Channel] {
		members = append(members, member)
	}
	h.mu.RUnlock()

	for _, member := range members {
		if err := member.Send(payload); err != nil {
			h.Detach(member)
		}
	}

	if sessionClosed(event) {
		h.Evict(event.Channel)
	}
}

// Evict drops every membership of a room without closing the connections.
func (h *Hub) Evict(channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key := range h.rooms[channel] {
		h.leaveLocked(key, channel)
	}
	delete(h.rooms, channel)
}

// RoomSize reports current room membership, for the staff stats feed.
func (h *Hub) RoomSize(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}

func (h *Hub) joinLocked(c Client, channel string) {
	room, ok := h.rooms[channel]
	if !ok {
		room = make(map[string]Client)
		h.rooms[channel] = room
	}
	room[c.Key()] = c
	h.clientRooms[c.Key()][channel] = struct{}{}
}

func (h *Hub) leaveLocked(key, channel string) {
	if room, ok := h.rooms[channel]; ok {
		delete(room, key)
		if len(room) == 0 {
			delete(h.rooms, channel)
		}
	}
	if rooms, ok := h.clientRooms[key]; ok {
		delete(rooms, channel)
	}
}

func (h *Hub) detachLocked(key string) {
	for channel := range h.clientRooms[key] {
		if room, ok := h.rooms[channel]; ok {
			delete(room, key)
			if len(room) == 0 {
				delete(h.rooms, channel)
			}
		}
	}
	delete(h.clientRooms, key)
	delete(h.clients, key)
}

func sessionClosed(event squadup.Event) bool {
	if event.Kind != squadup.EventSessionState {
		return false
	}
	var payload squadup.SessionStatePayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return false
	}
	return payload.Status == string(domain.SessionClosed)
}
