package ws

import (
	"context"
	"log"
	"sync"
	"time"

	"room-chat-service/internal/models"
	"room-chat-service/internal/observability"
)

// Hub is the per-process registry of which connections currently sit in
// which room. It holds no authoritative state: it is rebuilt from scratch by
// reconnecting clients after a restart.
type Hub struct {
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// AddClient registers a connection in a room.
func (h *Hub) AddClient(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
}

// RemoveClient removes a connection from a room.
func (h *Hub) RemoveClient(roomID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.rooms[roomID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast sends an event to every connection registered in the room on
// this process. Connections that fail to take the write are dropped.
func (h *Hub) Broadcast(roomID string, event models.ServerEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(event); err != nil {
			log.Printf("websocket write error: %v", err)
			c.conn.Close()
			h.RemoveClient(roomID, c)
			h.publishWSError(roomID, c, err)
		}
	}
}

// RoomCount reports how many connections sit in a room locally.
func (h *Hub) RoomCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) publishWSError(roomID string, c *Client, err error) {
	_, username, _ := c.Identity()
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"room_id":     roomID,
			"event":       "ws_error",
			"conn_id":     c.Info.ConnID,
			"duration_ms": time.Since(c.Info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"username":  username,
			"device_id": c.Info.DeviceID,
			"ip":        c.Info.IP,
		},
	}

	headers := observability.BuildHeaders(c.Info.RequestID, c.Info.TraceID)
	_ = observability.PublishEvent(context.Background(), "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		RoomID:    roomID,
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("ws_error")
}
