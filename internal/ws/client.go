package ws

import (
	"sync"

	"room-chat-service/internal/models"
)

// eventWriter is the write half of a websocket connection.
// *websocket.Conn satisfies it.
type eventWriter interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one live connection and its session state. A client starts
// anonymous and becomes identified on its first successful join_room.
type Client struct {
	conn eventWriter
	Info ConnInfo

	mu       sync.Mutex
	userID   string
	username string
	rooms    map[string]bool
}

// NewClient wraps a connection. The zero session is anonymous with no rooms.
func NewClient(conn eventWriter, info ConnInfo) *Client {
	return &Client{conn: conn, Info: info, rooms: make(map[string]bool)}
}

// Send pushes one event to this connection. Writes are serialized; gorilla
// permits a single concurrent writer per connection.
func (c *Client) Send(event models.ServerEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

// SendError emits a scoped error event to this connection only.
func (c *Client) SendError(roomID, msg string) {
	_ = c.Send(models.ServerEvent{Type: models.ServerEventError, RoomID: roomID, Error: msg})
}

// Identify binds the connection to a user after the resolver accepted the
// username. Calling it again with the same identity is a no-op.
func (c *Client) Identify(userID, username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
	c.username = username
}

// Identity returns the bound user, if any.
func (c *Client) Identity() (userID, username string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.username, c.userID != ""
}

// AddRoom records a joined room in the session.
func (c *Client) AddRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = true
}

// RemoveRoom forgets a room.
func (c *Client) RemoveRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

// Rooms lists the rooms this session has joined.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for roomID := range c.rooms {
		out = append(out, roomID)
	}
	return out
}
