package models

// EventType tags the closed set of variants carried over the fan-out bus.
type EventType string

const (
	EventMessage  EventType = "message"
	EventReceipt  EventType = "receipt"
	EventPresence EventType = "presence"
)

// RoomEvent is the envelope exchanged through the fan-out bus. Exactly one
// of the payload fields is set, selected by Type.
type RoomEvent struct {
	Type     EventType       `json:"type"`
	RoomID   string          `json:"room_id"`
	Origin   string          `json:"origin,omitempty"`
	Message  *Message        `json:"message,omitempty"`
	Receipt  *ReceiptUpdate  `json:"receipt,omitempty"`
	Presence *PresenceChange `json:"presence,omitempty"`
}

// ReceiptUpdate notifies room members that a recipient's delivery state for
// a message changed.
type ReceiptUpdate struct {
	MessageID string        `json:"message_id"`
	UserID    string        `json:"user_id"`
	Username  string        `json:"username"`
	Status    ReceiptStatus `json:"status"`
}

// PresenceChange notifies room members that a user joined or left.
type PresenceChange struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Left     bool   `json:"left"`
}

// ServerEvent is pushed to websocket clients.
type ServerEvent struct {
	Type     string          `json:"type"`
	RoomID   string          `json:"room_id,omitempty"`
	Message  *Message        `json:"message,omitempty"`
	Receipt  *ReceiptUpdate  `json:"receipt,omitempty"`
	Presence *PresenceChange `json:"presence,omitempty"`
	Pending  []Message       `json:"pending,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// Client-facing server event types.
const (
	ServerEventMessage = "message"
	ServerEventReceipt = "receipt"
	ServerEventJoined  = "user_joined"
	ServerEventLeft    = "user_left"
	ServerEventPending = "pending_messages"
	ServerEventError   = "error"
)
