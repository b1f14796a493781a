package bus

import (
	"context"

	"room-chat-service/internal/models"
)

// Handler receives every event published to a room channel this process is
// subscribed to, including events this process published itself.
type Handler func(event models.RoomEvent)

// Bus is the best-effort fan-out primitive between server processes. It is
// not durable: a process that is down at publish time never sees the event.
// Durability comes from the ledger and the unread-replay query.
type Bus interface {
	Publish(ctx context.Context, roomID string, event models.RoomEvent) error
	Subscribe(roomID string)
	Close() error
}
