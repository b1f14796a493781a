package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"room-chat-service/internal/models"
	"room-chat-service/internal/observability"
)

// RedisBus fans events out across processes over Redis pub/sub, one channel
// per room.
type RedisBus struct {
	client  *redis.Client
	pubsub  *redis.PubSub
	handler Handler
	origin  string

	mu         sync.Mutex
	subscribed map[string]bool
}

// NewRedisBus connects the subscriber side. Start must be called before
// events are delivered.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{
		client:     client,
		pubsub:     client.Subscribe(context.Background()),
		origin:     uuid.NewString(),
		subscribed: make(map[string]bool),
	}
}

// Start begins the receive loop. The handler is invoked from a single
// goroutine, in per-channel publish order.
func (b *RedisBus) Start(handler Handler) {
	b.handler = handler
	go b.receive()
}

// Origin identifies this process in events it publishes.
func (b *RedisBus) Origin() string {
	return b.origin
}

// Publish broadcasts the event to every process subscribed to the room's
// channel, including this one.
func (b *RedisBus) Publish(ctx context.Context, roomID string, event models.RoomEvent) error {
	event.RoomID = roomID
	event.Origin = b.origin

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, channelName(roomID), payload).Err(); err != nil {
		log.Printf("bus publish failed room=%s: %v", roomID, err)
		return err
	}
	observability.IncBusPublished(string(event.Type))
	return nil
}

// Subscribe registers this process for the room's channel. Subscribing
// twice is harmless; there is no unsubscribe on leave.
func (b *RedisBus) Subscribe(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subscribed[roomID] {
		return
	}
	if err := b.pubsub.Subscribe(context.Background(), channelName(roomID)); err != nil {
		log.Printf("bus subscribe failed room=%s: %v", roomID, err)
		return
	}
	b.subscribed[roomID] = true
}

// Close tears down the subscriber connection.
func (b *RedisBus) Close() error {
	return b.pubsub.Close()
}

func (b *RedisBus) receive() {
	for msg := range b.pubsub.Channel() {
		var event models.RoomEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			log.Printf("bus decode failed channel=%s: %v", msg.Channel, err)
			continue
		}
		observability.IncBusReceived(string(event.Type))
		b.handler(event)
	}
}

func channelName(roomID string) string {
	return "room:" + roomID
}
