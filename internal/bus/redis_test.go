package bus

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-chat-service/internal/models"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisBusRoundTrip(t *testing.T) {
	client := newTestRedis(t)
	roomID := uuid.NewString()

	received := make(chan models.RoomEvent, 1)
	subscriber := NewRedisBus(client)
	defer subscriber.Close()
	subscriber.Start(func(event models.RoomEvent) {
		received <- event
	})
	subscriber.Subscribe(roomID)
	time.Sleep(100 * time.Millisecond)

	publisher := NewRedisBus(client)
	defer publisher.Close()
	publisher.Start(func(models.RoomEvent) {})

	msg := models.Message{ID: "m1", RoomID: roomID, Text: "hello"}
	require.NoError(t, publisher.Publish(context.Background(), roomID, models.RoomEvent{
		Type:    models.EventMessage,
		Message: &msg,
	}))

	select {
	case event := <-received:
		assert.Equal(t, models.EventMessage, event.Type)
		assert.Equal(t, roomID, event.RoomID)
		assert.Equal(t, publisher.Origin(), event.Origin)
		require.NotNil(t, event.Message)
		assert.Equal(t, "hello", event.Message.Text)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for bus event")
	}
}

func TestRedisBusSubscribeTwiceDeliversOnce(t *testing.T) {
	client := newTestRedis(t)
	roomID := uuid.NewString()

	received := make(chan models.RoomEvent, 4)
	subscriber := NewRedisBus(client)
	defer subscriber.Close()
	subscriber.Start(func(event models.RoomEvent) {
		received <- event
	})
	subscriber.Subscribe(roomID)
	subscriber.Subscribe(roomID)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, subscriber.Publish(context.Background(), roomID, models.RoomEvent{
		Type:     models.EventPresence,
		Presence: &models.PresenceChange{UserID: "u1", Username: "alice"},
	}))

	select {
	case <-received:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for bus event")
	}

	select {
	case event := <-received:
		t.Fatalf("expected a single delivery, got extra event of type %s", event.Type)
	case <-time.After(300 * time.Millisecond):
	}
}
