package ws

import (
	"errors"
	"testing"

	"room-chat-service/internal/models"
)

type fakeConn struct {
	events []models.ServerEvent
	err    error
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	if f.err != nil {
		return f.err
	}
	event, ok := v.(models.ServerEvent)
	if !ok {
		return errors.New("unexpected payload type")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func newTestClient() (*Client, *fakeConn) {
	conn := &fakeConn{}
	return NewClient(conn, ConnInfo{ConnID: "test-conn"}), conn
}

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()
	client, _ := newTestClient()

	hub.AddClient("r1", client)
	if hub.RoomCount("r1") != 1 {
		t.Fatalf("expected room to hold one client")
	}

	hub.RemoveClient("r1", client)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty room to be dropped")
	}
}

func TestHubBroadcastReachesRoomOnly(t *testing.T) {
	hub := NewHub()
	inRoom, inRoomConn := newTestClient()
	other, otherConn := newTestClient()

	hub.AddClient("r1", inRoom)
	hub.AddClient("r2", other)

	hub.Broadcast("r1", models.ServerEvent{Type: models.ServerEventMessage, RoomID: "r1"})

	if len(inRoomConn.events) != 1 {
		t.Fatalf("expected one event, got %d", len(inRoomConn.events))
	}
	if len(otherConn.events) != 0 {
		t.Fatalf("expected no events for other room, got %d", len(otherConn.events))
	}
}

func TestHubBroadcastDropsFailingClient(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{err: errors.New("write failed")}
	broken := NewClient(conn, ConnInfo{ConnID: "broken"})

	hub.AddClient("r1", broken)
	hub.Broadcast("r1", models.ServerEvent{Type: models.ServerEventMessage, RoomID: "r1"})

	if hub.RoomCount("r1") != 0 {
		t.Fatalf("expected failing client to be removed")
	}
	if !conn.closed {
		t.Fatalf("expected failing connection to be closed")
	}
}
