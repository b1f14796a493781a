package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"room-chat-service/internal/bus"
	"room-chat-service/internal/models"
	"room-chat-service/internal/observability"
	"room-chat-service/internal/repositories"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientEvent is an inbound frame from a websocket client.
type ClientEvent struct {
	Type      string `json:"type"`
	Username  string `json:"username,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	Text      string `json:"text,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// Inbound client event types.
const (
	ClientEventJoinRoom      = "join_room"
	ClientEventMessage       = "message"
	ClientEventLeaveRoom     = "leave_room"
	ClientEventMarkDelivered = "mark_delivered"
	ClientEventMarkRead      = "mark_read"
)

// Gateway binds live connections to users and rooms, forwards inbound
// events to the stores, and pushes outbound events. Store failures never
// crash the process and are surfaced only to the connection that triggered
// them.
type Gateway struct {
	hub      *Hub
	bus      bus.Bus
	users    repositories.UserRepository
	rooms    repositories.RoomRepository
	members  repositories.MembershipRepository
	messages repositories.MessageRepository
	receipts repositories.ReceiptRepository
}

// NewGateway constructs a Gateway.
func NewGateway(hub *Hub, eventBus bus.Bus, users repositories.UserRepository, rooms repositories.RoomRepository, members repositories.MembershipRepository, messages repositories.MessageRepository, receipts repositories.ReceiptRepository) *Gateway {
	return &Gateway{
		hub:      hub,
		bus:      eventBus,
		users:    users,
		rooms:    rooms,
		members:  members,
		messages: messages,
		receipts: receipts,
	}
}

// Handle upgrades the connection and starts the session read loop.
// Identification happens later, via the first join_room event.
func (g *Gateway) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("room-chat-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := NewClient(conn, info)

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	g.publishConnEvent(ctx, client, "ws_connect", "")

	// The request context is canceled by net/http once this handler returns,
	// but the connection lives on. Detach the loop's context so store calls
	// made for later frames keep working, while trace values carry forward.
	go g.readLoop(context.WithoutCancel(ctx), conn, client)
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, client *Client) {
	var closeReason string
	defer func() {
		for _, roomID := range client.Rooms() {
			g.hub.RemoveClient(roomID, client)
		}
		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		g.publishConnEvent(ctx, client, "ws_disconnect", closeReason)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				observability.IncWSEvent("ws_error")
			}
			return
		}

		var event ClientEvent
		if err := json.Unmarshal(data, &event); err != nil {
			client.SendError("", "malformed event")
			continue
		}
		g.Dispatch(ctx, client, event)
	}
}

// Dispatch routes one inbound event. Handlers for the same connection run
// in arrival order; connections interleave freely.
func (g *Gateway) Dispatch(ctx context.Context, client *Client, event ClientEvent) {
	switch event.Type {
	case ClientEventJoinRoom:
		g.joinRoom(ctx, client, event.Username, event.RoomID)
	case ClientEventMessage:
		g.sendMessage(ctx, client, event.RoomID, event.Text)
	case ClientEventLeaveRoom:
		g.leaveRoom(ctx, client, event.RoomID)
	case ClientEventMarkDelivered:
		g.markReceipt(ctx, client, event.MessageID, models.ReceiptDelivered)
	case ClientEventMarkRead:
		g.markReceipt(ctx, client, event.MessageID, models.ReceiptRead)
	default:
		client.SendError("", "unknown event type")
	}
}

func (g *Gateway) joinRoom(ctx context.Context, client *Client, username, roomID string) {
	if username == "" || roomID == "" {
		client.SendError(roomID, "username and room_id are required")
		return
	}

	user, err := g.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			client.SendError(roomID, "user not found")
		} else {
			client.SendError(roomID, "failed to join room")
		}
		return
	}

	room, err := g.rooms.GetRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			client.SendError(roomID, "room not found")
		} else {
			client.SendError(roomID, "failed to join room")
		}
		return
	}

	// Private rooms are joined through the REST endpoint, which checks the
	// access code. Over the socket they only admit existing members.
	if room.IsPrivate {
		member, err := g.members.IsMember(ctx, user.ID, roomID)
		if err != nil {
			client.SendError(roomID, "failed to join room")
			return
		}
		if !member {
			client.SendError(roomID, "room is private")
			return
		}
	}

	if err := g.members.AddMember(ctx, user.ID, roomID); err != nil {
		client.SendError(roomID, "failed to join room")
		return
	}

	client.Identify(user.ID, user.Username)
	client.AddRoom(roomID)
	g.hub.AddClient(roomID, client)
	g.bus.Subscribe(roomID)

	g.publish(ctx, roomID, models.RoomEvent{
		Type:     models.EventPresence,
		Presence: &models.PresenceChange{UserID: user.ID, Username: user.Username},
	})

	g.syncUnread(ctx, client, user, roomID)
}

// syncUnread runs the offline-sync protocol: replay unread messages to the
// joining connection only, then acknowledge each as delivered so the
// senders' connections learn of delivery wherever they are.
func (g *Gateway) syncUnread(ctx context.Context, client *Client, user models.User, roomID string) {
	pending, err := g.receipts.ListUnread(ctx, user.ID, roomID)
	if err != nil {
		client.SendError(roomID, "failed to load pending messages")
		return
	}
	if len(pending) == 0 {
		return
	}

	if err := client.Send(models.ServerEvent{Type: models.ServerEventPending, RoomID: roomID, Pending: pending}); err != nil {
		return
	}

	for _, msg := range pending {
		if err := g.receipts.Upsert(ctx, msg.ID, user.ID, models.ReceiptDelivered); err != nil {
			log.Printf("receipt upsert failed message=%s user=%s: %v", msg.ID, user.ID, err)
			continue
		}
		g.publish(ctx, roomID, models.RoomEvent{
			Type: models.EventReceipt,
			Receipt: &models.ReceiptUpdate{
				MessageID: msg.ID,
				UserID:    user.ID,
				Username:  user.Username,
				Status:    models.ReceiptDelivered,
			},
		})
	}
}

func (g *Gateway) sendMessage(ctx context.Context, client *Client, roomID, text string) {
	userID, _, ok := client.Identity()
	if !ok {
		client.SendError(roomID, "join a room first")
		return
	}
	if roomID == "" {
		client.SendError(roomID, "room_id is required")
		return
	}

	// Validation failures are rejected before touching the store; no message
	// row is created and nothing is published.
	text = strings.TrimSpace(text)
	if text == "" {
		client.SendError(roomID, "message text is required")
		return
	}

	member, err := g.members.IsMember(ctx, userID, roomID)
	if err != nil {
		client.SendError(roomID, "failed to send message")
		return
	}
	if !member {
		client.SendError(roomID, "not a room member")
		return
	}

	msg, err := g.messages.CreateMessage(ctx, roomID, userID, text)
	if err != nil {
		client.SendError(roomID, "failed to send message")
		return
	}

	g.publish(ctx, roomID, models.RoomEvent{Type: models.EventMessage, Message: &msg})
}

func (g *Gateway) markReceipt(ctx context.Context, client *Client, messageID string, status models.ReceiptStatus) {
	userID, username, ok := client.Identity()
	if !ok {
		client.SendError("", "join a room first")
		return
	}
	if messageID == "" {
		client.SendError("", "message_id is required")
		return
	}

	msg, err := g.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			client.SendError("", "message not found")
		} else {
			client.SendError("", "failed to update receipt")
		}
		return
	}

	if err := g.receipts.Upsert(ctx, messageID, userID, status); err != nil {
		client.SendError(msg.RoomID, "failed to update receipt")
		return
	}

	g.publish(ctx, msg.RoomID, models.RoomEvent{
		Type: models.EventReceipt,
		Receipt: &models.ReceiptUpdate{
			MessageID: messageID,
			UserID:    userID,
			Username:  username,
			Status:    status,
		},
	})
}

func (g *Gateway) leaveRoom(ctx context.Context, client *Client, roomID string) {
	userID, username, ok := client.Identity()
	if !ok {
		client.SendError(roomID, "join a room first")
		return
	}
	if roomID == "" {
		client.SendError(roomID, "room_id is required")
		return
	}

	// Removing a non-member is a no-op success.
	if err := g.members.RemoveMember(ctx, userID, roomID); err != nil {
		client.SendError(roomID, "failed to leave room")
		return
	}

	client.RemoveRoom(roomID)
	g.hub.RemoveClient(roomID, client)

	// The bus subscription stays: over-subscription costs latency, not
	// correctness, since delivery is filtered by the hub registry.
	g.publish(ctx, roomID, models.RoomEvent{
		Type:     models.EventPresence,
		Presence: &models.PresenceChange{UserID: userID, Username: username, Left: true},
	})
}

// DeliverLocal is the bus handler: it fans a room event out to the
// connections this process holds for the room. Events published by this
// process come back through here too; delivery is the only effect, so
// re-processing is harmless.
func (g *Gateway) DeliverLocal(event models.RoomEvent) {
	switch event.Type {
	case models.EventMessage:
		if event.Message == nil {
			return
		}
		g.hub.Broadcast(event.RoomID, models.ServerEvent{
			Type:    models.ServerEventMessage,
			RoomID:  event.RoomID,
			Message: event.Message,
		})
	case models.EventReceipt:
		if event.Receipt == nil || !event.Receipt.Status.Valid() {
			return
		}
		g.hub.Broadcast(event.RoomID, models.ServerEvent{
			Type:    models.ServerEventReceipt,
			RoomID:  event.RoomID,
			Receipt: event.Receipt,
		})
	case models.EventPresence:
		if event.Presence == nil {
			return
		}
		eventType := models.ServerEventJoined
		if event.Presence.Left {
			eventType = models.ServerEventLeft
		}
		g.hub.Broadcast(event.RoomID, models.ServerEvent{
			Type:     eventType,
			RoomID:   event.RoomID,
			Presence: event.Presence,
		})
	default:
		log.Printf("bus event with unknown type %q dropped", event.Type)
	}
}

func (g *Gateway) publish(ctx context.Context, roomID string, event models.RoomEvent) {
	if err := g.bus.Publish(ctx, roomID, event); err != nil {
		log.Printf("bus publish failed room=%s type=%s: %v", roomID, event.Type, err)
	}
}

func (g *Gateway) publishConnEvent(ctx context.Context, client *Client, name, reason string) {
	_, username, _ := client.Identity()
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       name,
			"conn_id":     client.Info.ConnID,
			"duration_ms": time.Since(client.Info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"username":  username,
			"device_id": client.Info.DeviceID,
			"ip":        client.Info.IP,
		},
	}

	headers := observability.BuildHeaders(client.Info.RequestID, client.Info.TraceID)
	_ = observability.PublishEvent(ctx, "ws_events.rooms", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload:   payload,
	}, headers)
}
