package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"room-chat-service/internal/bus"
	"room-chat-service/internal/models"
	"room-chat-service/internal/repositories"
	"room-chat-service/internal/telemetry"
)

// RoomHandler manages room endpoints.
type RoomHandler struct {
	rooms    repositories.RoomRepository
	members  repositories.MembershipRepository
	messages repositories.MessageRepository
	bus      bus.Bus
	audit    *telemetry.AuditEmitter
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(rooms repositories.RoomRepository, members repositories.MembershipRepository, messages repositories.MessageRepository, eventBus bus.Bus, audit *telemetry.AuditEmitter) *RoomHandler {
	return &RoomHandler{rooms: rooms, members: members, messages: messages, bus: eventBus, audit: audit}
}

// CreateRoom creates a room with the caller as first member.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req struct {
		Name       string `json:"name" binding:"required"`
		IsPrivate  bool   `json:"is_private"`
		AccessCode string `json:"access_code"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room name is required"})
		return
	}
	if req.IsPrivate && req.AccessCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "private rooms require an access code"})
		return
	}

	var accessCode *string
	if req.IsPrivate {
		accessCode = &req.AccessCode
	}

	userID := c.GetString("userID")
	room, err := h.rooms.CreateRoom(c.Request.Context(), req.Name, userID, req.IsPrivate, accessCode)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "room name already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	h.audit.EmitRoom(c.Request.Context(), "INFO", "room created: "+room.Name, requestIDFromContext(c), &userID, room.ID)
	c.JSON(http.StatusCreated, gin.H{"room": room})
}

// JoinRoom adds the caller to a room. Joining twice is a no-op success.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")

	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	if room.IsPrivate {
		var req struct {
			AccessCode string `json:"access_code"`
		}
		_ = c.ShouldBindJSON(&req)

		member, err := h.members.IsMember(c.Request.Context(), userID, roomID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
			return
		}
		if !member && (room.AccessCode == nil || req.AccessCode != *room.AccessCode) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid access code"})
			return
		}
	}

	if err := h.members.AddMember(c.Request.Context(), userID, roomID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to join room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MyRooms lists the caller's rooms.
func (h *RoomHandler) MyRooms(c *gin.Context) {
	userID := c.GetString("userID")

	rooms, err := h.rooms.ListRoomsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoom returns a room with its members and message history. Visibility
// is member-only.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")

	room, err := h.rooms.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch room"})
		return
	}

	member, err := h.members.IsMember(c.Request.Context(), userID, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch room"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return
	}

	roomMembers, err := h.members.ListMembers(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch room members"})
		return
	}

	history, err := h.messages.ListRoomMessages(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": gin.H{
		"id":         room.ID,
		"name":       room.Name,
		"created_by": room.CreatedBy,
		"is_private": room.IsPrivate,
		"created_at": room.CreatedAt,
		"members":    roomMembers,
		"messages":   history,
	}})
}

// PostMessage appends a message through the REST surface and fans it out.
func (h *RoomHandler) PostMessage(c *gin.Context) {
	roomID := c.Param("room_id")
	userID := c.GetString("userID")

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is required"})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message text is required"})
		return
	}

	member, err := h.members.IsMember(c.Request.Context(), userID, roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a room member"})
		return
	}

	msg, err := h.messages.CreateMessage(c.Request.Context(), roomID, userID, text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	// Fan-out failure does not fail the request: the row is durable and
	// offline members catch up through the unread replay on their next join.
	if err := h.bus.Publish(c.Request.Context(), roomID, models.RoomEvent{Type: models.EventMessage, Message: &msg}); err != nil {
		log.Printf("bus publish failed room=%s: %v", roomID, err)
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
