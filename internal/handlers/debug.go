package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-chat-service/internal/telemetry"
	"room-chat-service/internal/ws"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, hub *ws.Hub, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		emitter.Emit(c.Request.Context(), "INFO", "audit test", requestIDFromContext(c), userIDFromContext(c))
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/rooms/:room_id/connections", func(c *gin.Context) {
		roomID := c.Param("room_id")
		c.JSON(http.StatusOK, gin.H{
			"room_id":     roomID,
			"connections": hub.RoomCount(roomID),
		})
	})
}
