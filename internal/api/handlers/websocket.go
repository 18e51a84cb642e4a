package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/smartbulldog-pro/TeamFlow/internal/api/middleware"
	"github.com/smartbulldog-pro/TeamFlow/internal/realtime"
)

// WSHandler upgrades accepted requests into relay connections.
type WSHandler struct {
	hub *realtime.Hub
}

func NewWSHandler(hub *realtime.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket establishes a WebSocket connection: /ws?userId=<id>[&token=<jwt>].
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	realtime.ServeWS(h.hub, c.Writer, c.Request, userID)
}
