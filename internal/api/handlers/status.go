package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartbulldog-pro/TeamFlow/internal/realtime"
)

// StatusHandler serves the health and presence-stats endpoints.
type StatusHandler struct {
	hub *realtime.Hub
}

func NewStatusHandler(hub *realtime.Hub) *StatusHandler {
	return &StatusHandler{hub: hub}
}

func (h *StatusHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *StatusHandler) Stats(c *gin.Context) {
	connections, workspaceRooms, boardRooms := h.hub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"connections":    connections,
		"workspaceRooms": workspaceRooms,
		"boardRooms":     boardRooms,
	})
}
