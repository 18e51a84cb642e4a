package realtime

import (
	"encoding/json"
	"log/slog"

	"github.com/smartbulldog-pro/TeamFlow/pkg/metrics"
)

// Dispatch classifies one inbound envelope and routes it to its handler.
// Protocol errors (undecodable envelope, unrecognized type, malformed payload)
// are logged and dropped; the connection always stays open, and there is no
// error reply channel back to the client.
func (h *Hub) Dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("undecodable envelope dropped", "clientID", c.id, "error", err)
		return
	}

	switch env.Type {
	case MessageTypeJoinWorkspace:
		h.handleJoinWorkspace(c, env.Payload)
	case MessageTypeJoinBoard:
		h.handleJoinBoard(c, env.Payload)
	case MessageTypeCardMoved:
		h.handleCardEvent(c, MessageTypeCardMoved, env.Payload)
	case MessageTypeCardCreated:
		h.handleCardEvent(c, MessageTypeCardCreated, env.Payload)
	case MessageTypeUserTyping:
		h.handlePresenceEvent(c, MessageTypeUserTyping, env.Payload)
	case MessageTypeCursorMove:
		h.handlePresenceEvent(c, MessageTypeCursorMove, env.Payload)
	default:
		slog.Warn("unknown message type dropped", "clientID", c.id, "type", env.Type)
	}
}

func (h *Hub) handleJoinWorkspace(c *Client, payload json.RawMessage) {
	var p JoinWorkspacePayload
	if err := json.Unmarshal(payload, &p); err != nil || p.WorkspaceID == "" {
		slog.Warn("malformed join_workspace payload dropped", "clientID", c.id)
		return
	}
	h.JoinRoom(c, RoomWorkspace, p.WorkspaceID)
}

func (h *Hub) handleJoinBoard(c *Client, payload json.RawMessage) {
	var p JoinBoardPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.BoardID == "" {
		slog.Warn("malformed join_board payload dropped", "clientID", c.id)
		return
	}
	h.JoinRoom(c, RoomBoard, p.BoardID)
}

// handleCardEvent fans a card_moved/card_created event out to the sender's
// board room, sender included, stamped with the actor's user id and a server
// timestamp. The relay assumes the persistence API already accepted the
// change; an event sent before any join_board is a silent no-op.
func (h *Hub) handleCardEvent(c *Client, msgType MessageType, payload json.RawMessage) {
	h.mu.RLock()
	roomID := c.boardRoom
	h.mu.RUnlock()
	if roomID == "" {
		return
	}

	actorField := "movedBy"
	if msgType == MessageTypeCardCreated {
		actorField = "createdBy"
	}
	data := enrichPayload(msgType, payload, map[string]any{
		actorField:  c.userID,
		"timestamp": serverTimestamp(),
	})
	if data == nil {
		slog.Warn("malformed payload dropped", "clientID", c.id, "type", msgType)
		return
	}

	metrics.BroadcastsTotal.WithLabelValues(msgType.String()).Inc()
	h.BroadcastToRoom(RoomBoard, roomID, data, "")
}

// handlePresenceEvent fans a user_typing/cursor_move event out to the sender's
// board room, excluding the sender, stamped with the sender's user id.
func (h *Hub) handlePresenceEvent(c *Client, msgType MessageType, payload json.RawMessage) {
	h.mu.RLock()
	roomID := c.boardRoom
	h.mu.RUnlock()
	if roomID == "" {
		return
	}

	data := enrichPayload(msgType, payload, map[string]any{
		"userId": c.userID,
	})
	if data == nil {
		slog.Warn("malformed payload dropped", "clientID", c.id, "type", msgType)
		return
	}

	metrics.BroadcastsTotal.WithLabelValues(msgType.String()).Inc()
	h.BroadcastToRoom(RoomBoard, roomID, data, c.id)
}
