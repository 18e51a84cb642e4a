package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/smartbulldog-pro/TeamFlow/pkg/metrics"
)

// Hub is the relay's connection registry, room index, and broadcast engine.
// It holds only in-memory presence state, rebuilt from live joins after a
// restart: message delivery is fire-and-forget presence/notification traffic,
// not a reliable log, so there is no retry and no queue.
type Hub struct {
	registry *registry

	// mu guards both room partitions and every client's current-room fields,
	// so a join reads and writes the connection->room and room->members
	// representations as one atomic unit.
	mu             sync.RWMutex
	workspaceRooms *roomIndex
	boardRooms     *roomIndex

	bridge       *RedisBridge
	shuttingDown int32
}

func NewHub() *Hub {
	return &Hub{
		registry:       newRegistry(),
		workspaceRooms: newRoomIndex(),
		boardRooms:     newRoomIndex(),
	}
}

// AttachBridge wires an optional Redis fan-out bridge so several relay
// instances behind a load balancer share rooms. Without a bridge the hub is
// single-instance; correctness never depends on it.
func (h *Hub) AttachBridge(bridge *RedisBridge) {
	h.bridge = bridge
}

// Run blocks until ctx is cancelled, consuming bridge messages if a bridge is
// attached.
func (h *Hub) Run(ctx context.Context) {
	if h.bridge != nil {
		go h.bridge.run(ctx, h.fanOut)
	}
	<-ctx.Done()
}

// Register records a new connection and sends it the connected envelope.
func (h *Hub) Register(c *Client) {
	h.registry.register(c)
	metrics.ConnectionsActive.Set(float64(h.registry.count()))
	slog.Info("client registered", "clientID", c.id, "userID", c.userID)

	if err := c.Send(NewConnectedMessage(c.id)); err != nil {
		slog.Warn("failed to send connected message", "clientID", c.id, "error", err)
	}
}

// Unregister drives the disconnect transition: the connection leaves every
// room it belongs to and remaining members of each are notified. Safe to call
// concurrently with an in-flight broadcast, and idempotent.
func (h *Hub) Unregister(c *Client) {
	if _, err := h.registry.get(c.id); err != nil {
		return // already gone
	}
	h.registry.remove(c.id)
	metrics.ConnectionsActive.Set(float64(h.registry.count()))

	h.leaveRoomOnDisconnect(c, RoomWorkspace)
	h.leaveRoomOnDisconnect(c, RoomBoard)

	slog.Info("client unregistered", "clientID", c.id, "userID", c.userID)
}

func (h *Hub) index(flavor RoomFlavor) *roomIndex {
	if flavor == RoomBoard {
		return h.boardRooms
	}
	return h.workspaceRooms
}

// currentRoom reads c's room for the given flavor. Callers must hold h.mu.
func currentRoom(c *Client, flavor RoomFlavor) string {
	if flavor == RoomBoard {
		return c.boardRoom
	}
	return c.workspaceRoom
}

func setRoom(c *Client, flavor RoomFlavor, roomID string) {
	if flavor == RoomBoard {
		c.boardRoom = roomID
	} else {
		c.workspaceRoom = roomID
	}
}

// JoinRoom moves c into roomID for the given flavor, holding the "at most one
// room per flavor" invariant. A re-join of the current room is a no-op. A
// switch from another room leaves it silently (no departure notification; an
// emptied room is simply discarded) and then joins the new one, as a single
// transition. After membership is updated, the other members are notified of
// the join and the joiner alone receives the room's member count.
func (h *Hub) JoinRoom(c *Client, flavor RoomFlavor, roomID string) {
	idx := h.index(flavor)

	h.mu.Lock()
	prev := currentRoom(c, flavor)
	if prev == roomID {
		h.mu.Unlock()
		return
	}
	if prev != "" {
		idx.leave(prev, c.id)
	}
	idx.join(roomID, c.id)
	setRoom(c, flavor, roomID)
	others := idx.members(roomID)
	count := idx.size(roomID)
	rooms := idx.count()
	h.mu.Unlock()

	metrics.RoomsActive.WithLabelValues(string(flavor)).Set(float64(rooms))
	slog.Info("client joined room", "clientID", c.id, "userID", c.userID, "flavor", flavor, "roomID", roomID, "members", count)

	joined := NewUserJoinedMessage(flavor, c.userID, roomID)
	for _, id := range others {
		if id == c.id {
			continue
		}
		h.deliver(id, joined)
	}
	if err := c.Send(NewRoomCountMessage(flavor, count)); err != nil {
		slog.Debug("join reply not delivered", "clientID", c.id, "error", err)
	}
}

// leaveRoomOnDisconnect removes c from its current room for one flavor and
// notifies the remaining members. An emptied room is discarded without
// notification: there is no one left to notify.
func (h *Hub) leaveRoomOnDisconnect(c *Client, flavor RoomFlavor) {
	idx := h.index(flavor)

	h.mu.Lock()
	roomID := currentRoom(c, flavor)
	if roomID == "" {
		h.mu.Unlock()
		return
	}
	idx.leave(roomID, c.id)
	setRoom(c, flavor, "")
	remaining := idx.members(roomID)
	rooms := idx.count()
	h.mu.Unlock()

	metrics.RoomsActive.WithLabelValues(string(flavor)).Set(float64(rooms))

	if len(remaining) == 0 || atomic.LoadInt32(&h.shuttingDown) == 1 {
		return
	}
	left := NewUserLeftMessage(flavor, c.userID, roomID)
	for _, id := range remaining {
		h.deliver(id, left)
	}
}

// BroadcastToRoom delivers data to every live member of the room, skipping
// excludeID. The membership snapshot is taken at call time; a member removed
// concurrently is simply skipped. If a bridge is attached the message is also
// published for other relay instances.
func (h *Hub) BroadcastToRoom(flavor RoomFlavor, roomID string, data []byte, excludeID string) {
	h.fanOut(flavor, roomID, data, excludeID)

	if h.bridge != nil {
		if err := h.bridge.Publish(flavor, roomID, data); err != nil {
			slog.Warn("bridge publish failed", "flavor", flavor, "roomID", roomID, "error", err)
		}
	}
}

// fanOut is the local leg of a broadcast. Broadcasting to an absent room is a
// no-op, and a failed send to one recipient never aborts delivery to the rest.
func (h *Hub) fanOut(flavor RoomFlavor, roomID string, data []byte, excludeID string) {
	h.mu.RLock()
	members := h.index(flavor).members(roomID)
	h.mu.RUnlock()

	for _, id := range members {
		if id == excludeID {
			continue
		}
		h.deliver(id, data)
	}
}

// deliver sends data to one connection id, skipping connections that are
// already gone or stuck. The disconnect path completes their removal.
func (h *Hub) deliver(id string, data []byte) {
	c, err := h.registry.get(id)
	if err != nil {
		return
	}
	if err := c.Send(data); err != nil {
		slog.Debug("recipient skipped", "clientID", id, "error", err)
	}
}

// Stats reports live connection and room counts.
func (h *Hub) Stats() (connections, workspaceRooms, boardRooms int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.registry.count(), h.workspaceRooms.count(), h.boardRooms.count()
}

// Shutdown closes every live connection. No room notifications are emitted:
// clients rebuild presence by rejoining after reconnect.
func (h *Hub) Shutdown() {
	atomic.StoreInt32(&h.shuttingDown, 1)

	for _, c := range h.registry.snapshot() {
		c.close()
		if c.conn != nil {
			c.conn.Close()
		}
	}
	slog.Info("hub shut down")
}
