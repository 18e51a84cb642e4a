package realtime

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient registers a client with no underlying socket; messages pile up
// in its send buffer where tests can inspect them.
func newTestClient(t *testing.T, h *Hub, userID string) *Client {
	t.Helper()
	c := NewClient(h, nil, userID)
	h.Register(c)

	// Consume the connected envelope so tests start from a clean buffer.
	env := received(t, c)
	require.Len(t, env, 1)
	require.Equal(t, MessageTypeConnected, env[0].Type)
	return c
}

// received drains and decodes everything currently in the client's send buffer.
func received(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case data := <-c.send:
			var env Envelope
			require.NoError(t, json.Unmarshal(data, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func payloadOf(t *testing.T, env Envelope) map[string]any {
	t.Helper()
	fields := make(map[string]any)
	require.NoError(t, json.Unmarshal(env.Payload, &fields))
	return fields
}

func joinWorkspace(t *testing.T, h *Hub, c *Client, workspaceID string) {
	t.Helper()
	h.Dispatch(c, []byte(fmt.Sprintf(`{"type":"join_workspace","payload":{"workspaceId":%q}}`, workspaceID)))
}

func joinBoard(t *testing.T, h *Hub, c *Client, boardID string) {
	t.Helper()
	h.Dispatch(c, []byte(fmt.Sprintf(`{"type":"join_board","payload":{"boardId":%q}}`, boardID)))
}

func TestRegister_SendsConnectedWithClientID(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil, "user-a")
	h.Register(c)

	env := received(t, c)
	require.Len(t, env, 1)
	assert.Equal(t, MessageTypeConnected, env[0].Type)
	assert.Equal(t, c.ID(), payloadOf(t, env[0])["clientId"])
}

func TestJoinWorkspace_CountsAndNotifications(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")

	joinWorkspace(t, h, a, "w1")
	envA := received(t, a)
	require.Len(t, envA, 1)
	assert.Equal(t, MessageTypeWorkspaceUsers, envA[0].Type)
	assert.EqualValues(t, 1, payloadOf(t, envA[0])["count"])

	joinWorkspace(t, h, b, "w1")

	envB := received(t, b)
	require.Len(t, envB, 1)
	assert.Equal(t, MessageTypeWorkspaceUsers, envB[0].Type)
	assert.EqualValues(t, 2, payloadOf(t, envB[0])["count"])

	envA = received(t, a)
	require.Len(t, envA, 1)
	assert.Equal(t, MessageTypeUserJoined, envA[0].Type)
	fields := payloadOf(t, envA[0])
	assert.Equal(t, "user-b", fields["userId"])
	assert.Equal(t, "w1", fields["workspaceId"])
}

func TestJoinWorkspace_SwitchLeavesPreviousRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")

	joinWorkspace(t, h, a, "r1")
	joinWorkspace(t, h, a, "r2")
	received(t, a)

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.Equal(t, "r2", a.workspaceRoom)
	assert.ElementsMatch(t, []string{a.ID()}, h.workspaceRooms.members("r2"))
	// r1 emptied, so it was discarded.
	assert.Equal(t, 0, h.workspaceRooms.size("r1"))
	assert.Equal(t, 1, h.workspaceRooms.count())
}

func TestJoinWorkspace_SwitchIsSilentForOldRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")

	joinWorkspace(t, h, a, "r1")
	joinWorkspace(t, h, b, "r1")
	received(t, a)
	received(t, b)

	// A switches rooms; B stays in r1 and hears nothing about it.
	joinWorkspace(t, h, a, "r2")

	assert.Empty(t, received(t, b))

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.ElementsMatch(t, []string{b.ID()}, h.workspaceRooms.members("r1"))
}

func TestJoinBoard_Idempotent(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")

	joinBoard(t, h, a, "b1")
	joinBoard(t, h, b, "b1")
	received(t, a)
	received(t, b)

	joinBoard(t, h, b, "b1")

	// No duplicate join notification, no extra count reply, no size change.
	assert.Empty(t, received(t, a))
	assert.Empty(t, received(t, b))

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.Equal(t, 2, h.boardRooms.size("b1"))
}

func TestCardMoved_EnrichedAndFannedOut(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")

	joinBoard(t, h, a, "b1")
	joinBoard(t, h, b, "b1")
	received(t, a)
	received(t, b)

	h.Dispatch(a, []byte(`{"type":"card_moved","payload":{"cardId":"c1","columnId":"col2","position":0}}`))

	envB := received(t, b)
	require.Len(t, envB, 1)
	assert.Equal(t, MessageTypeCardMoved, envB[0].Type)
	fields := payloadOf(t, envB[0])
	assert.Equal(t, "c1", fields["cardId"])
	assert.Equal(t, "col2", fields["columnId"])
	assert.EqualValues(t, 0, fields["position"])
	assert.Equal(t, "user-a", fields["movedBy"])
	assert.IsType(t, float64(0), fields["timestamp"])

	// Card events include the sender in the fan-out.
	envA := received(t, a)
	require.Len(t, envA, 1)
	assert.Equal(t, MessageTypeCardMoved, envA[0].Type)
}

func TestCardCreated_StampsCreator(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")

	joinBoard(t, h, a, "b1")
	joinBoard(t, h, b, "b1")
	received(t, a)
	received(t, b)

	h.Dispatch(a, []byte(`{"type":"card_created","payload":{"cardId":"c9","title":"new card"}}`))

	envB := received(t, b)
	require.Len(t, envB, 1)
	assert.Equal(t, MessageTypeCardCreated, envB[0].Type)
	fields := payloadOf(t, envB[0])
	assert.Equal(t, "new card", fields["title"])
	assert.Equal(t, "user-a", fields["createdBy"])
	assert.Contains(t, fields, "timestamp")

	assert.Len(t, received(t, a), 1)
}

func TestPresenceEvents_ExcludeSender(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want MessageType
	}{
		{
			name: "user_typing",
			raw:  `{"type":"user_typing","payload":{"cardId":"c1"}}`,
			want: MessageTypeUserTyping,
		},
		{
			name: "cursor_move",
			raw:  `{"type":"cursor_move","payload":{"x":10,"y":20}}`,
			want: MessageTypeCursorMove,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHub()
			a := newTestClient(t, h, "user-a")
			b := newTestClient(t, h, "user-b")

			joinBoard(t, h, a, "b1")
			joinBoard(t, h, b, "b1")
			received(t, a)
			received(t, b)

			h.Dispatch(a, []byte(tt.raw))

			envB := received(t, b)
			require.Len(t, envB, 1)
			assert.Equal(t, tt.want, envB[0].Type)
			assert.Equal(t, "user-a", payloadOf(t, envB[0])["userId"])

			assert.Empty(t, received(t, a), "sender must not receive its own presence event")
		})
	}
}

func TestCardEventBeforeJoinBoard_IsNoOp(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")
	joinBoard(t, h, b, "b1")
	received(t, b)

	h.Dispatch(a, []byte(`{"type":"card_moved","payload":{"cardId":"c1"}}`))

	assert.Empty(t, received(t, a))
	assert.Empty(t, received(t, b))
}

func TestDisconnect_NotifiesRemainingMembers(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")
	c := newTestClient(t, h, "user-c")

	joinBoard(t, h, a, "b1")
	joinBoard(t, h, b, "b1")
	joinBoard(t, h, c, "b1")
	received(t, a)
	received(t, b)
	received(t, c)

	h.Unregister(a)

	for _, member := range []*Client{b, c} {
		env := received(t, member)
		require.Len(t, env, 1)
		assert.Equal(t, MessageTypeUserLeftBoard, env[0].Type)
		fields := payloadOf(t, env[0])
		assert.Equal(t, "user-a", fields["userId"])
		assert.Equal(t, "b1", fields["boardId"])
	}
}

func TestDisconnect_LastMemberDiscardsRoomSilently(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")

	joinWorkspace(t, h, a, "w1")
	joinBoard(t, h, a, "b1")
	received(t, a)

	h.Unregister(a)

	connections, workspaceRooms, boardRooms := h.Stats()
	assert.Equal(t, 0, connections)
	assert.Equal(t, 0, workspaceRooms)
	assert.Equal(t, 0, boardRooms)
}

func TestDisconnect_IsIdempotent(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")
	joinWorkspace(t, h, a, "w1")
	joinWorkspace(t, h, b, "w1")
	received(t, b)

	h.Unregister(a)
	h.Unregister(a)

	// Exactly one departure notification despite the double unregister.
	assert.Len(t, received(t, b), 1)
}

func TestBroadcast_SkipsClosedRecipient(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")

	joinBoard(t, h, a, "b1")
	joinBoard(t, h, b, "b1")
	received(t, a)
	received(t, b)

	// B's transport died but its disconnect handling hasn't run yet; the
	// broadcast snapshot still references it and the send is simply skipped.
	b.close()

	h.Dispatch(a, []byte(`{"type":"card_moved","payload":{"cardId":"c1"}}`))

	envA := received(t, a)
	require.Len(t, envA, 1)
	assert.Equal(t, MessageTypeCardMoved, envA[0].Type)
}

func TestDispatch_MalformedEnvelopeIsDropped(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")

	h.Dispatch(a, []byte("not json at all"))
	assert.Empty(t, received(t, a))

	// The connection stays usable afterwards.
	joinWorkspace(t, h, a, "w1")
	env := received(t, a)
	require.Len(t, env, 1)
	assert.Equal(t, MessageTypeWorkspaceUsers, env[0].Type)
}

func TestDispatch_UnknownTypeIsDropped(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")
	joinBoard(t, h, a, "b1")
	joinBoard(t, h, b, "b1")
	received(t, a)
	received(t, b)

	h.Dispatch(a, []byte(`{"type":"card_exploded","payload":{}}`))

	assert.Empty(t, received(t, a))
	assert.Empty(t, received(t, b))
}

func TestDispatch_MalformedJoinPayloadIsDropped(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")

	h.Dispatch(a, []byte(`{"type":"join_workspace","payload":{"workspaceId":42}}`))
	h.Dispatch(a, []byte(`{"type":"join_board","payload":{}}`))

	assert.Empty(t, received(t, a))
	_, workspaceRooms, boardRooms := h.Stats()
	assert.Equal(t, 0, workspaceRooms)
	assert.Equal(t, 0, boardRooms)
}

func TestWorkspaceAndBoardRoomsAreIndependent(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")

	joinWorkspace(t, h, a, "shared-id")
	joinBoard(t, h, a, "shared-id")
	received(t, a)

	_, workspaceRooms, boardRooms := h.Stats()
	assert.Equal(t, 1, workspaceRooms)
	assert.Equal(t, 1, boardRooms)

	// Switching the board room leaves the workspace room untouched.
	joinBoard(t, h, a, "other-board")
	received(t, a)

	h.mu.RLock()
	defer h.mu.RUnlock()
	assert.Equal(t, "shared-id", a.workspaceRoom)
	assert.Equal(t, "other-board", a.boardRoom)
}

func TestShutdown_EmitsNoNotifications(t *testing.T) {
	h := NewHub()
	a := newTestClient(t, h, "user-a")
	b := newTestClient(t, h, "user-b")
	joinWorkspace(t, h, a, "w1")
	joinWorkspace(t, h, b, "w1")
	received(t, a)
	received(t, b)

	h.Shutdown()
	h.Unregister(a)

	assert.Empty(t, received(t, b))
}
