package realtime

import (
	"encoding/json"
	"time"
)

// MessageType identifies an envelope on the wire, in either direction.
type MessageType string

// Client -> server message types.
const (
	MessageTypeJoinWorkspace MessageType = "join_workspace"
	MessageTypeJoinBoard     MessageType = "join_board"
	MessageTypeCardMoved     MessageType = "card_moved"
	MessageTypeCardCreated   MessageType = "card_created"
	MessageTypeUserTyping    MessageType = "user_typing"
	MessageTypeCursorMove    MessageType = "cursor_move"
)

// Server -> client message types.
const (
	MessageTypeConnected       MessageType = "connected"
	MessageTypeWorkspaceUsers  MessageType = "workspace_users"
	MessageTypeBoardUsers      MessageType = "board_users"
	MessageTypeUserJoined      MessageType = "user_joined"
	MessageTypeUserJoinedBoard MessageType = "user_joined_board"
	MessageTypeUserLeft        MessageType = "user_left"
	MessageTypeUserLeftBoard   MessageType = "user_left_board"
)

// String returns the string representation of the MessageType.
func (mt MessageType) String() string {
	return string(mt)
}

// IsValid reports whether mt is a recognized client -> server type.
func (mt MessageType) IsValid() bool {
	switch mt {
	case MessageTypeJoinWorkspace, MessageTypeJoinBoard, MessageTypeCardMoved,
		MessageTypeCardCreated, MessageTypeUserTyping, MessageTypeCursorMove:
		return true
	default:
		return false
	}
}

// Envelope is the message unit exchanged in both directions:
// {"type": <string>, "payload": <object>}.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// JoinWorkspacePayload is the payload of a join_workspace message.
type JoinWorkspacePayload struct {
	WorkspaceID string `json:"workspaceId"`
}

// JoinBoardPayload is the payload of a join_board message.
type JoinBoardPayload struct {
	BoardID string `json:"boardId"`
}

// newMessage serializes an outbound envelope with the given payload fields.
func newMessage(msgType MessageType, payload map[string]any) []byte {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	data, err := json.Marshal(Envelope{Type: msgType, Payload: raw})
	if err != nil {
		return nil
	}
	return data
}

// NewConnectedMessage is sent to a client once, immediately after accept.
func NewConnectedMessage(clientID string) []byte {
	return newMessage(MessageTypeConnected, map[string]any{
		"clientId": clientID,
	})
}

// NewRoomCountMessage is the join reply carrying the room's current member count.
// The type is workspace_users or board_users depending on the room flavor.
func NewRoomCountMessage(flavor RoomFlavor, count int) []byte {
	msgType := MessageTypeWorkspaceUsers
	if flavor == RoomBoard {
		msgType = MessageTypeBoardUsers
	}
	return newMessage(msgType, map[string]any{
		"count": count,
	})
}

// NewUserJoinedMessage notifies existing room members of a join.
func NewUserJoinedMessage(flavor RoomFlavor, userID, roomID string) []byte {
	if flavor == RoomBoard {
		return newMessage(MessageTypeUserJoinedBoard, map[string]any{
			"userId":  userID,
			"boardId": roomID,
		})
	}
	return newMessage(MessageTypeUserJoined, map[string]any{
		"userId":      userID,
		"workspaceId": roomID,
	})
}

// NewUserLeftMessage notifies remaining room members of a departure.
func NewUserLeftMessage(flavor RoomFlavor, userID, roomID string) []byte {
	if flavor == RoomBoard {
		return newMessage(MessageTypeUserLeftBoard, map[string]any{
			"userId":  userID,
			"boardId": roomID,
		})
	}
	return newMessage(MessageTypeUserLeft, map[string]any{
		"userId":      userID,
		"workspaceId": roomID,
	})
}

// enrichPayload decodes an inbound payload object and stamps extra fields onto
// it, returning the serialized outbound envelope. Returns nil if the payload is
// not a well-formed JSON object.
func enrichPayload(msgType MessageType, payload json.RawMessage, extra map[string]any) []byte {
	fields := make(map[string]any)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil
		}
	}
	for k, v := range extra {
		fields[k] = v
	}
	return newMessage(msgType, fields)
}

// serverTimestamp is the timestamp stamped onto card events, in Unix milliseconds.
func serverTimestamp() int64 {
	return time.Now().UnixMilli()
}
