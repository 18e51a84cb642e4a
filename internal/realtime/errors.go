package realtime

import "errors"

var (
	// ErrClientNotFound is returned by the registry for an unknown connection
	// id; callers treat it as "connection already gone", never as fatal.
	ErrClientNotFound = errors.New("client not found")

	// ErrClientDisconnected is returned when sending to a closed client.
	ErrClientDisconnected = errors.New("client disconnected")

	// ErrSendBufferFull is returned when a recipient's outbound buffer is full
	// and the message was dropped.
	ErrSendBufferFull = errors.New("send buffer full")
)
