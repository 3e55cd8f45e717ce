package transport

import (
	"context"
	"time"
)

const (
	// HandshakeTimeout bounds the opening WebSocket handshake.
	HandshakeTimeout = 10 * time.Second
)

// Stream is one bidirectional connection to a cloud-data host. Open
// dials, Read blocks for the next inbound frame, Write sends one
// frame, Close releases the connection and unblocks a pending Read.
type Stream interface {
	Open(ctx context.Context) error
	Read() (frame []byte, err error)
	Write(frame []byte) error
	Close() error
}
