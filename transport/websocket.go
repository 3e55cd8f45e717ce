package transport

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrNotOpen is returned by Read and Write before Open succeeds or
// after Close.
var ErrNotOpen = errors.New("transport: websocket is not open")

// Websocket is a Stream over a single client WebSocket connection.
// Write and Close may be called concurrently with a blocked Read;
// writes themselves are serialized by the caller.
type Websocket struct {
	url    string
	header http.Header

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Stream = (*Websocket)(nil)

// NewWebsocket prepares a stream for url. The header travels with the
// opening handshake and carries the origin and session cookie.
func NewWebsocket(url string, header http.Header) *Websocket {
	return &Websocket{url: url, header: header}
}

func (w *Websocket) Open(ctx context.Context) error {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, w.url, w.header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	return nil
}

// Read blocks until the next frame arrives. The frame is returned as
// raw bytes whatever the message type; the service only sends text.
func (w *Websocket) Read() ([]byte, error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return nil, ErrNotOpen
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (w *Websocket) Write(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return ErrNotOpen
	}
	return w.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close tears the connection down. A Read blocked on the connection
// returns with an error.
func (w *Websocket) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}
