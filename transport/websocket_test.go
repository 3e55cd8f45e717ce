package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketRoundTrip(t *testing.T) {
	received := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"method":"set","name":"n","value":"1"}`+"\n")); err != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- data
		conn.ReadMessage()
	}))
	defer srv.Close()

	ws := NewWebsocket(wsURL(srv), http.Header{})
	require.NoError(t, ws.Open(context.Background()))

	frame, err := ws.Read()
	require.NoError(t, err)
	assert.Contains(t, string(frame), `"method":"set"`)

	require.NoError(t, ws.Write([]byte(`{"method":"handshake","user":"maker"}`+"\n")))
	select {
	case got := <-received:
		assert.Contains(t, string(got), `"method":"handshake"`)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive the frame")
	}

	require.NoError(t, ws.Close())
	_, err = ws.Read()
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, ws.Write(nil), ErrNotOpen)
	require.NoError(t, ws.Close())
}

func TestWebsocketForwardsHandshakeHeaders(t *testing.T) {
	type handshake struct {
		origin string
		cookie string
	}
	seen := make(chan handshake, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- handshake{origin: r.Header.Get("Origin"), cookie: r.Header.Get("Cookie")}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "https://scratch.mit.edu")
	header.Set("Cookie", "scratchsessionsid=abc123;")

	ws := NewWebsocket(wsURL(srv), header)
	require.NoError(t, ws.Open(context.Background()))
	defer ws.Close()

	select {
	case hs := <-seen:
		assert.Equal(t, "https://scratch.mit.edu", hs.origin)
		assert.Equal(t, "scratchsessionsid=abc123;", hs.cookie)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the handshake")
	}
}

func TestWebsocketOpenFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := wsURL(srv)
	srv.Close()

	ws := NewWebsocket(url, http.Header{})
	assert.Error(t, ws.Open(context.Background()))
}

func TestWebsocketOpenHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ws := NewWebsocket(wsURL(srv), http.Header{})
	assert.Error(t, ws.Open(ctx))
}

func TestWebsocketCloseUnblocksRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.ReadMessage()
	}))
	defer srv.Close()

	ws := NewWebsocket(wsURL(srv), http.Header{})
	require.NoError(t, ws.Open(context.Background()))

	errs := make(chan error, 1)
	go func() {
		_, err := ws.Read()
		errs <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, ws.Close())

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("read did not unblock on close")
	}
}
