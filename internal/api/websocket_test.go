package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/santapalabra/scripture/internal/store"
)

func TestHubStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	hub.Broadcast(ProgressMessage{Type: "progress", JobID: "j1"})
	cancel()

	select {
	case <-hub.Done():
	case <-time.After(testWait):
		t.Fatal("hub did not stop")
	}
	require.Zero(t, hub.Clients())
}

func TestBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub()
	// Nothing drains the queue; the overflow is dropped.
	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast(ProgressMessage{Type: "progress"})
	}
	require.Len(t, hub.broadcast, sendBuffer)
}

func dialURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWebSocketReceivesProgress(t *testing.T) {
	s := newTestServer(t, Config{AllowedOrigins: []string{"https://reader.example"}}, store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn, resp, err := websocket.DefaultDialer.Dial(dialURL(srv), http.Header{"Origin": {"https://reader.example"}})
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, testWait, testTick)

	s.Hub().Broadcast(ProgressMessage{Type: "progress", JobID: "j1", Source: "64-Jn-morphgnt.txt", Verse: "John.2.1", Verses: 52, Words: 800})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testWait)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg ProgressMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "progress", msg.Type)
	require.Equal(t, "John.2.1", msg.Verse)
	require.Equal(t, 52, msg.Verses)
	require.NotEmpty(t, msg.Timestamp)

	// Stopping the hub closes the connection from the server side.
	cancel()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(testWait)))
	_, _, err = conn.ReadMessage()
	require.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "err = %v", err)
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t, Config{AllowedOrigins: []string{"https://reader.example"}}, store.NewMemory())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Hub().Run(ctx)

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(dialURL(srv), http.Header{"Origin": {"https://evil.example"}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Zero(t, s.Hub().Clients())
}
