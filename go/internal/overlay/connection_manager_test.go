package overlay

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialOverlay(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/overlay"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(data)
}

func TestConnectionManager_BroadcastAndReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cm := NewConnectionManager(DefaultConnectionConfig(), zerolog.Nop())
	go cm.Start(ctx)

	h := NewHandler(cm, NewViewRenderer(cm, zerolog.Nop()), "", zerolog.Nop())
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	first := dialOverlay(t, srv)
	require.Eventually(t, func() bool {
		return cm.GetConnectionStats().TotalConnections == 1
	}, 2*time.Second, 5*time.Millisecond)

	cm.Broadcast([]byte(`{"n":1}`))
	assert.Equal(t, `{"n":1}`, readMessage(t, first))

	// late joiners get the latest message straight away
	second := dialOverlay(t, srv)
	assert.Equal(t, `{"n":1}`, readMessage(t, second))

	cm.Broadcast([]byte(`{"n":2}`))
	assert.Equal(t, `{"n":2}`, readMessage(t, first))
	assert.Equal(t, `{"n":2}`, readMessage(t, second))
}

func TestConnectionManager_ShutdownClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cm := NewConnectionManager(DefaultConnectionConfig(), zerolog.Nop())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	h := NewHandler(cm, NewViewRenderer(cm, zerolog.Nop()), "", zerolog.Nop())
	srv := httptest.NewServer(h.Routes())
	defer srv.Close()

	conn := dialOverlay(t, srv)
	require.Eventually(t, func() bool {
		return cm.GetConnectionStats().TotalConnections == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	<-done

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, cm.GetConnectionStats().TotalConnections)
}
