package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanstork/console-api/internal/realtime"
)

func TestWSConnect_IdleSocketStaysOpen(t *testing.T) {
	hub := realtime.NewHub(zerolog.Nop())
	handler := NewWSHandler(hub, nil, zerolog.Nop())
	handler.pongWait = 200 * time.Millisecond

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.Connect(w, signedIn(r))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// reading lets the default ping handler answer with pongs
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	require.Eventually(t, func() bool {
		return hub.Connections(testIdentity.UserID) == 1
	}, time.Second, 10*time.Millisecond)

	// several pong waits without any application frames
	time.Sleep(800 * time.Millisecond)
	assert.Equal(t, 1, hub.Connections(testIdentity.UserID))

	require.NoError(t, hub.SendJSON(testIdentity.UserID, map[string]string{"type": "ping-check"}))

	conn.Close()
	assert.Eventually(t, func() bool {
		return hub.Connections(testIdentity.UserID) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWSConnect_RequiresIdentity(t *testing.T) {
	handler := NewWSHandler(realtime.NewHub(zerolog.Nop()), nil, zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.Connect(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
