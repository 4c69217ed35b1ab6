package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stanstork/console-api/internal/authz"
	"github.com/stanstork/console-api/internal/realtime"
)

const (
	wsReadLimit = 1 << 16
	wsPongWait  = 60 * time.Second
)

type WSHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	pongWait time.Duration
	logger   zerolog.Logger
}

// NewWSHandler accepts upgrades from the given origins. An empty list
// accepts any origin.
func NewWSHandler(hub *realtime.Hub, allowedOrigins []string, logger zerolog.Logger) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return &WSHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		pongWait: wsPongWait,
		logger:   logger.With().Str("handler", "ws").Logger(),
	}
}

// Connect upgrades the request and streams the user's notification events
// until the socket closes. Inbound frames are read only to keep the
// connection alive.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing session")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := realtime.NewClient(id.UserID, conn)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	// ping before the peer's pong would be overdue
	go client.WritePump(h.logger, h.pongWait*9/10)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	}
}
