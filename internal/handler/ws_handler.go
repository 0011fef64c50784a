package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/ranklift/ranklift-backend/internal/config"
	"github.com/ranklift/ranklift-backend/internal/service"
	ws "github.com/ranklift/ranklift-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams session events to connected clients.
type WSHandler struct {
	rdb            *redis.Client
	sessionService *service.SessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, sessionService *service.SessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:            rdb,
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// SessionEventStream godoc
// WS /ws/v1/sessions/:id/stream
// Upgrades to WebSocket and forwards the session's event channel
// (draft_saved, auto_submitted, question_advanced, sealed, graded,
// violation, nullified) until the client disconnects.
func (h *WSHandler) SessionEventStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	// Session must exist before we subscribe; terminal sessions may
	// still stream (a late grading event is valid).
	if _, err := h.sessionService.GetSession(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Client connected")

	sub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.SessionEventChannel(sessionID.String()))
	defer sub.Close()

	if err := conn.WriteTyped(ws.ReadyResponse{Event: ws.EventReady, SessionID: sessionID.String()}); err != nil {
		return
	}

	done := make(chan struct{})

	// Reader: only pings are expected from the client. A read error
	// means the client went away. Pong replies may interleave with
	// event forwards below; Conn serializes the writes.
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			if msg.Action == ws.ActionPing {
				conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
			}
		}
	}()

	events := sub.Channel()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteRaw([]byte(msg.Payload)); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing")
				return
			}
		}
	}
}
