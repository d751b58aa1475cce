package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizprep-backend/internal/response"
	"github.com/stemsi/quizprep-backend/internal/service"
	"github.com/stemsi/quizprep-backend/internal/validator"
	ws "github.com/stemsi/quizprep-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
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

// WSHandler streams practice sessions over WebSocket.
type WSHandler struct {
	practiceService *service.PracticeService
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(practiceService *service.PracticeService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		practiceService: practiceService,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// PracticeStream godoc
// WS /ws/v1/practice/sessions/:id/stream
// Upgrades to WebSocket. Each client message is one practice action; the server
// answers with the new state or an error.
func (h *WSHandler) PracticeStream(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}

	// Unknown sessions get a plain HTTP error instead of an upgrade.
	view, err := h.practiceService.Get(c.Request.Context(), id)
	if err != nil {
		failPractice(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", id.String()).Logger()
	wsLog.Info().Msg("Learner connected")

	if err := ws.WriteState(conn, view); err != nil {
		return
	}

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if ws.IsMalformed(err) {
				wsLog.Debug().Err(err).Msg("Malformed message")
				if err := writeUnknownAction(conn); err != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		if err := h.handle(c, conn, wsLog, id, msg); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
			return
		}
	}
}

func (h *WSHandler) handle(c *gin.Context, conn *websocket.Conn, wsLog zerolog.Logger, id uuid.UUID, msg ws.RequestEnvelope) error {
	if msg.Action == ws.ActionPing {
		return ws.WritePong(conn)
	}

	if fields := validator.Struct(&msg.PracticeAction); fields != nil {
		return writeUnknownAction(conn)
	}

	view, err := h.practiceService.Apply(c.Request.Context(), id, msg.PracticeAction)
	if err != nil {
		status, code := mapPracticeError(err)
		if status >= http.StatusInternalServerError {
			wsLog.Error().Err(err).Str("action", string(msg.Action)).Msg("Practice action failed")
		}
		return ws.WriteError(conn, response.GetMessage(code), string(code))
	}
	return ws.WriteState(conn, view)
}

func writeUnknownAction(conn *websocket.Conn) error {
	return ws.WriteError(conn, response.GetMessage(response.ErrUnknownAction), string(response.ErrUnknownAction))
}
