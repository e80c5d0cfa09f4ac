package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/hackmate/hackathon-console/internal/middleware"
	"github.com/hackmate/hackathon-console/internal/model"
	"github.com/hackmate/hackathon-console/internal/response"
	"github.com/hackmate/hackathon-console/internal/service"
	"github.com/hackmate/hackathon-console/internal/teamboard"
	ws "github.com/hackmate/hackathon-console/internal/websocket"
)

const (
	keepAliveInterval = 30 * time.Second
	// refreshTimeout keeps a slow backend from stalling the stream loop.
	refreshTimeout = 5 * time.Second
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

// BoardReader renders the current board.
type BoardReader interface {
	Board(ctx context.Context, hackathonID string, claims *service.Claims, vp teamboard.Viewport) (service.BoardView, error)
}

// BoardSubscriber opens a hackathon's board event channel. stop releases it.
type BoardSubscriber interface {
	Subscribe(ctx context.Context, hackathonID string) (events <-chan model.BoardEvent, stop func(), err error)
}

// BoardStreamHandler pushes board events to organizers over WebSocket.
type BoardStreamHandler struct {
	boards   BoardReader
	events   BoardSubscriber
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewBoardStreamHandler creates a new BoardStreamHandler.
func NewBoardStreamHandler(boards BoardReader, events BoardSubscriber, log zerolog.Logger, allowedOrigins []string) *BoardStreamHandler {
	return &BoardStreamHandler{
		boards:   boards,
		events:   events,
		log:      log.With().Str("component", "board_stream_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// BoardStream godoc
// WS /ws/v1/admin/hackathons/:hackathon_id/board/stream?token=...&viewport=...
// Sends the board on connect, forwards every board event and re-sends the
// board after each reconcile.
func (h *BoardStreamHandler) BoardStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}
	hackathonID, ok := pathID(c, "hackathon_id")
	if !ok {
		return
	}
	vp, ok := parseViewport(c.Query("viewport"))
	if !ok {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"viewport": "viewport must be one of [narrow medium wide]"})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, stop, err := h.events.Subscribe(ctx, hackathonID)
	if err != nil {
		h.log.Error().Err(err).Str("hackathon_id", hackathonID).Msg("Board subscribe failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	defer stop()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("user_id", claims.UserID).
		Str("hackathon_id", hackathonID).
		Logger()
	wsLog.Info().Msg("Organizer attached to board stream")

	// gorilla allows one concurrent reader and one writer: the reader
	// goroutine only reads, this goroutine does all writes.
	actions := make(chan ws.RequestEnvelope)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if ws.IsClosed(err) {
					wsLog.Debug().Msg("Connection closed")
				} else {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			select {
			case actions <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	if err := h.sendBoard(ctx, conn, hackathonID, claims, vp); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-readerDone:
			wsLog.Info().Msg("Organizer detached from board stream")
			return

		case event, ok := <-events:
			if !ok {
				ws.WriteError(conn, "board stream closed")
				return
			}
			if err := ws.WriteTyped(conn, ws.BoardEventResponse{Event: ws.EventBoardEvent, Data: event}); err != nil {
				return
			}
			if event.Type == model.BoardEventReconcile {
				if err := h.sendBoard(ctx, conn, hackathonID, claims, vp); err != nil {
					return
				}
			}

		case msg := <-actions:
			var err error
			switch msg.Action {
			case ws.ActionPing:
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				if next, ok := parseViewport(msg.Viewport); ok {
					vp = next
				}
				err = h.sendBoard(ctx, conn, hackathonID, claims, vp)
			default:
				err = ws.WriteError(conn, "unknown action: "+string(msg.Action))
			}
			if err != nil {
				return
			}

		case <-keepAlive.C:
			if err := ws.WriteTyped(conn, ws.PingResponse{Event: ws.EventPing}); err != nil {
				return
			}
		}
	}
}

// sendBoard writes the current board. A failed backend fetch is reported to
// the client without closing the stream; only write errors are returned.
func (h *BoardStreamHandler) sendBoard(ctx context.Context, conn *websocket.Conn, hackathonID string, claims *service.Claims, vp teamboard.Viewport) error {
	fetchCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	board, err := h.boards.Board(fetchCtx, hackathonID, claims, vp)
	if err != nil {
		h.log.Warn().Err(err).Str("hackathon_id", hackathonID).Msg("Board refresh failed")
		return ws.WriteError(conn, "board unavailable")
	}
	return ws.WriteTyped(conn, ws.BoardResponse{Event: ws.EventBoard, Board: board})
}
