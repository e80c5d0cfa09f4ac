package websocket

import "github.com/hackmate/hackathon-console/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is the only message shape a board client sends.
type RequestEnvelope struct {
	Action   Action `json:"action"`
	Viewport string `json:"viewport,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventPong  Event = "pong"
	EventPing  Event = "ping"
	// EventBoard carries a full board snapshot.
	EventBoard Event = "board"
	// EventBoardEvent forwards a board channel message.
	EventBoardEvent Event = "board_event"
)

// BoardResponse wraps a board snapshot. Board is the JSON of the console's
// board view.
type BoardResponse struct {
	Event Event `json:"event"`
	Board any   `json:"board"`
}

type BoardEventResponse struct {
	Event Event            `json:"event"`
	Data  model.BoardEvent `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

type PingResponse struct {
	Event Event `json:"event"`
}
