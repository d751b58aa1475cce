package websocket

import "github.com/stemsi/quizprep-backend/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

// ActionPing keeps the connection alive. Every other action is a practice
// action and uses model.ActionKind values.
const ActionPing model.ActionKind = "ping"

// RequestEnvelope is one client message. Only the fields the action needs are read.
type RequestEnvelope struct {
	model.PracticeAction
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState Event = "state"
	EventError Event = "error"
	EventPong  Event = "pong"
)

// StateResponse carries the session view after a successful action.
type StateResponse struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

// ErrorResponse reports a rejected action. The session is unchanged.
type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
