package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError Event = "error"
	EventReady Event = "ready"
	EventPong  Event = "pong"
)

// ReadyResponse confirms the subscription is live. Sent once after the
// upgrade, before any session events are forwarded.
type ReadyResponse struct {
	Event     Event  `json:"event"`
	SessionID string `json:"session_id"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
