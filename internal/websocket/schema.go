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
	EventError    Event = "error"
	EventHello    Event = "hello"
	EventResponse Event = "response"
	EventPong     Event = "pong"
)

// HelloResponse is sent once after a successful subscribe, carrying the
// survey's current response counts so the dashboard renders immediately.
type HelloResponse struct {
	Event     Event  `json:"event"`
	SurveyID  string `json:"survey_id"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
}

// ResponseEvent forwards one submitted response to the dashboard. Payload is
// the raw live event JSON as published on the survey's Redis channel.
type ResponseEvent struct {
	Event   Event  `json:"event"`
	Payload string `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
