package session

import "encoding/json"

// Message is the wire envelope: an action string plus an action-specific
// payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload is attached to the action that was rejected, so the client can
// correlate the failure with its request.
type ErrorPayload struct {
	Error string `json:"error"`
}
