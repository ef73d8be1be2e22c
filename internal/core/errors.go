package core

import "errors"

// Error codes reported to clients for malformed requests.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnknownEvent = "unknown_event"
)

// ErrHubStopped is returned by Submit once Run has exited.
var ErrHubStopped = errors.New("hub stopped")

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// NewError builds an EventError addressed to the offending connection.
func NewError(code, msg string) *Event {
	return &Event{Kind: EventError, Error: &CoreError{Code: code, Message: msg}}
}
