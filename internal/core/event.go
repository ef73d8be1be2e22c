package core

import "encoding/json"

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventJoined carries the full room roster after a join.
	EventJoined EventKind = iota
	// EventCodeChange carries relayed content.
	EventCodeChange
	// EventDisconnected announces that a connection left.
	EventDisconnected
	// EventError reports a malformed request back to its sender.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined"
	case EventCodeChange:
		return "code_change"
	case EventDisconnected:
		return "disconnected"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// A single Event may be queued for several recipients and must not be mutated.
type Event struct {
	Kind     EventKind
	Room     string
	ConnID   string
	Username string
	Clients  []Member // EventJoined
	Code     json.RawMessage
	Error    *CoreError
}
