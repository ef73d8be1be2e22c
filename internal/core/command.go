package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoin registers the username and subscribes the connection to a room.
	CommandJoin CommandKind = iota
	// CommandCodeChange relays content to the rest of a room.
	CommandCodeChange
	// CommandSyncCode pushes content to a single connection.
	CommandSyncCode
	// CommandDisconnect tears the connection down and notifies its rooms.
	CommandDisconnect
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoin:
		return "join"
	case CommandCodeChange:
		return "code_change"
	case CommandSyncCode:
		return "sync_code"
	case CommandDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a connection.
type Command struct {
	Kind     CommandKind
	ConnID   string
	Room     string
	Username string
	// Target is the recipient of CommandSyncCode.
	Target string
	// Code is relayed verbatim.
	Code json.RawMessage
}
