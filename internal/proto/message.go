package proto

import "encoding/json"

// Event names shared by every client and server speaking the relay protocol.
const (
	EventJoin         = "join"
	EventJoined       = "joined"
	EventCodeChange   = "code-change"
	EventSyncCode     = "sync-code"
	EventDisconnected = "disconnected"

	TypeError = "error"
)

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// JoinData asks to join a room under a display name.
type JoinData struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

// CodeChangeData is content to relay to the rest of a room.
type CodeChangeData struct {
	RoomID string          `json:"roomId"`
	Code   json.RawMessage `json:"code"`
}

// SyncCodeData is content to push to one connection.
type SyncCodeData struct {
	SocketID string          `json:"socketId"`
	Code     json.RawMessage `json:"code"`
}

// Client is one roster entry.
type Client struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
}

// JoinedData is the roster broadcast after a join.
type JoinedData struct {
	Clients  []Client `json:"clients"`
	Username string   `json:"username"`
	SocketID string   `json:"socketId"`
}

// CodeData is relayed content.
type CodeData struct {
	Code json.RawMessage `json:"code"`
}

// DisconnectedData announces a departure.
type DisconnectedData struct {
	SocketID string `json:"socketId"`
	Username string `json:"username"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
