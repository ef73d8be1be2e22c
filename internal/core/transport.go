package core

// Transport is the connection layer the hub relies on. It owns room
// membership; the hub never caches who is in a room.
type Transport interface {
	// Join adds the connection to the room, creating the room if needed.
	Join(connID, room string)
	// LeaveAll removes the connection from every room it belongs to.
	LeaveAll(connID string)
	// Rooms lists the rooms the connection belongs to, in join order.
	Rooms(connID string) []string
	// Members lists the connections in the room, in join order.
	Members(room string) []string
	// RoomCount reports the number of non-empty rooms.
	RoomCount() int
	// Send queues an event for one connection without blocking.
	// Events for unknown or saturated connections are dropped.
	Send(connID string, event *Event)
}
