package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/metrics"
)

const defaultCommandBuffer = 256

// Hub turns connection commands into room broadcasts. Commands are handled
// one at a time, so registry updates and membership reads never interleave.
type Hub struct {
	mu        sync.Mutex
	registry  *Registry
	transport Transport
	commands  chan Command
	done      chan struct{}
	log       *zerolog.Logger
	metrics   *metrics.Metrics
}

// Option customises a Hub.
type Option func(*Hub)

// WithMetrics records handled commands and room counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithCommandBuffer sets the capacity of the command queue.
func WithCommandBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.commands = make(chan Command, n)
		}
	}
}

// NewHub creates a hub over the given registry and transport.
func NewHub(registry *Registry, transport Transport, logger *zerolog.Logger, opts ...Option) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		registry:  registry,
		transport: transport,
		commands:  make(chan Command, defaultCommandBuffer),
		done:      make(chan struct{}),
		log:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes submitted commands until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.Handle(cmd)
		}
	}
}

// Submit queues a command for Run. It blocks while the queue is full.
func (h *Hub) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-h.done:
		return ErrHubStopped
	default:
	}
	select {
	case h.commands <- cmd:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handle executes a single command synchronously.
func (h *Hub) Handle(cmd Command) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch cmd.Kind {
	case CommandJoin:
		h.join(cmd)
	case CommandCodeChange:
		h.codeChange(cmd)
	case CommandSyncCode:
		h.syncCode(cmd)
	case CommandDisconnect:
		h.disconnect(cmd.ConnID)
	default:
		h.log.Warn().Int("kind", int(cmd.Kind)).Str("conn_id", cmd.ConnID).Msg("unknown command")
		return
	}
	h.metrics.CommandHandled(cmd.Kind.String())
	h.metrics.SetRooms(h.transport.RoomCount())
}

// Stats reports the number of rooms and of joined connections.
func (h *Hub) Stats() (rooms, clients int) {
	return h.transport.RoomCount(), h.registry.Len()
}

// Every member, including the joiner, receives the full roster.
func (h *Hub) join(cmd Command) {
	h.registry.Set(cmd.ConnID, cmd.Username)
	h.transport.Join(cmd.ConnID, cmd.Room)

	clients := h.registry.Snapshot(h.transport.Members(cmd.Room))
	event := &Event{
		Kind:     EventJoined,
		Room:     cmd.Room,
		ConnID:   cmd.ConnID,
		Username: cmd.Username,
		Clients:  clients,
	}
	for _, member := range clients {
		h.transport.Send(member.ConnID, event)
	}

	h.log.Info().
		Str("conn_id", cmd.ConnID).
		Str("room", cmd.Room).
		Str("username", cmd.Username).
		Int("members", len(clients)).
		Msg("joined room")
}

func (h *Hub) codeChange(cmd Command) {
	event := &Event{Kind: EventCodeChange, Room: cmd.Room, Code: cmd.Code}
	for _, id := range h.transport.Members(cmd.Room) {
		if id == cmd.ConnID {
			continue
		}
		h.transport.Send(id, event)
	}
}

// The target is not checked against any room; unknown targets are dropped by the transport.
func (h *Hub) syncCode(cmd Command) {
	h.transport.Send(cmd.Target, &Event{Kind: EventCodeChange, Code: cmd.Code})
}

// Membership and username are captured before anything is removed.
func (h *Hub) disconnect(connID string) {
	username, _ := h.registry.Get(connID)
	rooms := h.transport.Rooms(connID)

	event := &Event{Kind: EventDisconnected, ConnID: connID, Username: username}
	for _, room := range rooms {
		for _, id := range h.transport.Members(room) {
			if id == connID {
				continue
			}
			h.transport.Send(id, event)
		}
	}

	h.registry.Remove(connID)
	h.transport.LeaveAll(connID)

	h.log.Info().
		Str("conn_id", connID).
		Str("username", username).
		Strs("rooms", rooms).
		Msg("connection left")
}
