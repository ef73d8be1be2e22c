package ws

import (
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/core"
	"github.com/vovakirdan/coderelay/internal/metrics"
)

// Sink receives events for one connection.
type Sink interface {
	// Enqueue queues an event without blocking. It reports false if the event was dropped.
	Enqueue(event *core.Event) bool
	// Close terminates the underlying connection.
	Close(reason string)
}

// Adapter tracks room membership and routes events to connection sinks.
// It implements core.Transport.
type Adapter struct {
	mu          sync.RWMutex
	sinks       map[string]Sink
	rooms       map[string]*room
	memberships map[string][]string
	log         *zerolog.Logger
	metrics     *metrics.Metrics
}

var _ core.Transport = (*Adapter)(nil)

// NewAdapter returns an adapter with no connections.
func NewAdapter(logger *zerolog.Logger, m *metrics.Metrics) *Adapter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Adapter{
		sinks:       make(map[string]Sink),
		rooms:       make(map[string]*room),
		memberships: make(map[string][]string),
		log:         logger,
		metrics:     m,
	}
}

// Attach makes a connection reachable through Send.
func (a *Adapter) Attach(id string, sink Sink) {
	a.mu.Lock()
	a.sinks[id] = sink
	count := len(a.sinks)
	a.mu.Unlock()

	a.metrics.ConnectionOpened()
	a.log.Debug().Str("conn_id", id).Int("connections", count).Msg("connection attached")
}

// Detach stops routing events to a connection. Room membership is left to LeaveAll.
func (a *Adapter) Detach(id string) {
	a.mu.Lock()
	_, ok := a.sinks[id]
	delete(a.sinks, id)
	count := len(a.sinks)
	a.mu.Unlock()

	if !ok {
		return
	}
	a.metrics.ConnectionClosed()
	a.log.Debug().Str("conn_id", id).Int("connections", count).Msg("connection detached")
}

func (a *Adapter) Join(id, name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, exists := a.rooms[name]
	if !exists {
		r = newRoom(name)
		a.rooms[name] = r
	}
	if r.add(id) {
		a.memberships[id] = append(a.memberships[id], name)
	}
}

// LeaveAll removes the connection from its rooms and deletes rooms left empty.
func (a *Adapter) LeaveAll(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, name := range a.memberships[id] {
		r, ok := a.rooms[name]
		if !ok {
			continue
		}
		r.remove(id)
		if r.empty() {
			delete(a.rooms, name)
			a.log.Debug().Str("room", name).Msg("room removed")
		}
	}
	delete(a.memberships, id)
}

func (a *Adapter) Rooms(id string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.memberships[id])
}

func (a *Adapter) Members(name string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.rooms[name]
	if !ok {
		return nil
	}
	return r.ids()
}

func (a *Adapter) RoomCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.rooms)
}

func (a *Adapter) Send(id string, event *core.Event) {
	a.mu.RLock()
	sink, ok := a.sinks[id]
	a.mu.RUnlock()

	kind := event.Kind.String()
	if !ok {
		a.metrics.EventDropped(kind, "unknown_conn")
		return
	}
	if !sink.Enqueue(event) {
		a.metrics.EventDropped(kind, "queue_full")
		a.log.Warn().Str("conn_id", id).Str("event", kind).Msg("send queue full, dropping event")
		return
	}
	a.metrics.EventDelivered(kind)
}

// CloseAll closes every attached connection.
func (a *Adapter) CloseAll(reason string) int {
	a.mu.RLock()
	sinks := make([]Sink, 0, len(a.sinks))
	for _, s := range a.sinks {
		sinks = append(sinks, s)
	}
	a.mu.RUnlock()

	for _, s := range sinks {
		s.Close(reason)
	}
	return len(sinks)
}
