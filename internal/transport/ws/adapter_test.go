package ws

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/coderelay/internal/core"
	"github.com/vovakirdan/coderelay/internal/metrics"
)

type mockSink struct {
	mu       sync.Mutex
	capacity int
	received []*core.Event
	closed   string
}

func (m *mockSink) Enqueue(ev *core.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.capacity > 0 && len(m.received) >= m.capacity {
		return false
	}
	m.received = append(m.received, ev)
	return true
}

func (m *mockSink) Close(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = reason
}

func (m *mockSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

func TestAdapterMembershipOrder(t *testing.T) {
	a := NewAdapter(nil, nil)

	a.Join("b", "r1")
	a.Join("a", "r1")
	a.Join("b", "r1")
	a.Join("b", "r2")

	assert.Equal(t, []string{"b", "a"}, a.Members("r1"))
	assert.Equal(t, []string{"r1", "r2"}, a.Rooms("b"))
	assert.Equal(t, 2, a.RoomCount())
	assert.Nil(t, a.Members("ghost"))
	assert.Empty(t, a.Rooms("ghost"))
}

func TestAdapterLeaveAllRemovesEmptyRooms(t *testing.T) {
	a := NewAdapter(nil, nil)
	a.Join("a", "r1")
	a.Join("b", "r1")
	a.Join("a", "r2")

	a.LeaveAll("a")

	assert.Equal(t, []string{"b"}, a.Members("r1"))
	assert.Nil(t, a.Members("r2"))
	assert.Equal(t, 1, a.RoomCount())
	assert.Empty(t, a.Rooms("a"))

	assert.NotPanics(t, func() { a.LeaveAll("a") })
}

func TestAdapterSendRoutesAndDrops(t *testing.T) {
	reg := prometheus.NewRegistry()
	a := NewAdapter(nil, metrics.New(reg))

	fast := &mockSink{}
	slow := &mockSink{capacity: 1}
	a.Attach("fast", fast)
	a.Attach("slow", slow)

	ev := &core.Event{Kind: core.EventCodeChange}
	a.Send("slow", ev)
	a.Send("slow", ev)
	a.Send("fast", ev)
	a.Send("nobody", ev)

	assert.Equal(t, 1, slow.count())
	assert.Equal(t, 1, fast.count())

	a.Detach("fast")
	a.Send("fast", ev)
	assert.Equal(t, 1, fast.count())
}

func TestAdapterDetachKeepsMembership(t *testing.T) {
	a := NewAdapter(nil, nil)
	a.Attach("a", &mockSink{})
	a.Join("a", "r1")

	a.Detach("a")
	assert.Equal(t, []string{"r1"}, a.Rooms("a"))
}

func TestAdapterCloseAll(t *testing.T) {
	a := NewAdapter(nil, nil)
	s1, s2 := &mockSink{}, &mockSink{}
	a.Attach("1", s1)
	a.Attach("2", s2)

	require.Equal(t, 2, a.CloseAll("bye"))
	assert.Equal(t, "bye", s1.closed)
	assert.Equal(t, "bye", s2.closed)
}

func TestAdapterAsHubTransport(t *testing.T) {
	a := NewAdapter(nil, nil)
	hub := core.NewHub(core.NewRegistry(), a, nil)

	sa, sb := &mockSink{}, &mockSink{}
	a.Attach("A", sa)
	a.Attach("B", sb)

	hub.Handle(core.Command{Kind: core.CommandJoin, ConnID: "A", Room: "abc", Username: "Neo"})
	hub.Handle(core.Command{Kind: core.CommandJoin, ConnID: "B", Room: "abc", Username: "Trinity"})
	assert.Equal(t, 2, sa.count())
	assert.Equal(t, 1, sb.count())

	hub.Handle(core.Command{Kind: core.CommandDisconnect, ConnID: "B"})
	assert.Equal(t, 3, sa.count())
	assert.Equal(t, []string{"A"}, a.Members("abc"))
}
