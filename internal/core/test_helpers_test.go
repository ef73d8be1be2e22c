package core

import (
	"slices"
	"sync"
	"testing"
	"time"
)

// fakeTransport keeps membership in join order and records every send.
type fakeTransport struct {
	mu       sync.Mutex
	rooms    map[string][]string
	memberOf map[string][]string
	inbox    map[string][]*Event
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		rooms:    make(map[string][]string),
		memberOf: make(map[string][]string),
		inbox:    make(map[string][]*Event),
	}
}

func (f *fakeTransport) Join(connID, room string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.rooms[room], connID) {
		return
	}
	f.rooms[room] = append(f.rooms[room], connID)
	f.memberOf[connID] = append(f.memberOf[connID], room)
}

func (f *fakeTransport) LeaveAll(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.memberOf[connID] {
		f.rooms[room] = slices.DeleteFunc(f.rooms[room], func(id string) bool { return id == connID })
		if len(f.rooms[room]) == 0 {
			delete(f.rooms, room)
		}
	}
	delete(f.memberOf, connID)
}

func (f *fakeTransport) Rooms(connID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.memberOf[connID])
}

func (f *fakeTransport) Members(room string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.rooms[room])
}

func (f *fakeTransport) RoomCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rooms)
}

func (f *fakeTransport) Send(connID string, event *Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox[connID] = append(f.inbox[connID], event)
}

func (f *fakeTransport) received(connID string) []*Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.inbox[connID])
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbox = make(map[string][]*Event)
}

func (f *fakeTransport) ofKind(connID string, kind EventKind) []*Event {
	var out []*Event
	for _, ev := range f.received(connID) {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func mustEvent(t *testing.T, f *fakeTransport, connID string, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if evs := f.ofKind(connID, kind); len(evs) > 0 {
			return evs[len(evs)-1]
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected event kind %v for %s not received", kind, connID)
	return nil
}
