package core

import "sync"

// Member is one entry of a room roster.
type Member struct {
	ConnID   string
	Username string
}

// Registry maps connection ids to the display name supplied on join.
// It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]string)}
}

// Set inserts or overwrites the username for a connection.
func (r *Registry) Set(connID, username string) {
	r.mu.Lock()
	r.names[connID] = username
	r.mu.Unlock()
}

// Get returns the username and whether an entry exists.
func (r *Registry) Get(connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[connID]
	return name, ok
}

// Remove deletes the entry if present. Removing an absent id is a no-op.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	delete(r.names, connID)
	r.mu.Unlock()
}

// Len reports the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Snapshot resolves the given ids to roster entries, preserving order.
// Ids without an entry resolve to an empty username.
func (r *Registry) Snapshot(connIDs []string) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]Member, 0, len(connIDs))
	for _, id := range connIDs {
		members = append(members, Member{ConnID: id, Username: r.names[id]})
	}
	return members
}
