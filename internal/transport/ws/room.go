package ws

import "slices"

// room groups connections in the order they joined.
type room struct {
	name    string
	order   []string
	members map[string]struct{}
}

func newRoom(name string) *room {
	return &room{
		name:    name,
		members: make(map[string]struct{}),
	}
}

// add inserts a connection. Returns true if newly added.
func (r *room) add(id string) bool {
	if _, exists := r.members[id]; exists {
		return false
	}
	r.members[id] = struct{}{}
	r.order = append(r.order, id)
	return true
}

// remove deletes a connection. Returns true if removed.
func (r *room) remove(id string) bool {
	if _, exists := r.members[id]; !exists {
		return false
	}
	delete(r.members, id)
	r.order = slices.DeleteFunc(r.order, func(m string) bool { return m == id })
	return true
}

func (r *room) ids() []string {
	return slices.Clone(r.order)
}

func (r *room) empty() bool {
	return len(r.members) == 0
}
