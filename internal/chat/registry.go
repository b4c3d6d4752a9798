package chat

import "github.com/samber/lo"

// Registry maps live connection identifiers to their handles, in the order
// the connections arrived.
type Registry struct {
	handles map[ConnectionID]Handle
	order   []ConnectionID
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[ConnectionID]Handle)}
}

// Register records h under id. Registering an id twice replaces the handle
// and keeps its position.
func (r *Registry) Register(id ConnectionID, h Handle) {
	if _, ok := r.handles[id]; !ok {
		r.order = append(r.order, id)
	}
	r.handles[id] = h
}

// Unregister forgets id and reports whether it was present.
func (r *Registry) Unregister(id ConnectionID) bool {
	if _, ok := r.handles[id]; !ok {
		return false
	}
	delete(r.handles, id)
	r.order = lo.Without(r.order, id)
	return true
}

func (r *Registry) Get(id ConnectionID) (Handle, bool) {
	h, ok := r.handles[id]
	return h, ok
}

func (r *Registry) Len() int {
	return len(r.handles)
}

// Each calls fn for every connection in arrival order.
func (r *Registry) Each(fn func(id ConnectionID, h Handle)) {
	for _, id := range r.order {
		fn(id, r.handles[id])
	}
}
