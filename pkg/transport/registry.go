package transport

import (
	"sort"
)

// Registry maps protocols to their adapters. It is populated at start-up
// and only read afterwards.
type Registry struct {
	adapters map[Protocol]Adapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[Protocol]Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds an adapter, replacing any adapter for the same protocol.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Protocol()] = a
}

// Get returns the adapter for a protocol.
func (r *Registry) Get(p Protocol) (Adapter, error) {
	if a, ok := r.adapters[p]; ok {
		return a, nil
	}
	return nil, NewTransportError(KindUnknownProtocol, "Unknown protocol '%s'", p)
}

// Protocols returns the registered protocols, sorted.
func (r *Registry) Protocols() []Protocol {
	out := make([]Protocol, 0, len(r.adapters))
	for p := range r.adapters {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of registered adapters.
func (r *Registry) Count() int {
	return len(r.adapters)
}
