// Package registry tracks intent IDs currently claimed by the pipeline so
// the producer never hands the same intent to two workers at once.
package registry

import "sync"

// Registry is a set of in-flight intent IDs, safe for concurrent use by the
// producer and every worker.
type Registry struct {
	mu     sync.Mutex
	inFlight map[string]struct{}
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{inFlight: make(map[string]struct{})}
}

// Claim atomically adds any of the given IDs not already present and
// returns the subset that was newly added. IDs already claimed are
// ignored, not returned.
func (r *Registry) Claim(ids []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	newIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, exists := r.inFlight[id]; exists {
			continue
		}
		r.inFlight[id] = struct{}{}
		newIDs = append(newIDs, id)
	}
	return newIDs
}

// Release removes an ID from the in-flight set. Safe to call even if the ID
// was never claimed.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, id)
}

// Len reports how many IDs are currently claimed, for the /status endpoint.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}
