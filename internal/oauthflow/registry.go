package oauthflow

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/skillcred/skillcred/internal/assert"
)

const ulidLength = 26

// Registry keeps flows reachable between the callback page and its event
// stream. Flows are closed and dropped after ttl.
type Registry struct {
	ttl time.Duration

	mu    sync.Mutex
	flows map[string]*registered
}

type registered struct {
	flow  *Flow
	timer *time.Timer
}

// NewRegistry creates an empty registry
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:   ttl,
		flows: make(map[string]*registered),
	}
}

// Add stores f and returns its id
func (r *Registry) Add(f *Flow) string {
	id := ulid.Make().String()
	assert.Length(id, ulidLength)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.flows[id] = &registered{
		flow:  f,
		timer: time.AfterFunc(r.ttl, func() { r.Remove(id) }),
	}
	return id
}

// Get returns the flow with id
func (r *Registry) Get(id string) (*Flow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.flows[id]
	if !ok {
		return nil, false
	}
	return entry.flow, true
}

// Remove closes and drops the flow with id
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	entry, ok := r.flows[id]
	delete(r.flows, id)
	r.mu.Unlock()

	if !ok {
		return
	}
	entry.timer.Stop()
	entry.flow.Close()
}

// Len returns the number of live flows
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.flows)
}

// CloseAll closes every flow, used on shutdown
func (r *Registry) CloseAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.flows))
	for id := range r.flows {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Remove(id)
	}
}
