package runlock

import (
	"sync"

	"github.com/google/uuid"
)

// Registry gives each project at most one orchestrator run at a time.
// Different projects are fully independent.
type Registry struct {
	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[uuid.UUID]struct{})}
}

// TryAcquire returns a release func, or false when a run for the project is
// already in flight.
func (r *Registry) TryAcquire(projectID uuid.UUID) (func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.active[projectID]; busy {
		return nil, false
	}
	r.active[projectID] = struct{}{}
	return func() {
		r.mu.Lock()
		delete(r.active, projectID)
		r.mu.Unlock()
	}, true
}

func (r *Registry) Busy(projectID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.active[projectID]
	return busy
}
