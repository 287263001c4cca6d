package jobs

import (
	"encoding/hex"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned when looking up an unknown job identifier.
var ErrJobNotFound = errors.New("job not found")

// Registry is the concurrent-safe store of all live jobs. Runner
// goroutines publish through the jobs it hands out; removal is left to
// an external retention policy, never done by the core.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*Job)}
}

// Create registers a new pending job under a fresh opaque identifier.
func (r *Registry) Create() *Job {
	u := uuid.New()
	job := newJob(hex.EncodeToString(u[:]))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return job
}

// Get looks up a job by identifier.
func (r *Registry) Get(id string) (*Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Len reports the number of registered jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}
