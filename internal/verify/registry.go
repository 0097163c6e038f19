package verify

import "sync"

// Registry tracks live runs by id. Runs are ephemeral: Clear drops all job
// states and counters without touching any underlying records.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Run)}
}

func (r *Registry) Add(run *Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
}

func (r *Registry) Get(id string) (*Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	return run, ok
}

// Clear cancels the run if still active and discards its state.
func (r *Registry) Clear(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return false
	}
	run.Cancel()
	delete(r.runs, id)
	return true
}
