// Package verify runs bounded batches of remote verification calls against
// the gateway and aggregates their outcomes.
package verify

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the lifecycle of a single verification job.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// DefaultConcurrency is the admission cap used when the caller passes none.
const DefaultConcurrency = 3

// Verifier issues one remote test call. Timeouts are the transport's
// concern; the scheduler only knows cancellation.
type Verifier interface {
	VerifyAssociation(ctx context.Context, id string) error
	VerifyModel(ctx context.Context, providerID, modelName string) error
}

// Job identifies one verification target: either an existing association or
// a not-yet-associated provider/model pair.
type Job struct {
	ID            string `json:"id"`
	AssociationID string `json:"association_id,omitempty"`
	ProviderID    string `json:"provider_id,omitempty"`
	ModelName     string `json:"model_name,omitempty"`
}

// AssociationJob builds a job keyed by the association id.
func AssociationJob(associationID string) Job {
	return Job{ID: associationID, AssociationID: associationID}
}

// ModelJob builds a job keyed by the provider/model pair.
func ModelJob(providerID, modelName string) Job {
	return Job{ID: providerID + "/" + modelName, ProviderID: providerID, ModelName: modelName}
}

// Progress is an immutable counter snapshot. At every observable point
// Completed = Succeeded + Failed <= Total and Testing never exceeds the
// configured cap.
type Progress struct {
	Total     int  `json:"total"`
	Completed int  `json:"completed"`
	Succeeded int  `json:"succeeded"`
	Failed    int  `json:"failed"`
	Testing   int  `json:"testing"`
	Cancelled bool `json:"cancelled"`
	Finished  bool `json:"finished"`
}

// JobStatus is the externally visible state of one job.
type JobStatus struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Error string `json:"error,omitempty"`
}

type jobState struct {
	state State
	err   string
}

// Run is the handle for one verification batch. All state mutation happens
// on the scheduler goroutine; readers get copies under the mutex.
type Run struct {
	ID string

	mu       sync.Mutex
	states   map[string]*jobState
	order    []string
	progress Progress

	cancelOnce sync.Once
	cancelCh   chan struct{}
	doneCh     chan struct{}
}

// Progress returns the latest published snapshot.
func (r *Run) Progress() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.progress
}

// Jobs returns every job's current state in submission order. Completion
// order is not submission order; callers must not assume otherwise.
func (r *Run) Jobs() []JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]JobStatus, 0, len(r.order))
	for _, id := range r.order {
		js := r.states[id]
		out = append(out, JobStatus{ID: id, State: js.state, Error: js.err})
	}
	return out
}

// Cancel stops admission of new work. In-flight calls always run to
// completion so no job is left in an unknown status; the run finishes once
// the in-flight set drains to zero.
func (r *Run) Cancel() {
	r.cancelOnce.Do(func() {
		close(r.cancelCh)
	})
}

// Done is closed when the run reaches its final state, cancelled or not.
func (r *Run) Done() <-chan struct{} {
	return r.doneCh
}

// Wait blocks until the run finishes and returns the final snapshot.
func (r *Run) Wait() Progress {
	<-r.doneCh
	return r.Progress()
}

// setState transitions one job and republishes the counters.
func (r *Run) setState(id string, state State, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	js := r.states[id]
	js.state = state
	js.err = errText

	switch state {
	case StateRunning:
		r.progress.Testing++
	case StateSucceeded:
		r.progress.Testing--
		r.progress.Succeeded++
		r.progress.Completed++
	case StateFailed:
		r.progress.Testing--
		r.progress.Failed++
		r.progress.Completed++
	}
}

func (r *Run) markCancelled() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress.Cancelled = true
	for _, id := range r.order {
		if r.states[id].state == StatePending {
			r.states[id].state = StateCancelled
		}
	}
}

func (r *Run) finish() {
	r.mu.Lock()
	r.progress.Finished = true
	r.mu.Unlock()
	close(r.doneCh)
}

// Scheduler dispatches verification jobs with a sliding admission window:
// whenever there is spare capacity, queued work, and no cancellation, the
// next job goes out immediately. It never retries; a fresh Start over the
// failed subset is the retry path.
type Scheduler struct {
	verifier Verifier
	logger   *zap.Logger
}

func NewScheduler(verifier Verifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{verifier: verifier, logger: logger}
}

type result struct {
	jobID string
	err   error
}

// Start begins a run over the given jobs and returns its handle
// immediately. A non-positive limit falls back to DefaultConcurrency.
func (s *Scheduler) Start(ctx context.Context, jobs []Job, limit int) (*Run, error) {
	if len(jobs) == 0 {
		return nil, errors.New("no jobs to verify")
	}
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	run := &Run{
		ID:       uuid.New().String(),
		states:   make(map[string]*jobState, len(jobs)),
		cancelCh: make(chan struct{}),
		doneCh:   make(chan struct{}),
	}

	queue := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if _, dup := run.states[job.ID]; dup {
			continue
		}
		run.states[job.ID] = &jobState{state: StatePending}
		run.order = append(run.order, job.ID)
		queue = append(queue, job)
	}
	run.progress = Progress{Total: len(queue)}

	go s.loop(ctx, run, queue, limit)

	return run, nil
}

// loop is the single thread of control. Workers only report back over the
// results channel; every counter mutation happens here.
func (s *Scheduler) loop(ctx context.Context, run *Run, queue []Job, limit int) {
	defer run.finish()

	results := make(chan result)
	inflight := 0
	cancelled := false
	cancelCh := run.cancelCh
	ctxDone := ctx.Done()

	dispatch := func(job Job) {
		run.setState(job.ID, StateRunning, "")
		inflight++
		go func() {
			results <- result{jobID: job.ID, err: s.verifyOne(ctx, job)}
		}()
	}

	cancelNow := func() {
		cancelCh, ctxDone = nil, nil
		cancelled = true
		queue = nil
		run.markCancelled()
	}

	for {
		// A pending cancellation must win over a ready result, or a
		// completion racing with Cancel could admit one more job.
		if !cancelled {
			select {
			case <-cancelCh:
				cancelNow()
				s.logger.Info("Verification run cancelled, draining in-flight jobs",
					zap.String("run_id", run.ID),
					zap.Int("in_flight", inflight))
			case <-ctxDone:
				cancelNow()
			default:
			}
		}

		// Refill every free slot before blocking. Admission stops the
		// moment cancellation is observed; nothing already dispatched is
		// interrupted.
		for !cancelled && inflight < limit && len(queue) > 0 {
			dispatch(queue[0])
			queue = queue[1:]
		}

		if inflight == 0 {
			return
		}

		select {
		case res := <-results:
			inflight--
			if res.err != nil {
				run.setState(res.jobID, StateFailed, res.err.Error())
			} else {
				run.setState(res.jobID, StateSucceeded, "")
			}
		case <-cancelCh:
			cancelNow()
			s.logger.Info("Verification run cancelled, draining in-flight jobs",
				zap.String("run_id", run.ID),
				zap.Int("in_flight", inflight))
		case <-ctxDone:
			cancelNow()
		}
	}
}

func (s *Scheduler) verifyOne(ctx context.Context, job Job) error {
	if job.AssociationID != "" {
		return s.verifier.VerifyAssociation(ctx, job.AssociationID)
	}
	return s.verifier.VerifyModel(ctx, job.ProviderID, job.ModelName)
}
