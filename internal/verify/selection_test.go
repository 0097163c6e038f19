package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func runWithStates(states map[string]State, order []string) *Run {
	run := &Run{
		ID:       "test-run",
		states:   make(map[string]*jobState, len(states)),
		cancelCh: make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for id, st := range states {
		run.states[id] = &jobState{state: st}
	}
	run.order = order
	return run
}

func TestSelectByOutcome(t *testing.T) {
	run := runWithStates(map[string]State{
		"a1": StateSucceeded,
		"a2": StateFailed,
		"a3": StateSucceeded,
		"a4": StatePending,
	}, []string{"a1", "a2", "a3", "a4"})

	assert.Equal(t, []string{"a1", "a3"}, SelectByOutcome(run, StateSucceeded, nil))
	assert.Equal(t, []string{"a2"}, SelectByOutcome(run, StateFailed, nil))
	assert.Equal(t, []string{"a4"}, SelectByOutcome(run, StatePending, nil))
}

func TestSelectByOutcomeRespectsView(t *testing.T) {
	run := runWithStates(map[string]State{
		"a1": StateSucceeded,
		"a2": StateSucceeded,
		"a3": StateSucceeded,
	}, []string{"a1", "a2", "a3"})

	// Jobs outside the active view are excluded even though they match.
	assert.Equal(t, []string{"a1", "a3"},
		SelectByOutcome(run, StateSucceeded, []string{"a1", "a3", "a9"}))

	// Nil and empty views mean no restriction.
	assert.Equal(t, []string{"a1", "a2", "a3"},
		SelectByOutcome(run, StateSucceeded, nil))
	assert.Equal(t, []string{"a1", "a2", "a3"},
		SelectByOutcome(run, StateSucceeded, []string{}))
}

func TestSelectByOutcomeEmptyResultIsNotNil(t *testing.T) {
	run := runWithStates(map[string]State{
		"a1": StateSucceeded,
	}, []string{"a1"})

	got := SelectByOutcome(run, StateFailed, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	run := runWithStates(map[string]State{"a1": StatePending}, []string{"a1"})
	reg.Add(run)

	got, ok := reg.Get(run.ID)
	assert.True(t, ok)
	assert.Same(t, run, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	assert.True(t, reg.Clear(run.ID))
	_, ok = reg.Get(run.ID)
	assert.False(t, ok)

	// Clear cancels the run so a still-active batch stops admitting work.
	select {
	case <-run.cancelCh:
	default:
		t.Fatal("expected Clear to cancel the run")
	}

	assert.False(t, reg.Clear(run.ID))
}
