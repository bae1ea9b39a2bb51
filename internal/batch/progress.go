package batch

import (
	"slices"
	"sync"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// State is the lifecycle position of an orchestrator.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateFinished State = "finished"
)

// Observer receives a progress snapshot after every change.
// It is called synchronously from worker goroutines and must not block for long.
// Calls are serialized and arrive in the order the changes were made.
type Observer func(models.BatchProgress)

// Progress is the shared, mutex-guarded progress record of one batch.
type Progress struct {
	// notifyMu is held from a change through its delivery, so observers see
	// snapshots in order. It is always taken before mu.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State
	total    int
	done     int
	current  string
	errors   []models.TaskError
	observer Observer
}

// NewProgress returns an idle progress tracker.
func NewProgress(observer Observer) *Progress {
	return &Progress{state: StateIdle, observer: observer}
}

// start moves Idle or Finished to Running and resets counters.
// It reports false when a batch is already running.
func (p *Progress) start(total int) bool {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.state == StateRunning {
		p.mu.Unlock()
		return false
	}
	p.state = StateRunning
	p.total = total
	p.done = 0
	p.current = ""
	p.errors = nil
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(snap)
	return true
}

func (p *Progress) setCurrent(prompt string) {
	p.update(func() { p.current = prompt })
}

func (p *Progress) succeed() {
	p.update(func() { p.done++ })
}

// fail records the error and counts the task as processed in one step,
// so observers never see an error without its completion.
func (p *Progress) fail(taskErr models.TaskError) {
	p.update(func() {
		p.errors = append(p.errors, taskErr)
		p.done++
	})
}

func (p *Progress) finish() models.BatchProgress {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.state = StateFinished
	p.current = ""
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(snap)
	return snap
}

// Reset returns a finished tracker to Idle. It is a no-op while running.
func (p *Progress) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateRunning {
		return
	}
	p.state = StateIdle
	p.total = 0
	p.done = 0
	p.current = ""
	p.errors = nil
}

// State returns the current lifecycle state.
func (p *Progress) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Snapshot returns a copy of the current progress.
func (p *Progress) Snapshot() models.BatchProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Progress) update(fn func()) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	fn()
	snap := p.snapshotLocked()
	p.mu.Unlock()

	p.notify(snap)
}

func (p *Progress) snapshotLocked() models.BatchProgress {
	return models.BatchProgress{
		Total:             p.total,
		Completed:         p.done,
		CurrentPromptText: p.current,
		Errors:            slices.Clone(p.errors),
	}
}

func (p *Progress) notify(snap models.BatchProgress) {
	if p.observer != nil {
		p.observer(snap)
	}
}
