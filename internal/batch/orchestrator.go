// Package batch runs independent generation tasks on a small fixed worker pool.
//
// Failures are isolated per task: a task that errors or panics is recorded in
// the batch's error list and counted as completed, and the remaining tasks keep
// running. Tasks are never retried.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// DefaultWorkers is the pool size used when Workers is not positive.
const DefaultWorkers = 2

var (
	// ErrNilTasks is returned when Run is called without a task list.
	ErrNilTasks = errors.New("batch: nil task list")
	// ErrBusy is returned when Run is called while a batch is running.
	ErrBusy = errors.New("batch: a batch is already running")
)

// TaskFunc generates and persists the logo for one task.
type TaskFunc func(ctx context.Context, task models.Task) error

// Recorder receives batch and task timings. Implementations must be safe for
// concurrent use.
type Recorder interface {
	BatchStarted()
	BatchFinished()
	TaskDone(success bool, d time.Duration)
}

// Orchestrator drains a FIFO task queue with a fixed pool of workers.
// One orchestrator runs one batch at a time.
type Orchestrator struct {
	workers  int
	exec     TaskFunc
	progress *Progress
	recorder Recorder
	logger   *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers sets the pool size.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) { o.workers = n }
}

// WithObserver registers a callback invoked after every progress change.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) { o.progress.observer = obs }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithLogger sets the logger. slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an idle orchestrator that runs exec for every task.
func New(exec TaskFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		workers:  DefaultWorkers,
		exec:     exec,
		progress: NewProgress(nil),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	return o
}

// Workers returns the pool size.
func (o *Orchestrator) Workers() int {
	return o.workers
}

// State returns the orchestrator's lifecycle state.
func (o *Orchestrator) State() State {
	return o.progress.State()
}

// Progress returns a snapshot of the current or last batch.
func (o *Orchestrator) Progress() models.BatchProgress {
	return o.progress.Snapshot()
}

// Reset returns a finished orchestrator to Idle.
func (o *Orchestrator) Reset() {
	o.progress.Reset()
}

// Run executes every task and blocks until the queue is drained.
//
// The returned progress always has Completed == Total; len(Errors) is the
// number of failed tasks. When ctx is cancelled, tasks not yet started are
// recorded as failed with the context error instead of being executed.
func (o *Orchestrator) Run(ctx context.Context, tasks []models.Task) (models.BatchProgress, error) {
	if tasks == nil {
		return models.BatchProgress{}, ErrNilTasks
	}
	if !o.progress.start(len(tasks)) {
		return o.progress.Snapshot(), ErrBusy
	}
	if o.recorder != nil {
		o.recorder.BatchStarted()
		defer o.recorder.BatchFinished()
	}

	start := time.Now()
	o.logger.Info("batch started", "tasks", len(tasks), "workers", o.workers)

	queue := make(chan models.Task, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	var wg sync.WaitGroup
	for i := 0; i < o.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for task := range queue {
				o.process(ctx, workerID, task)
			}
		}(i)
	}
	wg.Wait()

	result := o.progress.finish()
	o.logger.Info("batch finished",
		"total", result.Total,
		"failed", len(result.Errors),
		"duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

func (o *Orchestrator) process(ctx context.Context, workerID int, task models.Task) {
	if err := ctx.Err(); err != nil {
		if o.recorder != nil {
			o.recorder.TaskDone(false, 0)
		}
		o.progress.fail(models.TaskError{PromptText: task.PromptText, ErrorMessage: err.Error()})
		return
	}

	o.progress.setCurrent(task.PromptText)

	start := time.Now()
	err := o.safeExec(ctx, task)
	elapsed := time.Since(start)
	if o.recorder != nil {
		o.recorder.TaskDone(err == nil, elapsed)
	}

	if err != nil {
		o.logger.Warn("batch task failed", "worker", workerID, "prompt", truncate(task.PromptText, 60), "error", err)
		o.progress.fail(models.TaskError{PromptText: task.PromptText, ErrorMessage: err.Error()})
		return
	}
	o.logger.Debug("batch task done", "worker", workerID, "duration_ms", elapsed.Milliseconds())
	o.progress.succeed()
}

func (o *Orchestrator) safeExec(ctx context.Context, task models.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return o.exec(ctx, task)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
