package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTasks(n int) []models.Task {
	tasks := make([]models.Task, n)
	for i := range tasks {
		tasks[i] = models.Task{PromptText: fmt.Sprintf("prompt %d", i+1)}
	}
	return tasks
}

func TestRun_IsolatesFailures(t *testing.T) {
	exec := func(ctx context.Context, task models.Task) error {
		if task.PromptText == "prompt 3" {
			return errors.New("image service rejected prompt")
		}
		return nil
	}
	o := New(exec, WithWorkers(2))

	got, err := o.Run(context.Background(), makeTasks(5))

	require.NoError(t, err)
	assert.Equal(t, 5, got.Total)
	assert.Equal(t, 5, got.Completed)
	assert.Equal(t, 4, got.Succeeded())
	require.Len(t, got.Errors, 1)
	assert.Equal(t, "prompt 3", got.Errors[0].PromptText)
	assert.Equal(t, "image service rejected prompt", got.Errors[0].ErrorMessage)
	assert.Equal(t, StateFinished, o.State())
}

func TestRun_BoundedConcurrency(t *testing.T) {
	tests := []struct {
		workers   int
		tasks     int
		failEvery int
	}{
		{workers: 1, tasks: 10, failEvery: 0},
		{workers: 1, tasks: 10, failEvery: 3},
		{workers: 2, tasks: 10, failEvery: 0},
		{workers: 2, tasks: 11, failEvery: 2},
		{workers: 5, tasks: 10, failEvery: 0},
		{workers: 5, tasks: 13, failEvery: 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("workers=%d/fail_every=%d", tt.workers, tt.failEvery), func(t *testing.T) {
			var (
				active   atomic.Int32
				peak     atomic.Int32
				mu       sync.Mutex
				executed = map[string]int{}
			)
			failing := map[string]bool{}
			for i := 1; tt.failEvery > 0 && i <= tt.tasks; i++ {
				if i%tt.failEvery == 0 {
					failing[fmt.Sprintf("prompt %d", i)] = true
				}
			}
			exec := func(ctx context.Context, task models.Task) error {
				n := active.Add(1)
				defer active.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				executed[task.PromptText]++
				mu.Unlock()
				if failing[task.PromptText] {
					return errors.New("render failed")
				}
				return nil
			}
			o := New(exec, WithWorkers(tt.workers))

			got, err := o.Run(context.Background(), makeTasks(tt.tasks))

			require.NoError(t, err)
			assert.Equal(t, tt.tasks, got.Completed)
			assert.Len(t, got.Errors, len(failing))
			assert.Equal(t, tt.tasks, got.Succeeded()+len(got.Errors))
			for _, e := range got.Errors {
				assert.True(t, failing[e.PromptText], e.PromptText)
			}
			assert.LessOrEqual(t, int(peak.Load()), tt.workers)
			assert.Len(t, executed, tt.tasks)
			for prompt, count := range executed {
				assert.Equal(t, 1, count, prompt)
			}
		})
	}
}

func TestRun_NilTasks(t *testing.T) {
	o := New(func(context.Context, models.Task) error { return nil })

	_, err := o.Run(context.Background(), nil)

	assert.ErrorIs(t, err, ErrNilTasks)
	assert.Equal(t, StateIdle, o.State())
}

func TestRun_EmptyTasks(t *testing.T) {
	o := New(func(context.Context, models.Task) error { return nil })

	got, err := o.Run(context.Background(), []models.Task{})

	require.NoError(t, err)
	assert.Equal(t, 0, got.Total)
	assert.Equal(t, 0, got.Percent())
	assert.Equal(t, StateFinished, o.State())
}

func TestRun_Busy(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	exec := func(ctx context.Context, task models.Task) error {
		once.Do(func() { close(started) })
		<-release
		return nil
	}
	o := New(exec, WithWorkers(1))

	done := make(chan models.BatchProgress)
	go func() {
		got, _ := o.Run(context.Background(), makeTasks(2))
		done <- got
	}()
	<-started

	assert.Equal(t, StateRunning, o.State())
	_, err := o.Run(context.Background(), makeTasks(1))
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	got := <-done
	assert.Equal(t, 2, got.Completed)

	o.Reset()
	assert.Equal(t, StateIdle, o.State())
	assert.Equal(t, 0, o.Progress().Total)
}

func TestRun_PublishesCurrentPromptBeforeExec(t *testing.T) {
	var o *Orchestrator
	var mismatches atomic.Int32
	exec := func(ctx context.Context, task models.Task) error {
		if o.Progress().CurrentPromptText != task.PromptText {
			mismatches.Add(1)
		}
		return nil
	}
	o = New(exec, WithWorkers(1))

	_, err := o.Run(context.Background(), makeTasks(4))

	require.NoError(t, err)
	assert.Zero(t, mismatches.Load())
	assert.Empty(t, o.Progress().CurrentPromptText)
}

func TestRun_ObserverSeesMonotonicProgress(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			for range 20 {
				var (
					mu        sync.Mutex
					snapshots []models.BatchProgress
				)
				obs := func(p models.BatchProgress) {
					runtime.Gosched()
					mu.Lock()
					snapshots = append(snapshots, p)
					mu.Unlock()
				}
				exec := func(ctx context.Context, task models.Task) error {
					if task.PromptText == "prompt 2" {
						return errors.New("boom")
					}
					return nil
				}
				o := New(exec, WithWorkers(workers), WithObserver(obs))

				_, err := o.Run(context.Background(), makeTasks(50))
				require.NoError(t, err)

				require.NotEmpty(t, snapshots)
				last := snapshots[len(snapshots)-1]
				assert.Equal(t, 50, last.Completed)
				assert.Len(t, last.Errors, 1)
				for i := 1; i < len(snapshots); i++ {
					require.GreaterOrEqual(t, snapshots[i].Completed, snapshots[i-1].Completed,
						"completed went from %d to %d", snapshots[i-1].Completed, snapshots[i].Completed)
					assert.LessOrEqual(t, len(snapshots[i].Errors), snapshots[i].Completed)
				}
			}
		})
	}
}

func TestRun_RecoversPanics(t *testing.T) {
	exec := func(ctx context.Context, task models.Task) error {
		if task.PromptText == "prompt 1" {
			panic("nil image")
		}
		return nil
	}
	o := New(exec, WithWorkers(2))

	got, err := o.Run(context.Background(), makeTasks(3))

	require.NoError(t, err)
	assert.Equal(t, 3, got.Completed)
	require.Len(t, got.Errors, 1)
	assert.Contains(t, got.Errors[0].ErrorMessage, "nil image")
}

func TestRun_CancelledContext(t *testing.T) {
	var calls atomic.Int32
	exec := func(ctx context.Context, task models.Task) error {
		calls.Add(1)
		return nil
	}
	o := New(exec, WithWorkers(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := o.Run(ctx, makeTasks(4))

	require.NoError(t, err)
	assert.Zero(t, calls.Load())
	assert.Equal(t, 4, got.Completed)
	assert.Len(t, got.Errors, 4)
	assert.Equal(t, context.Canceled.Error(), got.Errors[0].ErrorMessage)
}

type fakeRecorder struct {
	mu       sync.Mutex
	started  int
	finished int
	ok       int
	failed   int
}

func (r *fakeRecorder) BatchStarted()  { r.mu.Lock(); r.started++; r.mu.Unlock() }
func (r *fakeRecorder) BatchFinished() { r.mu.Lock(); r.finished++; r.mu.Unlock() }
func (r *fakeRecorder) TaskDone(success bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if success {
		r.ok++
	} else {
		r.failed++
	}
}

func TestRun_Recorder(t *testing.T) {
	rec := &fakeRecorder{}
	exec := func(ctx context.Context, task models.Task) error {
		if task.PromptText == "prompt 1" {
			return errors.New("fail")
		}
		return nil
	}
	o := New(exec, WithRecorder(rec))

	_, err := o.Run(context.Background(), makeTasks(3))

	require.NoError(t, err)
	assert.Equal(t, 1, rec.started)
	assert.Equal(t, 1, rec.finished)
	assert.Equal(t, 2, rec.ok)
	assert.Equal(t, 1, rec.failed)
}

func TestRun_RecorderCountsCancelledTasks(t *testing.T) {
	rec := &fakeRecorder{}
	o := New(func(context.Context, models.Task) error { return nil }, WithRecorder(rec), WithWorkers(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := o.Run(ctx, makeTasks(3))

	require.NoError(t, err)
	assert.Equal(t, 3, got.Completed)
	assert.Equal(t, 0, rec.ok)
	assert.Equal(t, 3, rec.failed)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "fox", 5, "fox"},
		{"exact", "hello", 5, "hello"},
		{"ascii", "hello world", 5, "hello..."},
		{"multibyte", "日本語のロゴ", 3, "日本語..."},
		{"emoji", "🦊🦊🦊🦊", 2, "🦊🦊..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestNew_DefaultWorkers(t *testing.T) {
	o := New(nil, WithWorkers(0))
	assert.Equal(t, DefaultWorkers, o.Workers())
}
