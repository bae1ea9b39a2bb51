package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/logoforge/internal/db/memory"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tasks(prompts ...string) []models.Task {
	out := make([]models.Task, len(prompts))
	for i, p := range prompts {
		out[i] = models.Task{PromptText: p}
	}
	return out
}

// fakeGen returns a logo per task and fails for the prompt "bad".
func fakeGen() GenerateFunc {
	var n atomic.Int32
	return func(_ context.Context, task models.Task) (*models.Logo, error) {
		if task.PromptText == "bad" {
			return nil, errors.New("boom")
		}
		return &models.Logo{ID: fmt.Sprintf("logo-%d", n.Add(1))}, nil
	}
}

func TestJobManager_RunIsolatesFailures(t *testing.T) {
	st := memory.New()
	m := NewJobManager(2, st, nil)

	job, err := m.Run(context.Background(), "p1", models.JobKindGenerate, tasks("a", "b", "bad", "c", "d"), fakeGen())
	require.NoError(t, err)

	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 5, job.Total)
	assert.Equal(t, 5, job.Completed)
	assert.Len(t, job.LogoIDs, 4)
	require.Len(t, job.Errors, 1)
	assert.Equal(t, "bad", job.Errors[0].PromptText)
	assert.Equal(t, "boom", job.Errors[0].ErrorMessage)
	assert.NotNil(t, job.CompletedAt)

	stored := storedJob(t, st, job.ID)
	assert.Equal(t, models.JobStatusCompleted, stored.Status)
	assert.Equal(t, 5, stored.Completed)
	assert.Len(t, stored.LogoIDs, 4)
}

func TestJobManager_NilTasks(t *testing.T) {
	m := NewJobManager(2, nil, nil)
	_, err := m.Run(context.Background(), "p1", models.JobKindGenerate, nil, fakeGen())
	assert.Error(t, err)
}

func TestJobManager_EmptyBatchCompletes(t *testing.T) {
	m := NewJobManager(2, nil, nil)
	job, err := m.Run(context.Background(), "p1", models.JobKindGenerate, []models.Task{}, fakeGen())
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)
	assert.Equal(t, 0, job.Total)
	assert.Empty(t, job.Errors)
}

func TestJobManager_StartAndSubscribe(t *testing.T) {
	m := NewJobManager(1, nil, nil)
	release := make(chan struct{})
	gen := func(ctx context.Context, task models.Task) (*models.Logo, error) {
		<-release
		return &models.Logo{ID: "l-" + task.PromptText}, nil
	}

	job, err := m.Start(context.Background(), "p1", models.JobKindGenerate, tasks("a", "b", "c"), gen)
	require.NoError(t, err)

	updates, unsubscribe, err := m.Subscribe(job.ID)
	require.NoError(t, err)
	defer unsubscribe()

	first := <-updates
	assert.Equal(t, job.ID, first.ID)
	assert.False(t, first.Status.Terminal())

	close(release)

	var last models.BatchJob
	timeout := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case snap, ok := <-updates:
			if !ok {
				done = true
				break
			}
			assert.GreaterOrEqual(t, snap.Completed, last.Completed)
			last = snap
		case <-timeout:
			t.Fatal("subscription did not close")
		}
	}

	assert.Equal(t, models.JobStatusCompleted, last.Status)
	assert.Equal(t, 3, last.Completed)
	assert.ElementsMatch(t, []string{"l-a", "l-b", "l-c"}, last.LogoIDs)

	got, err := m.Lookup(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, got.Status)
}

func TestJobManager_SubscribeFinishedJob(t *testing.T) {
	m := NewJobManager(1, nil, nil)
	job, err := m.Start(context.Background(), "p1", models.JobKindGenerate, tasks("a"), fakeGen())
	require.NoError(t, err)
	waitJob(t, job)

	updates, _, err := m.Subscribe(job.ID)
	require.NoError(t, err)
	snap, ok := <-updates
	require.True(t, ok)
	assert.Equal(t, models.JobStatusCompleted, snap.Status)
	_, ok = <-updates
	assert.False(t, ok)

	_, _, err = m.Subscribe("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobManager_Cancel(t *testing.T) {
	m := NewJobManager(1, nil, nil)
	started := make(chan struct{}, 10)
	gen := func(ctx context.Context, task models.Task) (*models.Logo, error) {
		started <- struct{}{}
		<-ctx.Done()
		return nil, ctx.Err()
	}

	job, err := m.Start(context.Background(), "p1", models.JobKindGenerate, tasks("a", "b", "c"), gen)
	require.NoError(t, err)
	<-started

	assert.True(t, m.Cancel(job.ID))
	snap := waitJob(t, job)

	assert.Equal(t, models.JobStatusCompleted, snap.Status)
	assert.Equal(t, 3, snap.Completed)
	assert.Len(t, snap.Errors, 3)
	assert.Empty(t, snap.LogoIDs)
	assert.False(t, m.Cancel(job.ID), "finished jobs cannot be cancelled")
}

func TestJobManager_ListJobsInMemory(t *testing.T) {
	m := NewJobManager(1, nil, nil)
	ctx := context.Background()
	_, err := m.Run(ctx, "p1", models.JobKindGenerate, tasks("a"), fakeGen())
	require.NoError(t, err)
	_, err = m.Run(ctx, "p2", models.JobKindBranch, tasks("b"), fakeGen())
	require.NoError(t, err)

	all, err := m.ListJobs(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	p2, err := m.ListJobs(ctx, "p2", 0)
	require.NoError(t, err)
	require.Len(t, p2, 1)
	assert.Equal(t, models.JobKindBranch, p2[0].Kind)
}

func TestJobManager_FailIncompleteJobs(t *testing.T) {
	st := memory.New()
	ctx := context.Background()
	require.NoError(t, st.CreateBatchJob(ctx, "old1", "p1", models.JobKindGenerate, 4))
	require.NoError(t, st.CreateBatchJob(ctx, "old2", "p1", models.JobKindBranch, 2))
	require.NoError(t, st.CreateBatchJob(ctx, "done", "p1", models.JobKindGenerate, 1))
	require.NoError(t, st.CompleteBatchJob(ctx, "done", models.BatchProgress{Total: 1, Completed: 1}, []string{"x"}))

	m := NewJobManager(2, st, nil)
	n, err := m.FailIncompleteJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range []string{"old1", "old2"} {
		j := storedJob(t, st, id)
		assert.Equal(t, models.JobStatusFailed, j.Status)
		require.NotNil(t, j.Error)
		assert.Equal(t, ErrInterrupted.Error(), *j.Error)
	}
	assert.Equal(t, models.JobStatusCompleted, storedJob(t, st, "done").Status)

	got, err := m.Lookup(ctx, "old1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
}

func TestJobManager_RecorderSeesEveryTask(t *testing.T) {
	rec := &countingRecorder{}
	m := NewJobManager(2, nil, rec)
	_, err := m.Run(context.Background(), "p1", models.JobKindGenerate, tasks("a", "bad", "c"), fakeGen())
	require.NoError(t, err)

	assert.Equal(t, int32(1), rec.batches.Load())
	assert.Equal(t, int32(2), rec.ok.Load())
	assert.Equal(t, int32(1), rec.failed.Load())
}

type countingRecorder struct {
	batches, ok, failed atomic.Int32
}

func (r *countingRecorder) BatchStarted()  { r.batches.Add(1) }
func (r *countingRecorder) BatchFinished() {}
func (r *countingRecorder) TaskDone(success bool, _ time.Duration) {
	if success {
		r.ok.Add(1)
	} else {
		r.failed.Add(1)
	}
}
