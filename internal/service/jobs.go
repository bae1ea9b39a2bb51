package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/logoforge/internal/batch"
	"github.com/raphaelgruber/logoforge/internal/models"
)

// GenerateFunc produces the logo for one task.
type GenerateFunc func(ctx context.Context, task models.Task) (*models.Logo, error)

// ErrInterrupted is the failure reason for jobs found unfinished at startup.
var ErrInterrupted = errors.New("interrupted by server restart")

const (
	persistInterval = 2 * time.Second
	persistEvery    = 5
)

// Job is a batch run tracked by the JobManager.
type Job struct {
	ID        string
	ProjectID string
	Kind      models.JobKind

	mu          sync.RWMutex
	status      models.JobStatus
	progress    models.BatchProgress
	logoIDs     []string
	err         string
	startedAt   time.Time
	completedAt *time.Time
	lastPersist time.Time
	subs        map[int]chan models.BatchJob
	nextSub     int
	cancel      context.CancelFunc
	done        chan struct{}
}

// Done is closed when the job reaches a terminal status.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Snapshot returns a thread-safe copy of job state.
func (j *Job) Snapshot() models.BatchJob {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.snapshotLocked()
}

func (j *Job) snapshotLocked() models.BatchJob {
	snap := models.BatchJob{
		ID:            j.ID,
		ProjectID:     j.ProjectID,
		Kind:          j.Kind,
		Status:        j.status,
		Total:         j.progress.Total,
		Completed:     j.progress.Completed,
		CurrentPrompt: j.progress.CurrentPromptText,
		Errors:        slices.Clone(j.progress.Errors),
		LogoIDs:       slices.Clone(j.logoIDs),
		StartedAt:     j.startedAt,
		CompletedAt:   j.completedAt,
	}
	if snap.Errors == nil {
		snap.Errors = []models.TaskError{}
	}
	if snap.LogoIDs == nil {
		snap.LogoIDs = []string{}
	}
	if j.err != "" {
		e := j.err
		snap.Error = &e
	}
	return snap
}

// publishLocked pushes the latest snapshot to subscribers. A slow
// subscriber only ever sees the most recent state.
func (j *Job) publishLocked() {
	snap := j.snapshotLocked()
	for _, ch := range j.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

// JobManager runs batches in the background and tracks their progress.
type JobManager struct {
	jobs     map[string]*Job
	mu       sync.RWMutex
	workers  int
	store    JobStore
	recorder batch.Recorder
	logger   *slog.Logger
}

// NewJobManager creates a job manager. store may be nil, in which case jobs
// live only in memory.
func NewJobManager(workers int, store JobStore, recorder batch.Recorder) *JobManager {
	if workers <= 0 {
		workers = batch.DefaultWorkers
	}
	return &JobManager{
		jobs:     make(map[string]*Job),
		workers:  workers,
		store:    store,
		recorder: recorder,
		logger:   slog.Default(),
	}
}

// Workers returns the per-batch pool size.
func (m *JobManager) Workers() int {
	return m.workers
}

// Start creates a job for tasks and runs it in the background. The batch
// outlives ctx; use Cancel to stop it.
func (m *JobManager) Start(ctx context.Context, projectID string, kind models.JobKind, tasks []models.Task, gen GenerateFunc) (*Job, error) {
	job, err := m.create(ctx, projectID, kind, tasks)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	job.mu.Lock()
	job.cancel = cancel
	job.mu.Unlock()

	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				m.logger.Error("job goroutine panicked", "job_id", job.ID, "panic", r)
				m.fail(context.Background(), job, fmt.Errorf("internal panic: %v", r))
			}
		}()
		m.run(runCtx, job, tasks, gen)
	}()
	return job, nil
}

// Run creates a job and blocks until the batch finishes.
func (m *JobManager) Run(ctx context.Context, projectID string, kind models.JobKind, tasks []models.Task, gen GenerateFunc) (models.BatchJob, error) {
	job, err := m.create(ctx, projectID, kind, tasks)
	if err != nil {
		return models.BatchJob{}, err
	}
	m.run(ctx, job, tasks, gen)
	return job.Snapshot(), nil
}

func (m *JobManager) create(ctx context.Context, projectID string, kind models.JobKind, tasks []models.Task) (*Job, error) {
	if tasks == nil {
		return nil, batch.ErrNilTasks
	}
	job := &Job{
		ID:        uuid.New().String()[:8],
		ProjectID: projectID,
		Kind:      kind,
		status:    models.JobStatusPending,
		progress:  models.BatchProgress{Total: len(tasks)},
		startedAt: time.Now(),
		subs:      make(map[int]chan models.BatchJob),
		done:      make(chan struct{}),
	}

	if m.store != nil {
		if err := m.store.CreateBatchJob(ctx, job.ID, projectID, kind, len(tasks)); err != nil {
			return nil, fmt.Errorf("create batch job: %w", err)
		}
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.logger.Info("job created", "job_id", job.ID, "project_id", projectID, "kind", kind, "tasks", len(tasks))
	return job, nil
}

func (m *JobManager) run(ctx context.Context, job *Job, tasks []models.Task, gen GenerateFunc) {
	exec := func(ctx context.Context, task models.Task) error {
		logo, err := gen(ctx, task)
		if err != nil {
			return err
		}
		if logo == nil {
			return nil
		}
		job.mu.Lock()
		job.logoIDs = append(job.logoIDs, logo.ID)
		job.mu.Unlock()
		return nil
	}

	opts := []batch.Option{
		batch.WithWorkers(m.workers),
		batch.WithLogger(m.logger.With("job_id", job.ID)),
		batch.WithObserver(func(p models.BatchProgress) { m.updateProgress(ctx, job, p) }),
	}
	if m.recorder != nil {
		opts = append(opts, batch.WithRecorder(m.recorder))
	}

	result, err := batch.New(exec, opts...).Run(ctx, tasks)
	if err != nil {
		m.fail(context.WithoutCancel(ctx), job, err)
		return
	}
	m.complete(context.WithoutCancel(ctx), job, result)
}

// updateProgress applies p with debounced persistence.
func (m *JobManager) updateProgress(ctx context.Context, job *Job, p models.BatchProgress) {
	job.mu.Lock()
	if job.status.Terminal() {
		job.mu.Unlock()
		return
	}
	job.status = models.JobStatusRunning
	job.progress = p

	shouldPersist := m.store != nil && (time.Since(job.lastPersist) > persistInterval ||
		p.Completed%persistEvery == 0)
	if shouldPersist {
		job.lastPersist = time.Now()
	}
	logoIDs := slices.Clone(job.logoIDs)
	job.publishLocked()
	job.mu.Unlock()

	if shouldPersist {
		if err := m.store.UpdateBatchJobProgress(context.WithoutCancel(ctx), job.ID, p, logoIDs); err != nil {
			m.logger.Warn("failed to persist job progress", "job_id", job.ID, "error", err)
		}
	}
}

func (m *JobManager) complete(ctx context.Context, job *Job, result models.BatchProgress) {
	job.mu.Lock()
	job.status = models.JobStatusCompleted
	job.progress = result
	now := time.Now()
	job.completedAt = &now
	logoIDs := slices.Clone(job.logoIDs)
	job.publishLocked()
	job.closeLocked()
	job.mu.Unlock()

	if m.store != nil {
		if err := m.store.CompleteBatchJob(ctx, job.ID, result, logoIDs); err != nil {
			m.logger.Warn("failed to persist job completion", "job_id", job.ID, "error", err)
		}
	}

	m.logger.Info("job completed",
		"job_id", job.ID,
		"logos", len(logoIDs),
		"errors", len(result.Errors))
}

func (m *JobManager) fail(ctx context.Context, job *Job, err error) {
	job.mu.Lock()
	if job.status.Terminal() {
		job.mu.Unlock()
		return
	}
	job.status = models.JobStatusFailed
	job.err = err.Error()
	now := time.Now()
	job.completedAt = &now
	job.publishLocked()
	job.closeLocked()
	job.mu.Unlock()

	if m.store != nil {
		if dbErr := m.store.FailBatchJob(ctx, job.ID, err.Error()); dbErr != nil {
			m.logger.Warn("failed to persist job failure", "job_id", job.ID, "error", dbErr)
		}
	}

	m.logger.Error("job failed", "job_id", job.ID, "error", err)
}

func (j *Job) closeLocked() {
	for id, ch := range j.subs {
		close(ch)
		delete(j.subs, id)
	}
	close(j.done)
}

// Subscribe returns a channel carrying the job's latest state. The current
// state is delivered immediately and the channel is closed once the job
// finishes. Call the returned func to unsubscribe early.
func (m *JobManager) Subscribe(jobID string) (<-chan models.BatchJob, func(), error) {
	job := m.GetJob(jobID)
	if job == nil {
		return nil, nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
	}

	ch := make(chan models.BatchJob, 1)
	job.mu.Lock()
	defer job.mu.Unlock()

	ch <- job.snapshotLocked()
	if job.status.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	id := job.nextSub
	job.nextSub++
	job.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			job.mu.Lock()
			defer job.mu.Unlock()
			if _, ok := job.subs[id]; ok {
				delete(job.subs, id)
				close(ch)
			}
		})
	}
	return ch, unsubscribe, nil
}

// Cancel stops a running background job. Tasks not yet started are recorded
// as cancelled.
func (m *JobManager) Cancel(jobID string) bool {
	job := m.GetJob(jobID)
	if job == nil {
		return false
	}
	job.mu.RLock()
	cancel := job.cancel
	terminal := job.status.Terminal()
	job.mu.RUnlock()
	if cancel == nil || terminal {
		return false
	}
	cancel()
	return true
}

// GetJob retrieves an in-memory job by ID.
func (m *JobManager) GetJob(id string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[id]
}

// Lookup returns the job state from memory, falling back to the store for
// jobs from earlier runs.
func (m *JobManager) Lookup(ctx context.Context, id string) (models.BatchJob, error) {
	if job := m.GetJob(id); job != nil {
		return job.Snapshot(), nil
	}
	if m.store == nil {
		return models.BatchJob{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	job, err := m.store.GetBatchJob(ctx, id)
	if err != nil {
		return models.BatchJob{}, err
	}
	return *job, nil
}

// ListJobs returns jobs most recent first, optionally for one project.
// limit <= 0 means no limit.
func (m *JobManager) ListJobs(ctx context.Context, projectID string, limit int) ([]models.BatchJob, error) {
	if m.store != nil {
		return m.store.ListBatchJobs(ctx, projectID, limit)
	}

	m.mu.RLock()
	jobs := make([]models.BatchJob, 0, len(m.jobs))
	for _, job := range m.jobs {
		if projectID != "" && job.ProjectID != projectID {
			continue
		}
		jobs = append(jobs, job.Snapshot())
	}
	m.mu.RUnlock()

	slices.SortFunc(jobs, func(a, b models.BatchJob) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// FailIncompleteJobs marks jobs left pending or running by a previous
// process as failed. Tasks are not persisted, so these jobs cannot resume.
func (m *JobManager) FailIncompleteJobs(ctx context.Context) (int, error) {
	if m.store == nil {
		return 0, nil
	}

	incomplete, err := m.store.GetIncompleteJobs(ctx)
	if err != nil {
		return 0, err
	}
	if len(incomplete) == 0 {
		m.logger.Info("no incomplete jobs found")
		return 0, nil
	}

	failed := 0
	for _, job := range incomplete {
		if m.GetJob(job.ID) != nil {
			continue
		}
		if err := m.store.FailBatchJob(ctx, job.ID, ErrInterrupted.Error()); err != nil {
			m.logger.Warn("failed to mark job interrupted", "job_id", job.ID, "error", err)
			continue
		}
		m.logger.Info("marked interrupted job failed",
			"job_id", job.ID,
			"completed", job.Completed,
			"total", job.Total)
		failed++
	}
	return failed, nil
}
