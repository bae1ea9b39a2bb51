package db

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/logoforge/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

type batchJobRow struct {
	ID            surrealmodels.RecordID `json:"id"`
	Project       surrealmodels.RecordID `json:"project"`
	Kind          string                 `json:"kind"`
	Status        string                 `json:"status"`
	Total         int                    `json:"total"`
	Completed     int                    `json:"completed"`
	CurrentPrompt string                 `json:"current_prompt"`
	Errors        []models.TaskError     `json:"errors"`
	LogoIDs       []string               `json:"logo_ids"`
	Error         *string                `json:"error,omitempty"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   *time.Time             `json:"completed_at,omitempty"`
}

func (r batchJobRow) toModel() (models.BatchJob, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.BatchJob{}, fmt.Errorf("job id: %w", err)
	}
	projectID, err := models.RecordIDString(r.Project)
	if err != nil {
		return models.BatchJob{}, fmt.Errorf("job project: %w", err)
	}
	errs := r.Errors
	if errs == nil {
		errs = []models.TaskError{}
	}
	logoIDs := r.LogoIDs
	if logoIDs == nil {
		logoIDs = []string{}
	}
	return models.BatchJob{
		ID:            id,
		ProjectID:     projectID,
		Kind:          models.JobKind(r.Kind),
		Status:        models.JobStatus(r.Status),
		Total:         r.Total,
		Completed:     r.Completed,
		CurrentPrompt: r.CurrentPrompt,
		Errors:        errs,
		LogoIDs:       logoIDs,
		Error:         r.Error,
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
	}, nil
}

func jobRowsToModels(in []batchJobRow) ([]models.BatchJob, error) {
	out := make([]models.BatchJob, 0, len(in))
	for _, r := range in {
		j, err := r.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// CreateBatchJob persists a pending job.
func (c *Client) CreateBatchJob(ctx context.Context, id, projectID string, kind models.JobKind, total int) error {
	_, err := query[any](ctx, c, `
		CREATE type::record("batch_job", $id) CONTENT {
			project: type::record("project", $project),
			kind: $kind,
			status: "pending",
			total: $total
		}
	`, map[string]any{
		"id":      id,
		"project": projectID,
		"kind":    string(kind),
		"total":   total,
	})
	if err != nil {
		return fmt.Errorf("create batch job: %w", wrapQueryError(err))
	}
	return nil
}

// UpdateBatchJobProgress stores the latest progress snapshot and marks the
// job running.
func (c *Client) UpdateBatchJobProgress(ctx context.Context, id string, p models.BatchProgress, logoIDs []string) error {
	errs := p.Errors
	if errs == nil {
		errs = []models.TaskError{}
	}
	if logoIDs == nil {
		logoIDs = []string{}
	}
	_, err := query[any](ctx, c, `
		UPDATE type::record("batch_job", $id) SET
			status = "running",
			total = $total,
			completed = $completed,
			current_prompt = $current,
			errors = $errors,
			logo_ids = $logo_ids
	`, map[string]any{
		"id":        id,
		"total":     p.Total,
		"completed": p.Completed,
		"current":   p.CurrentPromptText,
		"errors":    errs,
		"logo_ids":  logoIDs,
	})
	if err != nil {
		return fmt.Errorf("update batch job progress: %w", wrapQueryError(err))
	}
	return nil
}

// CompleteBatchJob stores the final progress and marks the job completed.
func (c *Client) CompleteBatchJob(ctx context.Context, id string, p models.BatchProgress, logoIDs []string) error {
	errs := p.Errors
	if errs == nil {
		errs = []models.TaskError{}
	}
	if logoIDs == nil {
		logoIDs = []string{}
	}
	_, err := query[any](ctx, c, `
		UPDATE type::record("batch_job", $id) SET
			status = "completed",
			total = $total,
			completed = $completed,
			current_prompt = "",
			errors = $errors,
			logo_ids = $logo_ids,
			completed_at = time::now()
	`, map[string]any{
		"id":        id,
		"total":     p.Total,
		"completed": p.Completed,
		"errors":    errs,
		"logo_ids":  logoIDs,
	})
	if err != nil {
		return fmt.Errorf("complete batch job: %w", wrapQueryError(err))
	}
	return nil
}

// FailBatchJob marks a job failed with a reason.
func (c *Client) FailBatchJob(ctx context.Context, id, reason string) error {
	_, err := query[any](ctx, c, `
		UPDATE type::record("batch_job", $id) SET
			status = "failed",
			error = $reason,
			completed_at = time::now()
	`, map[string]any{"id": id, "reason": reason})
	if err != nil {
		return fmt.Errorf("fail batch job: %w", wrapQueryError(err))
	}
	return nil
}

// GetBatchJob returns one job or ErrNotFound.
func (c *Client) GetBatchJob(ctx context.Context, id string) (*models.BatchJob, error) {
	results, err := query[[]batchJobRow](ctx, c, `
		SELECT * FROM type::record("batch_job", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get batch job: %w", err)
	}

	row, err := first(results)
	if err != nil {
		return nil, fmt.Errorf("get batch job %s: %w", id, err)
	}
	j, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListBatchJobs returns jobs, most recent first. An empty projectID lists all.
func (c *Client) ListBatchJobs(ctx context.Context, projectID string, limit int) ([]models.BatchJob, error) {
	if limit <= 0 {
		limit = 50
	}
	sql := `SELECT * FROM batch_job ORDER BY started_at DESC LIMIT $limit`
	vars := map[string]any{"limit": limit}
	if projectID != "" {
		sql = `
			SELECT * FROM batch_job
			WHERE project = type::record("project", $project)
			ORDER BY started_at DESC LIMIT $limit
		`
		vars["project"] = projectID
	}

	results, err := query[[]batchJobRow](ctx, c, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list batch jobs: %w", err)
	}
	return jobRowsToModels(rows(results))
}

// GetIncompleteJobs returns jobs left pending or running, e.g. by a crash.
func (c *Client) GetIncompleteJobs(ctx context.Context) ([]models.BatchJob, error) {
	results, err := query[[]batchJobRow](ctx, c, `
		SELECT * FROM batch_job WHERE status IN ["pending", "running"]
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("get incomplete jobs: %w", err)
	}
	return jobRowsToModels(rows(results))
}
