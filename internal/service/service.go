// Package service provides the logoforge business logic: generating and
// persisting logos, running batches as tracked jobs, and querying lineage.
package service

import (
	"context"
	"errors"

	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/llm"
	"github.com/raphaelgruber/logoforge/internal/models"
)

var (
	// ErrInvalidInput is returned for requests that fail validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound aliases the store's not-found error so callers need not
	// import db.
	ErrNotFound = db.ErrNotFound
)

// LogoStore persists logo records.
type LogoStore interface {
	CreateLogo(ctx context.Context, in models.LogoInput) (*models.Logo, error)
	GetLogo(ctx context.Context, id string) (*models.Logo, error)
	ListProjectLogos(ctx context.Context, projectID string, includeArchived bool) ([]models.Logo, error)
	UpdateLogo(ctx context.Context, id string, upd models.LogoUpdate) (*models.Logo, error)
}

// ProjectStore persists projects and their creative directions.
type ProjectStore interface {
	CreateProject(ctx context.Context, name string, brief models.CompanyBrief) (*models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]models.Project, error)
	UpdateProject(ctx context.Context, id string, upd models.ProjectUpdate) (*models.Project, error)
	ReplaceDirections(ctx context.Context, projectID string, dirs []models.Direction) ([]models.Direction, error)
	ListDirections(ctx context.Context, projectID string) ([]models.Direction, error)
	SetDirectionSelected(ctx context.Context, id string, selected bool) (*models.Direction, error)
}

// JobStore persists batch job state.
type JobStore interface {
	CreateBatchJob(ctx context.Context, id, projectID string, kind models.JobKind, total int) error
	UpdateBatchJobProgress(ctx context.Context, id string, p models.BatchProgress, logoIDs []string) error
	CompleteBatchJob(ctx context.Context, id string, p models.BatchProgress, logoIDs []string) error
	FailBatchJob(ctx context.Context, id, reason string) error
	GetBatchJob(ctx context.Context, id string) (*models.BatchJob, error)
	ListBatchJobs(ctx context.Context, projectID string, limit int) ([]models.BatchJob, error)
	GetIncompleteJobs(ctx context.Context) ([]models.BatchJob, error)
}

// Prompter writes image prompts with an LLM.
type Prompter interface {
	EngineerPrompts(ctx context.Context, brief models.CompanyBrief, directions []models.Direction) ([]models.Task, error)
	ProposeDirections(ctx context.Context, brief models.CompanyBrief, competitors string) ([]models.Direction, error)
	BranchVariations(ctx context.Context, source models.Logo, brief models.CompanyBrief, image []byte, mimeType, instruction string) ([]llm.Variation, error)
	RefinePrompt(ctx context.Context, source models.Logo, image []byte, mimeType, instruction string) (llm.Refinement, error)
	ImprovementPrompts(ctx context.Context, image []byte, mimeType string, weaknesses []string, brief models.CompanyBrief) ([]llm.Improvement, error)
	ExtractBrief(ctx context.Context, text string) (llm.BriefExtraction, error)
	GradeLogo(ctx context.Context, image []byte, mimeType string, brief models.CompanyBrief) (models.Scores, error)
	AnalyzeLogo(ctx context.Context, image []byte, mimeType string) (llm.LogoAnalysis, error)
}

var (
	_ LogoStore    = (*db.Client)(nil)
	_ ProjectStore = (*db.Client)(nil)
	_ JobStore     = (*db.Client)(nil)
	_ Prompter     = (*llm.Prompter)(nil)
)
