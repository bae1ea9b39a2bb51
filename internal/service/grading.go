package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/llm"
	"github.com/raphaelgruber/logoforge/internal/models"
)

// GradingService scores logos with the LLM and analyzes uploaded images.
type GradingService struct {
	projects ProjectStore
	logos    LogoStore
	gen      *LogoService
	prompter Prompter
	jobs     *JobManager
	logger   *slog.Logger
}

// NewGradingService creates a GradingService.
func NewGradingService(projects ProjectStore, logos LogoStore, gen *LogoService, prompter Prompter, jobs *JobManager) *GradingService {
	return &GradingService{
		projects: projects,
		logos:    logos,
		gen:      gen,
		prompter: prompter,
		jobs:     jobs,
		logger:   slog.Default(),
	}
}

// Grade scores one logo against its project's brief and stores the result.
// An existing grade is replaced.
func (s *GradingService) Grade(ctx context.Context, logoID string) (*models.Logo, error) {
	if strings.TrimSpace(logoID) == "" {
		return nil, fmt.Errorf("%w: logo id is required", ErrInvalidInput)
	}
	logo, err := s.logos.GetLogo(ctx, logoID)
	if err != nil {
		return nil, fmt.Errorf("get logo: %w", err)
	}
	project, err := s.projects.GetProject(ctx, logo.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	image, err := s.gen.SourceImage(ctx, *logo)
	if err != nil {
		return nil, err
	}

	scores, err := s.prompter.GradeLogo(ctx, image, http.DetectContentType(image), project.CompanyBrief)
	if err != nil {
		return nil, err
	}
	scores.Composite = CompositeScore(scores)

	graded, err := s.logos.UpdateLogo(ctx, logo.ID, models.LogoUpdate{Scores: &scores})
	if err != nil {
		return nil, fmt.Errorf("store scores: %w", err)
	}
	s.logger.Info("logo graded", "logo_id", logo.ID, "composite", scores.Composite)
	return graded, nil
}

// GradeProject starts a background job that grades every active logo of
// projectID that has no scores yet. The job's logo IDs are the graded logos.
func (s *GradingService) GradeProject(ctx context.Context, projectID string) (*Job, error) {
	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	logos, err := s.logos.ListProjectLogos(ctx, projectID, false)
	if err != nil {
		return nil, fmt.Errorf("list logos: %w", err)
	}

	tasks := make([]models.Task, 0, len(logos))
	for _, l := range logos {
		if l.Scores != nil || l.IsArchived {
			continue
		}
		id := l.ID
		tasks = append(tasks, models.Task{PromptText: l.Prompt, SourceLogoID: &id})
	}

	return s.jobs.Start(ctx, projectID, models.JobKindGrade, tasks, func(ctx context.Context, task models.Task) (*models.Logo, error) {
		if task.SourceLogoID == nil {
			return nil, fmt.Errorf("%w: grade task without logo", ErrInvalidInput)
		}
		return s.Grade(ctx, *task.SourceLogoID)
	})
}

// Analyze critiques an uploaded image and returns weaknesses suitable for
// RefinementService.Improve.
func (s *GradingService) Analyze(ctx context.Context, image []byte) (llm.LogoAnalysis, error) {
	if len(image) == 0 {
		return llm.LogoAnalysis{}, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}
	mime := http.DetectContentType(image)
	if !strings.HasPrefix(mime, "image/") {
		return llm.LogoAnalysis{}, fmt.Errorf("%w: uploaded file is %s, not an image", ErrInvalidInput, mime)
	}
	analysis, err := s.prompter.AnalyzeLogo(ctx, image, mime)
	if err != nil {
		return llm.LogoAnalysis{}, err
	}
	analysis.Scores.Composite = CompositeScore(analysis.Scores)
	return analysis, nil
}
