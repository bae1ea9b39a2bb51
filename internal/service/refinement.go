package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// RefinementService derives new logos from existing ones. Each flow runs
// through the JobManager like an initial batch.
type RefinementService struct {
	projects ProjectStore
	logos    LogoStore
	gen      *LogoService
	prompter Prompter
	jobs     *JobManager
	logger   *slog.Logger
}

// NewRefinementService creates a RefinementService.
func NewRefinementService(projects ProjectStore, logos LogoStore, gen *LogoService, prompter Prompter, jobs *JobManager) *RefinementService {
	return &RefinementService{
		projects: projects,
		logos:    logos,
		gen:      gen,
		prompter: prompter,
		jobs:     jobs,
		logger:   slog.Default(),
	}
}

// BranchTasks returns variation tasks for a logo. Children inherit the
// source's direction and style levers, and the variation type is kept as
// the refinement instruction.
func (s *RefinementService) BranchTasks(ctx context.Context, logoID, instruction string) (*models.Logo, []models.Task, error) {
	source, brief, err := s.source(ctx, logoID)
	if err != nil {
		return nil, nil, err
	}
	image, mime := s.image(ctx, *source)

	vars, err := s.prompter.BranchVariations(ctx, *source, brief, image, mime, instruction)
	if err != nil {
		return nil, nil, err
	}

	tasks := make([]models.Task, 0, len(vars))
	for _, v := range vars {
		variation := v.VariationType
		tasks = append(tasks, models.Task{
			PromptText:            v.PromptText,
			DirectionID:           source.DirectionID,
			StyleLevers:           mergeLevers(source.StyleLevers, v.StyleLevers),
			SourceLogoID:          &source.ID,
			GenerationType:        models.GenerationBranch,
			RefinementInstruction: &variation,
		})
	}
	return source, tasks, nil
}

// Branch starts a background batch of variations of logoID.
func (s *RefinementService) Branch(ctx context.Context, logoID, instruction string) (*Job, error) {
	source, tasks, err := s.BranchTasks(ctx, logoID, instruction)
	if err != nil {
		return nil, err
	}
	return s.jobs.Start(ctx, source.ProjectID, models.JobKindBranch, tasks, s.generateFor(source.ProjectID))
}

// Refine applies instruction to logoID and returns the single child logo.
func (s *RefinementService) Refine(ctx context.Context, logoID, instruction string) (*models.Logo, error) {
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrInvalidInput)
	}
	source, _, err := s.source(ctx, logoID)
	if err != nil {
		return nil, err
	}
	image, mime := s.image(ctx, *source)

	refined, err := s.prompter.RefinePrompt(ctx, *source, image, mime, instruction)
	if err != nil {
		return nil, err
	}

	task := models.Task{
		PromptText:            refined.PromptText,
		DirectionID:           source.DirectionID,
		StyleLevers:           maps.Clone(source.StyleLevers),
		SourceLogoID:          &source.ID,
		GenerationType:        models.GenerationRefine,
		RefinementInstruction: &instruction,
	}
	job, err := s.jobs.Run(ctx, source.ProjectID, models.JobKindRefine, []models.Task{task}, s.generateFor(source.ProjectID))
	if err != nil {
		return nil, err
	}
	if len(job.LogoIDs) == 0 {
		if len(job.Errors) > 0 {
			return nil, fmt.Errorf("refine logo: %s", job.Errors[0].ErrorMessage)
		}
		return nil, errors.New("refine logo: no logo produced")
	}
	return s.logos.GetLogo(ctx, job.LogoIDs[0])
}

// ImproveInput names what to improve: a stored logo, or an uploaded image
// when LogoID is empty. Without weaknesses the image is analyzed first.
type ImproveInput struct {
	LogoID     string
	Image      []byte
	Weaknesses []string
}

// ImproveTasks returns prompts that address weaknesses of the input image.
// The results start new lineages in projectID: they have no parent and no
// direction.
func (s *RefinementService) ImproveTasks(ctx context.Context, projectID string, in ImproveInput) ([]models.Task, error) {
	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}

	var (
		image []byte
		mime  string
	)
	switch {
	case strings.TrimSpace(in.LogoID) != "":
		logo, err := s.logos.GetLogo(ctx, in.LogoID)
		if err != nil {
			return nil, fmt.Errorf("get logo: %w", err)
		}
		if logo.ProjectID != projectID {
			return nil, fmt.Errorf("%w: logo %s belongs to another project", ErrInvalidInput, logo.ID)
		}
		image, mime = s.image(ctx, *logo)
	case len(in.Image) > 0:
		image, mime = in.Image, http.DetectContentType(in.Image)
		if !strings.HasPrefix(mime, "image/") {
			return nil, fmt.Errorf("%w: uploaded file is %s, not an image", ErrInvalidInput, mime)
		}
	default:
		return nil, fmt.Errorf("%w: logo id or image is required", ErrInvalidInput)
	}

	weaknesses := in.Weaknesses
	if len(weaknesses) == 0 && len(image) > 0 {
		analysis, err := s.prompter.AnalyzeLogo(ctx, image, mime)
		if err != nil {
			return nil, err
		}
		weaknesses = analysis.Weaknesses
	}

	imps, err := s.prompter.ImprovementPrompts(ctx, image, mime, weaknesses, project.CompanyBrief)
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(imps))
	for _, imp := range imps {
		addressed := imp.WeaknessAddressed
		tasks = append(tasks, models.Task{
			PromptText:            imp.PromptText,
			GenerationType:        models.GenerationImprove,
			RefinementInstruction: &addressed,
		})
	}
	return tasks, nil
}

// Improve starts a background batch of improvements in projectID.
func (s *RefinementService) Improve(ctx context.Context, projectID string, in ImproveInput) (*Job, error) {
	tasks, err := s.ImproveTasks(ctx, projectID, in)
	if err != nil {
		return nil, err
	}
	return s.jobs.Start(ctx, projectID, models.JobKindImprove, tasks, s.generateFor(projectID))
}

func (s *RefinementService) source(ctx context.Context, logoID string) (*models.Logo, models.CompanyBrief, error) {
	if strings.TrimSpace(logoID) == "" {
		return nil, models.CompanyBrief{}, fmt.Errorf("%w: logo id is required", ErrInvalidInput)
	}
	logo, err := s.logos.GetLogo(ctx, logoID)
	if err != nil {
		return nil, models.CompanyBrief{}, fmt.Errorf("get logo: %w", err)
	}
	project, err := s.projects.GetProject(ctx, logo.ProjectID)
	if err != nil {
		return nil, models.CompanyBrief{}, fmt.Errorf("get project: %w", err)
	}
	return logo, project.CompanyBrief, nil
}

// image fetches the source image. Prompts can still be written from the
// original prompt text alone, so a missing image is only logged.
func (s *RefinementService) image(ctx context.Context, logo models.Logo) ([]byte, string) {
	data, err := s.gen.SourceImage(ctx, logo)
	if err != nil {
		s.logger.Warn("source image unavailable", "logo_id", logo.ID, "error", err)
		return nil, ""
	}
	return data, http.DetectContentType(data)
}

func (s *RefinementService) generateFor(projectID string) GenerateFunc {
	return func(ctx context.Context, task models.Task) (*models.Logo, error) {
		return s.gen.Generate(ctx, projectID, task)
	}
}

func mergeLevers(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]string, len(override))
	}
	maps.Copy(out, override)
	return out
}
