package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/logoforge/internal/db"
	"github.com/raphaelgruber/logoforge/internal/imagegen"
	"github.com/raphaelgruber/logoforge/internal/lineage"
	"github.com/raphaelgruber/logoforge/internal/metrics"
	"github.com/raphaelgruber/logoforge/internal/models"
	"github.com/raphaelgruber/logoforge/internal/storage"
)

// LogoService turns one prompt into one persisted logo.
type LogoService struct {
	logos     LogoStore
	images    imagegen.Generator
	store     storage.Store
	aspect    string
	recorders []metrics.ImageRecorder
	logger    *slog.Logger
}

// NewLogoService creates a LogoService. aspect is passed to the image
// generator, e.g. "1:1".
func NewLogoService(logos LogoStore, images imagegen.Generator, store storage.Store, aspect string, recorders ...metrics.ImageRecorder) *LogoService {
	return &LogoService{
		logos:     logos,
		images:    images,
		store:     store,
		aspect:    aspect,
		recorders: recorders,
		logger:    slog.Default(),
	}
}

// Generate renders task.PromptText, uploads the image and persists the
// record. When task.SourceLogoID is set the new logo becomes its child with
// BranchDepth one deeper than the parent.
func (s *LogoService) Generate(ctx context.Context, projectID string, task models.Task) (*models.Logo, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(task.PromptText) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidInput)
	}

	var parent *models.Logo
	if task.SourceLogoID != nil && *task.SourceLogoID != "" {
		p, err := s.logos.GetLogo(ctx, *task.SourceLogoID)
		if err != nil {
			return nil, fmt.Errorf("get parent logo: %w", err)
		}
		if p.ProjectID != projectID {
			return nil, fmt.Errorf("%w: parent logo %s belongs to another project", ErrInvalidInput, p.ID)
		}
		parent = p
	}

	genType := task.GenerationType
	if genType == "" {
		genType = models.GenerationInitial
		if parent != nil {
			genType = models.GenerationBranch
		}
	}
	if !genType.Valid() {
		return nil, fmt.Errorf("%w: unknown generation type %q", ErrInvalidInput, genType)
	}

	img, err := s.render(ctx, task.PromptText)
	if err != nil {
		return nil, err
	}

	logoID := db.NewLogoID()
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	url, err := s.store.Upload(ctx, storage.ObjectPath(projectID, logoID), img.Data, mime)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	in := models.LogoInput{
		ID:                    logoID,
		ProjectID:             projectID,
		DirectionID:           task.DirectionID,
		GenerationType:        genType,
		BranchDepth:           lineage.BranchDepth(parent),
		StoragePath:           url,
		Prompt:                task.PromptText,
		StyleLevers:           task.StyleLevers,
		RefinementInstruction: task.RefinementInstruction,
	}
	if parent != nil {
		in.ParentLogoID = &parent.ID
	}

	logo, err := s.logos.CreateLogo(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create logo: %w", err)
	}

	s.logger.Debug("logo generated",
		"project_id", projectID,
		"logo_id", logo.ID,
		"generation_type", genType,
		"branch_depth", logo.BranchDepth)
	return logo, nil
}

func (s *LogoService) render(ctx context.Context, prompt string) (imagegen.Image, error) {
	start := time.Now()
	images, err := s.images.Generate(ctx, prompt, imagegen.Options{SampleCount: 1, AspectRatio: s.aspect})
	var img imagegen.Image
	if err == nil {
		img, err = imagegen.First(images)
	}
	for _, r := range s.recorders {
		r.ImageGenerated(err == nil, time.Since(start))
	}
	if err != nil {
		return imagegen.Image{}, fmt.Errorf("generate image: %w", err)
	}
	return img, nil
}

// SourceImage downloads the stored image of logo. It is used as visual
// context for derived prompts.
func (s *LogoService) SourceImage(ctx context.Context, logo models.Logo) ([]byte, error) {
	data, err := s.store.Download(ctx, storage.ObjectPath(logo.ProjectID, logo.ID))
	if err != nil {
		return nil, fmt.Errorf("download logo image: %w", err)
	}
	return data, nil
}
