// Package imagegen turns text prompts into logo images.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/logoforge/internal/config"
)

// ErrNoImages is returned when a provider answers without any image.
var ErrNoImages = errors.New("no images generated")

// Image is one generated picture.
type Image struct {
	Data     []byte
	MIMEType string
}

// Options tunes a generation call. Zero values use provider defaults.
type Options struct {
	SampleCount    int
	AspectRatio    string
	NegativePrompt string
}

// Generator produces images for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) ([]Image, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) ([]Image, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) ([]Image, error) {
	return f(ctx, prompt, opts)
}

// New builds the configured provider wrapped with rate limiting and a
// per-call timeout.
func New(ctx context.Context, cfg config.Config) (Generator, error) {
	var gen Generator
	switch cfg.ImageProvider {
	case config.ImageProviderImagen:
		g, err := NewImagen(ctx, ImagenConfig{
			ProjectID: cfg.GCPProjectID,
			Region:    cfg.GCPRegion,
			Model:     cfg.ImageModel,
		})
		if err != nil {
			return nil, err
		}
		gen = g
	case config.ImageProviderOpenAI:
		g, err := NewOpenAI(cfg.OpenAIAPIKey, cfg.ImageModel)
		if err != nil {
			return nil, err
		}
		gen = g
	default:
		return nil, fmt.Errorf("unsupported image provider: %s", cfg.ImageProvider)
	}

	slog.Info("image generator ready", "provider", cfg.ImageProvider, "model", cfg.ImageModel, "rate", cfg.ImageRate, "timeout", cfg.ImageTimeout)
	return WithTimeout(RateLimited(gen, cfg.ImageRate, 1), cfg.ImageTimeout), nil
}

// First returns the first image of a generation call.
func First(images []Image) (Image, error) {
	if len(images) == 0 {
		return Image{}, ErrNoImages
	}
	return images[0], nil
}
