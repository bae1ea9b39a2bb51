package imagegen

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator creates images with the OpenAI images API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAI creates a generator for model (default dall-e-3).
func NewOpenAI(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}
	return NewOpenAIWithConfig(openai.DefaultConfig(apiKey), model), nil
}

// NewOpenAIWithConfig creates a generator from a client config, e.g. with a
// custom BaseURL.
func NewOpenAIWithConfig(cfg openai.ClientConfig, model string) *OpenAIGenerator {
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	return &OpenAIGenerator{client: openai.NewClientWithConfig(cfg), model: model}
}

// Generate returns base64-decoded PNGs. dall-e-3 only supports one image per
// request, so samples are requested one call at a time.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, opts Options) ([]Image, error) {
	n := opts.SampleCount
	if n <= 0 {
		n = 1
	}
	if opts.NegativePrompt != "" {
		prompt = fmt.Sprintf("%s\n\nAvoid: %s", prompt, opts.NegativePrompt)
	}

	var images []Image
	for i := 0; i < n; i++ {
		resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          g.model,
			N:              1,
			Size:           sizeFor(opts.AspectRatio),
			ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		})
		if err != nil {
			return nil, fmt.Errorf("create image: %w", err)
		}
		for _, d := range resp.Data {
			if d.B64JSON == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(d.B64JSON)
			if err != nil {
				return nil, fmt.Errorf("decode image: %w", err)
			}
			images = append(images, Image{Data: data, MIMEType: "image/png"})
		}
	}

	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

func sizeFor(aspect string) string {
	switch aspect {
	case "16:9", "4:3":
		return openai.CreateImageSize1792x1024
	case "9:16", "3:4":
		return openai.CreateImageSize1024x1792
	default:
		return openai.CreateImageSize1024x1024
	}
}
