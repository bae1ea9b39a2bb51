package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultImagenModel is the Vertex AI model used when none is configured.
	DefaultImagenModel = "imagen-3.0-generate-002"

	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// ImagenConfig configures the Vertex AI Imagen client.
type ImagenConfig struct {
	ProjectID string
	Region    string
	Model     string

	// BaseURL overrides the regional endpoint, e.g. for tests.
	BaseURL string
	// HTTPClient overrides the default-credentials client.
	HTTPClient *http.Client
}

// ImagenGenerator calls the Vertex AI predict endpoint of an Imagen model.
type ImagenGenerator struct {
	endpoint string
	client   *http.Client
}

var _ Generator = (*ImagenGenerator)(nil)

// NewImagen creates a client authenticated with Google application default
// credentials unless cfg.HTTPClient is set.
func NewImagen(ctx context.Context, cfg ImagenConfig) (*ImagenGenerator, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("imagen: project id required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-central1"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultImagenModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = fmt.Sprintf("https://%s-aiplatform.googleapis.com", cfg.Region)
	}

	client := cfg.HTTPClient
	if client == nil {
		ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
		if err != nil {
			return nil, fmt.Errorf("imagen: default credentials: %w", err)
		}
		client = oauth2.NewClient(ctx, ts)
	}

	return &ImagenGenerator{
		endpoint: fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
			cfg.BaseURL, cfg.ProjectID, cfg.Region, cfg.Model),
		client: client,
	}, nil
}

type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio"`
	NegativePrompt string `json:"negativePrompt,omitempty"`
}

type imagenResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MIMEType           string `json:"mimeType"`
	} `json:"predictions"`
}

// Generate requests opts.SampleCount images (default 1, square).
func (g *ImagenGenerator) Generate(ctx context.Context, prompt string, opts Options) ([]Image, error) {
	if opts.SampleCount <= 0 {
		opts.SampleCount = 1
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "1:1"
	}

	body, err := json.Marshal(imagenRequest{
		Instances: []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{
			SampleCount:    opts.SampleCount,
			AspectRatio:    opts.AspectRatio,
			NegativePrompt: opts.NegativePrompt,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("imagen API error (status %d): %s", resp.StatusCode, string(msg))
	}

	var out imagenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	images := make([]Image, 0, len(out.Predictions))
	for _, p := range out.Predictions {
		if p.BytesBase64Encoded == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		mime := p.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, Image{Data: data, MIMEType: mime})
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}
