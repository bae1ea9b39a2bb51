package imagegen

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

func TestImagenGenerate(t *testing.T) {
	var got imagenRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/projects/brand-lab/locations/europe-west4/publishers/google/models/imagen-3.0-generate-002:predict", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"predictions": []map[string]string{
				{"bytesBase64Encoded": base64.StdEncoding.EncodeToString(pngBytes), "mimeType": "image/png"},
			},
		})
	}))
	defer srv.Close()

	gen, err := NewImagen(context.Background(), ImagenConfig{
		ProjectID:  "brand-lab",
		Region:     "europe-west4",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)

	images, err := gen.Generate(context.Background(), "a fox mark", Options{NegativePrompt: "text"})
	require.NoError(t, err)

	require.Len(t, images, 1)
	assert.Equal(t, pngBytes, images[0].Data)
	assert.Equal(t, "image/png", images[0].MIMEType)
	assert.Equal(t, "a fox mark", got.Instances[0].Prompt)
	assert.Equal(t, 1, got.Parameters.SampleCount)
	assert.Equal(t, "1:1", got.Parameters.AspectRatio)
	assert.Equal(t, "text", got.Parameters.NegativePrompt)
}

func TestImagenGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no predictions", http.StatusOK, `{"predictions":[]}`, ErrNoImages},
		{"filtered prediction", http.StatusOK, `{"predictions":[{"raiFilteredReason":"blocked"}]}`, ErrNoImages},
		{"server error", http.StatusInternalServerError, `{"error":"boom"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gen, err := NewImagen(context.Background(), ImagenConfig{ProjectID: "p", BaseURL: srv.URL, HTTPClient: srv.Client()})
			require.NoError(t, err)

			_, err = gen.Generate(context.Background(), "prompt", Options{})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewImagen_RequiresProject(t *testing.T) {
	_, err := NewImagen(context.Background(), ImagenConfig{HTTPClient: http.DefaultClient})
	assert.Error(t, err)
}

func TestOpenAIGenerate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		var req openai.ImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, openai.CreateImageResponseFormatB64JSON, req.ResponseFormat)
		assert.Equal(t, openai.CreateImageSize1024x1024, req.Size)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(pngBytes)}},
		})
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	gen := NewOpenAIWithConfig(cfg, "")

	images, err := gen.Generate(context.Background(), "a fox mark", Options{SampleCount: 2})
	require.NoError(t, err)

	assert.Len(t, images, 2)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, pngBytes, images[0].Data)
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	_, err := NewOpenAI("", "")
	assert.Error(t, err)
}

func TestWithTimeout(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) ([]Image, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	_, err := WithTimeout(slow, 20*time.Millisecond).Generate(context.Background(), "p", Options{})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimited(t *testing.T) {
	var calls atomic.Int32
	fast := GeneratorFunc(func(ctx context.Context, prompt string, opts Options) ([]Image, error) {
		calls.Add(1)
		return []Image{{Data: pngBytes}}, nil
	})
	gen := RateLimited(fast, 1, 1)

	_, err := gen.Generate(context.Background(), "p", Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = gen.Generate(ctx, "p", Options{})

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRateLimited_Disabled(t *testing.T) {
	g := GeneratorFunc(func(context.Context, string, Options) ([]Image, error) { return nil, nil })
	_, ok := RateLimited(g, 0, 1).(GeneratorFunc)
	assert.True(t, ok)
}

func TestFirst(t *testing.T) {
	_, err := First(nil)
	assert.True(t, errors.Is(err, ErrNoImages))

	img, err := First([]Image{{MIMEType: "image/png"}})
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
}
