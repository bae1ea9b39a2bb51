package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SURREALDB_NAMESPACE", "LOGOFORGE_LLM_PROVIDER", "LOGOFORGE_LLM_MODEL",
		"LOGOFORGE_IMAGE_PROVIDER", "LOGOFORGE_IMAGE_MODEL", "LOGOFORGE_BATCH_WORKERS",
		"LOGOFORGE_IMAGE_TIMEOUT", "LOGOFORGE_SERVER_PORT", "LOGOFORGE_STORAGE",
		"LOGOFORGE_DATABASE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "logoforge", cfg.SurrealDBNamespace)
	assert.Equal(t, ProviderAnthropic, cfg.LLMProvider)
	assert.Equal(t, ImageProviderImagen, cfg.ImageProvider)
	assert.Equal(t, "imagen-3.0-generate-002", cfg.ImageModel)
	assert.Equal(t, 2, cfg.BatchWorkers)
	assert.Equal(t, 90*time.Second, cfg.ImageTimeout)
	assert.Equal(t, "8585", cfg.ServerPort)
	assert.Equal(t, StorageLocal, cfg.Storage)
	assert.Equal(t, DatabaseSurreal, cfg.Database)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOGOFORGE_LLM_PROVIDER", "openai")
	t.Setenv("LOGOFORGE_IMAGE_PROVIDER", "openai")
	t.Setenv("LOGOFORGE_BATCH_WORKERS", "5")
	t.Setenv("LOGOFORGE_IMAGE_TIMEOUT", "2m")
	t.Setenv("LOGOFORGE_IMAGE_RATE", "0.5")
	t.Setenv("LOGOFORGE_LLM_MODEL", "")

	cfg := Load()

	assert.Equal(t, "gpt-4o", cfg.LLMModel)
	assert.Equal(t, "dall-e-3", cfg.ImageModel)
	assert.Equal(t, 5, cfg.BatchWorkers)
	assert.Equal(t, 2*time.Minute, cfg.ImageTimeout)
	assert.InDelta(t, 0.5, cfg.ImageRate, 1e-9)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("LOGOFORGE_BATCH_WORKERS", "two")
	t.Setenv("LOGOFORGE_IMAGE_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 2, cfg.BatchWorkers)
	assert.Equal(t, 90*time.Second, cfg.ImageTimeout)
}

func validConfig() Config {
	return Config{
		Database:      DatabaseMemory,
		LLMProvider:   ProviderAnthropic,
		ImageProvider: ImageProviderImagen,
		GCPProjectID:  "brand-lab",
		Storage:       StorageLocal,
		BatchWorkers:  2,
		ImageRate:     1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown database", func(c *Config) { c.Database = "mongo" }, "unsupported database"},
		{"unknown llm", func(c *Config) { c.LLMProvider = "gemini" }, "unsupported LLM provider"},
		{"unknown image", func(c *Config) { c.ImageProvider = "midjourney" }, "unsupported image provider"},
		{"imagen without project", func(c *Config) { c.GCPProjectID = "" }, "GOOGLE_CLOUD_PROJECT_ID"},
		{"openai images without key", func(c *Config) { c.ImageProvider = ImageProviderOpenAI }, "OPENAI_API_KEY"},
		{"gcs without bucket", func(c *Config) { c.Storage = StorageGCS }, "LOGOFORGE_GCS_BUCKET"},
		{"zero workers", func(c *Config) { c.BatchWorkers = 0 }, "batch workers"},
		{"zero rate", func(c *Config) { c.ImageRate = 0 }, "image rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLogLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLogLevel("verbose"))
}

func TestSetupLoggerWithWriters(t *testing.T) {
	var stderr, file bytes.Buffer
	logger := SetupLoggerWithWriters(&stderr, &file, slog.LevelInfo)

	logger.Info("batch finished", "total", 5)
	logger.Debug("hidden")

	assert.Contains(t, stderr.String(), "batch finished")
	assert.True(t, strings.HasPrefix(file.String(), "{"))
	assert.Contains(t, file.String(), `"total":5`)
	assert.NotContains(t, stderr.String(), "hidden")
}
