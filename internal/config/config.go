package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// LLM providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderBedrock   = "bedrock"
)

// Image providers.
const (
	ImageProviderImagen = "imagen"
	ImageProviderOpenAI = "openai"
)

// Storage backends.
const (
	StorageGCS   = "gcs"
	StorageLocal = "local"
)

// Record stores.
const (
	DatabaseSurreal = "surrealdb"
	DatabaseMemory  = "memory"
)

// Config holds all configuration values.
type Config struct {
	// Database selects the record store; memory keeps nothing across restarts.
	Database string

	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Text and vision model
	LLMProvider     string
	LLMModel        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaHost      string
	AWSRegion       string

	// Image generation
	ImageProvider string
	ImageModel    string
	GCPProjectID  string
	GCPRegion     string
	ImageRate     float64
	ImageTimeout  time.Duration
	ImageAspect   string

	// Object storage
	Storage       string
	GCSBucket     string
	LocalDir      string
	PublicBaseURL string

	// Batch execution
	BatchWorkers int

	// Server and client
	ServerPort    string
	ServerURL     string
	ClientTimeout time.Duration

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	provider := getEnv("LOGOFORGE_LLM_PROVIDER", ProviderAnthropic)
	imageProvider := getEnv("LOGOFORGE_IMAGE_PROVIDER", ImageProviderImagen)

	return Config{
		Database: getEnv("LOGOFORGE_DATABASE", DatabaseSurreal),

		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "logoforge"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "brand"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		LLMProvider:     provider,
		LLMModel:        getEnv("LOGOFORGE_LLM_MODEL", defaultLLMModel(provider)),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		ImageProvider: imageProvider,
		ImageModel:    getEnv("LOGOFORGE_IMAGE_MODEL", defaultImageModel(imageProvider)),
		GCPProjectID:  os.Getenv("GOOGLE_CLOUD_PROJECT_ID"),
		GCPRegion:     getEnv("GOOGLE_CLOUD_REGION", "us-central1"),
		ImageRate:     getEnvFloat("LOGOFORGE_IMAGE_RATE", 1),
		ImageTimeout:  getEnvDuration("LOGOFORGE_IMAGE_TIMEOUT", 90*time.Second),
		ImageAspect:   getEnv("LOGOFORGE_IMAGE_ASPECT_RATIO", "1:1"),

		Storage:       getEnv("LOGOFORGE_STORAGE", StorageLocal),
		GCSBucket:     os.Getenv("LOGOFORGE_GCS_BUCKET"),
		LocalDir:      getEnv("LOGOFORGE_LOCAL_DIR", "./data/logos"),
		PublicBaseURL: getEnv("LOGOFORGE_PUBLIC_BASE_URL", "http://localhost:8585/files"),

		BatchWorkers: getEnvInt("LOGOFORGE_BATCH_WORKERS", 2),

		ServerPort:    getEnv("LOGOFORGE_SERVER_PORT", "8585"),
		ServerURL:     getEnv("LOGOFORGE_SERVER_URL", "http://localhost:8585"),
		ClientTimeout: getEnvDuration("LOGOFORGE_CLIENT_TIMEOUT", 5*time.Minute),

		LogFile:  getEnv("LOGOFORGE_LOG_FILE", "/tmp/logoforge.log"),
		LogLevel: ParseLogLevel(getEnv("LOGOFORGE_LOG_LEVEL", "INFO")),
	}
}

// Validate reports every configuration problem found, joined.
func (c Config) Validate() error {
	var errs []error

	switch c.Database {
	case DatabaseSurreal, DatabaseMemory:
	default:
		errs = append(errs, fmt.Errorf("unsupported database %q", c.Database))
	}

	switch c.LLMProvider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama, ProviderBedrock:
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM provider %q", c.LLMProvider))
	}

	switch c.ImageProvider {
	case ImageProviderImagen:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("GOOGLE_CLOUD_PROJECT_ID is required for imagen"))
		}
	case ImageProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for openai images"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported image provider %q", c.ImageProvider))
	}

	switch c.Storage {
	case StorageGCS:
		if c.GCSBucket == "" {
			errs = append(errs, errors.New("LOGOFORGE_GCS_BUCKET is required for gcs storage"))
		}
	case StorageLocal:
	default:
		errs = append(errs, fmt.Errorf("unsupported storage backend %q", c.Storage))
	}

	if c.BatchWorkers <= 0 {
		errs = append(errs, fmt.Errorf("batch workers must be positive, got %d", c.BatchWorkers))
	}
	if c.ImageRate <= 0 {
		errs = append(errs, fmt.Errorf("image rate must be positive, got %v", c.ImageRate))
	}

	return errors.Join(errs...)
}

func defaultLLMModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderOllama:
		return "llama3.2-vision"
	case ProviderBedrock:
		return "anthropic.claude-3-5-sonnet-20240620-v1:0"
	default:
		return "claude-sonnet-4-20250514"
	}
}

func defaultImageModel(provider string) string {
	if provider == ImageProviderOpenAI {
		return "dall-e-3"
	}
	return "imagen-3.0-generate-002"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultVal
	}
	return v
}

// ParseLogLevel maps a level name to a slog level, defaulting to INFO.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
