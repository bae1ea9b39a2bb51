// Package llm wraps text and vision models behind a small Generator interface
// and builds the prompt-engineering calls on top of it.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/logoforge/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpGenerate is the operation name reported to a UsageRecorder.
const OpGenerate = "llm_generate"

// Generator produces text from a system and user prompt, optionally with an
// attached image.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateWithImage(ctx context.Context, systemPrompt, userPrompt string, image []byte, mimeType string) (string, error)
	Model() string
}

// UsageRecorder receives timing and token counts per call.
type UsageRecorder interface {
	RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64)
}

// Model wraps a langchaingo LLM.
type Model struct {
	llm       llms.Model
	modelName string
	maxTokens int
	usage     UsageRecorder
}

var _ Generator = (*Model)(nil)

// New returns the configured Generator: a langchaingo Model or, for bedrock,
// a BedrockModel.
func New(ctx context.Context, cfg config.Config, usage UsageRecorder) (Generator, error) {
	if cfg.LLMProvider == config.ProviderBedrock {
		return NewBedrockModel(ctx, cfg.AWSRegion, cfg.LLMModel, usage)
	}
	m, err := NewModel(cfg)
	if err != nil {
		return nil, err
	}
	m.usage = usage
	return m, nil
}

// NewModel creates a langchaingo-backed model based on configuration.
func NewModel(cfg config.Config) (*Model, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	return NewModelFromLLM(model, cfg.LLMModel), nil
}

// NewModelFromLLM wraps an existing langchaingo model.
func NewModelFromLLM(model llms.Model, name string) *Model {
	return &Model{llm: model, modelName: name, maxTokens: 4096}
}

// GenerateWithSystem generates text with a system prompt.
func (m *Model) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}
	return m.generate(ctx, messages)
}

// GenerateWithImage sends the image ahead of the user prompt so the model
// can analyze it.
func (m *Model) GenerateWithImage(ctx context.Context, systemPrompt, userPrompt string, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return m.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	}
	if mimeType == "" {
		mimeType = "image/png"
	}
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, image),
				llms.TextPart(userPrompt),
			},
		},
	}
	return m.generate(ctx, messages)
}

func (m *Model) generate(ctx context.Context, messages []llms.MessageContent) (string, error) {
	start := time.Now()
	response, err := m.llm.GenerateContent(ctx, messages, llms.WithMaxTokens(m.maxTokens))
	if err != nil {
		return "", fmt.Errorf("generate: %w", wrapFatalError(err))
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	choice := response.Choices[0]

	if m.usage != nil {
		in := tokenCount(choice.GenerationInfo, "InputTokens", "PromptTokens")
		out := tokenCount(choice.GenerationInfo, "OutputTokens", "CompletionTokens")
		m.usage.RecordLLMUsage(OpGenerate, time.Since(start), in, out)
	}

	return choice.Content, nil
}

// tokenCount reads the first present key; providers name usage differently.
func tokenCount(info map[string]any, keys ...string) int64 {
	for _, k := range keys {
		switch v := info[k].(type) {
		case int:
			return int64(v)
		case int32:
			return int64(v)
		case int64:
			return v
		case float64:
			return int64(v)
		}
	}
	return 0
}

// Model returns the LLM model name.
func (m *Model) Model() string {
	return m.modelName
}
