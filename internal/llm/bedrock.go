package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockModel talks to AWS Bedrock through the Converse API.
type BedrockModel struct {
	client    converser
	modelName string
	maxTokens int32
	usage     UsageRecorder
}

var _ Generator = (*BedrockModel)(nil)

// NewBedrockModel loads the default AWS credential chain for region.
func NewBedrockModel(ctx context.Context, region, model string, usage UsageRecorder) (*BedrockModel, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &BedrockModel{
		client:    bedrockruntime.NewFromConfig(awsCfg),
		modelName: model,
		maxTokens: 4096,
		usage:     usage,
	}, nil
}

// GenerateWithSystem generates text with a system prompt.
func (m *BedrockModel) GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return m.converse(ctx, systemPrompt, []types.ContentBlock{
		&types.ContentBlockMemberText{Value: userPrompt},
	})
}

// GenerateWithImage attaches image as an image block ahead of the prompt.
func (m *BedrockModel) GenerateWithImage(ctx context.Context, systemPrompt, userPrompt string, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return m.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	}
	return m.converse(ctx, systemPrompt, []types.ContentBlock{
		&types.ContentBlockMemberImage{Value: types.ImageBlock{
			Format: imageFormat(mimeType),
			Source: &types.ImageSourceMemberBytes{Value: image},
		}},
		&types.ContentBlockMemberText{Value: userPrompt},
	})
}

func (m *BedrockModel) converse(ctx context.Context, systemPrompt string, content []types.ContentBlock) (string, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(m.modelName),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: content,
		}},
		InferenceConfig: &types.InferenceConfiguration{MaxTokens: aws.Int32(m.maxTokens)},
	}
	if systemPrompt != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: systemPrompt},
		}
	}

	start := time.Now()
	out, err := m.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock converse: %w", wrapFatalError(err))
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("bedrock converse: unexpected output %T", out.Output)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no response choices")
	}

	if m.usage != nil && out.Usage != nil {
		m.usage.RecordLLMUsage(OpGenerate, time.Since(start),
			int64(aws.ToInt32(out.Usage.InputTokens)), int64(aws.ToInt32(out.Usage.OutputTokens)))
	}
	return sb.String(), nil
}

// Model returns the Bedrock model id.
func (m *BedrockModel) Model() string {
	return m.modelName
}

func imageFormat(mimeType string) types.ImageFormat {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return types.ImageFormatJpeg
	case "image/gif":
		return types.ImageFormatGif
	case "image/webp":
		return types.ImageFormatWebp
	default:
		return types.ImageFormatPng
	}
}
