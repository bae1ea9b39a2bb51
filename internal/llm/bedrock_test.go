package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverser struct {
	input *bedrockruntime.ConverseInput
	out   *bedrockruntime.ConverseOutput
	err   error
}

func (f *fakeConverser) Converse(_ context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = in
	return f.out, f.err
}

func textOutput(s string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: s}},
		}},
		Usage: &types.TokenUsage{InputTokens: aws.Int32(7), OutputTokens: aws.Int32(2)},
	}
}

func TestBedrockGenerateWithImage(t *testing.T) {
	fake := &fakeConverser{out: textOutput("looks good")}
	spy := &usageSpy{}
	m := &BedrockModel{client: fake, modelName: "anthropic.claude", maxTokens: 100, usage: spy}

	got, err := m.GenerateWithImage(context.Background(), "sys", "describe", []byte{1}, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "looks good", got)

	assert.Equal(t, "anthropic.claude", aws.ToString(fake.input.ModelId))
	require.Len(t, fake.input.System, 1)
	require.Len(t, fake.input.Messages, 1)
	content := fake.input.Messages[0].Content
	require.Len(t, content, 2)
	img, ok := content[0].(*types.ContentBlockMemberImage)
	require.True(t, ok)
	assert.Equal(t, types.ImageFormatJpeg, img.Value.Format)

	assert.Equal(t, int64(7), spy.in)
	assert.Equal(t, int64(2), spy.out)
}

func TestBedrockErrors(t *testing.T) {
	m := &BedrockModel{client: &fakeConverser{err: errors.New("AccessDeniedException: 403")}, modelName: "m"}
	_, err := m.GenerateWithSystem(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrFatalAPI)

	m = &BedrockModel{client: &fakeConverser{out: &bedrockruntime.ConverseOutput{}}, modelName: "m"}
	_, err = m.GenerateWithSystem(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestImageFormat(t *testing.T) {
	assert.Equal(t, types.ImageFormatPng, imageFormat(""))
	assert.Equal(t, types.ImageFormatGif, imageFormat("image/gif"))
	assert.Equal(t, types.ImageFormatWebp, imageFormat("IMAGE/WEBP"))
}
