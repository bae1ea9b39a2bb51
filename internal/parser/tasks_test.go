package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/logoforge/internal/models"
)

func TestParseTasks_List(t *testing.T) {
	data := []byte(`# two prompts
- prompt: minimalist fox mark
- prompt: "  geometric fox head  "
  generation_type: initial
  style_levers: {palette: warm}
`)
	tasks, err := ParseTasks(data)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "minimalist fox mark", tasks[0].PromptText)
	assert.Equal(t, "geometric fox head", tasks[1].PromptText)
	assert.Equal(t, models.GenerationInitial, tasks[1].GenerationType)
	assert.Equal(t, map[string]string{"palette": "warm"}, tasks[1].StyleLevers)
}

func TestParseTasks_Defaults(t *testing.T) {
	data := []byte(`defaults:
  direction_id: dir-1
  style_levers: {palette: warm, mood: calm}
tasks:
  - prompt: one
  - prompt: two
    direction_id: dir-2
    style_levers: {palette: cold}
`)
	tasks, err := ParseTasks(data)
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	require.NotNil(t, tasks[0].DirectionID)
	assert.Equal(t, "dir-1", *tasks[0].DirectionID)
	assert.Equal(t, map[string]string{"palette": "warm", "mood": "calm"}, tasks[0].StyleLevers)

	require.NotNil(t, tasks[1].DirectionID)
	assert.Equal(t, "dir-2", *tasks[1].DirectionID)
	assert.Equal(t, map[string]string{"palette": "cold", "mood": "calm"}, tasks[1].StyleLevers)
}

func TestParseTasks_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"empty file", "", ErrNoTasks},
		{"empty list", "tasks: []", ErrNoTasks},
		{"missing prompt", "- style_levers: {a: b}", nil},
		{"bad generation type", "- prompt: x\n  generation_type: remix", nil},
		{"not yaml", "- prompt: [", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTasks([]byte(tt.data))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
