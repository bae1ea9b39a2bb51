package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBrief_Frontmatter(t *testing.T) {
	content := `---
company_name: Northwind
industry: Logistics
values: [speed, reliability]
color_preferences:
  - deep blue
---
# Northwind

We move freight across the Baltic.

## Tone

Calm and precise.

## Values

- ignored because frontmatter set them

## History

Founded in 1998.
`
	b, err := ParseBrief(content)
	require.NoError(t, err)

	assert.Equal(t, "Northwind", b.CompanyName)
	assert.Equal(t, "Logistics", b.Industry)
	assert.Equal(t, []string{"speed", "reliability"}, b.Values)
	assert.Equal(t, []string{"deep blue"}, b.ColorPreferences)
	assert.Equal(t, "Calm and precise.", b.Tone)
	assert.Equal(t, "We move freight across the Baltic.\n\nHistory:\nFounded in 1998.", b.Notes)
	assert.Len(t, b.Sections, 4)
}

func TestParseBrief_SectionsOnly(t *testing.T) {
	content := "Intro line.\n\n# Acme Rockets\n\n## Target Audience\nSmall satellite operators\n\n" +
		"## Core Values\n* safety\n* thrust\n\n## Brand Colors\norange\nblack\n\n## What makes us unique\n- reusable stages\n"

	b, err := ParseBrief(content)
	require.NoError(t, err)

	assert.Equal(t, "Acme Rockets", b.CompanyName)
	assert.Equal(t, "Small satellite operators", b.TargetAudience)
	assert.Equal(t, []string{"safety", "thrust"}, b.Values)
	assert.Equal(t, []string{"orange", "black"}, b.ColorPreferences)
	assert.Equal(t, []string{"reusable stages"}, b.Differentiators)
	assert.Equal(t, "Intro line.", b.Notes)
}

func TestParseBrief_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unterminated frontmatter", "---\ncompany_name: x\n"},
		{"invalid yaml", "---\nvalues: [a\n---\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBrief(tt.content)
			assert.Error(t, err)
		})
	}
}

func TestSplitFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   string
		wantBody string
	}{
		{"none", "# Title\n", "", "# Title\n"},
		{"simple", "---\na: b\n---\nbody\n", "a: b", "body\n"},
		{"empty block", "---\n---\nbody", "", "body"},
		{"crlf", "---\r\na: b\r\n---\r\nbody", "a: b", "body"},
		{"no body", "---\na: b\n---", "a: b", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := splitFrontmatter(tt.content)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFM, fm)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
