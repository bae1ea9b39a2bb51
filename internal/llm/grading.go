package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// MaxWeaknesses caps the actionable weaknesses kept from an analysis.
const MaxWeaknesses = 5

const gradeSystem = `You are an expert logo critic and brand strategist. Grade logo designs objectively on five dimensions, each scored from 0 to 10:
- memorability: is it distinctive and easy to recall after one look?
- scalability: does it hold up from a 16px favicon to a billboard?
- relevance: does it fit the company, its industry and its audience?
- uniqueness: does it stand apart from common logos in the space?
- simplicity: is it clean, with nothing that could be removed?
Be critical. Most logos should land between 4 and 7; reserve 9-10 for exceptional work.`

const analyzeSystem = `You are an expert logo critic. Analyze an existing logo the way a design consultant would before a redesign: score it on memorability, scalability, relevance, uniqueness and simplicity (0-10 each) and list 3-5 specific, actionable weaknesses a designer could fix.`

const scoresSchema = `{"memorability": {"score": 0, "rationale": "string"}, "scalability": {"score": 0, "rationale": "string"}, "relevance": {"score": 0, "rationale": "string"}, "uniqueness": {"score": 0, "rationale": "string"}, "simplicity": {"score": 0, "rationale": "string"}, "summary": "string"}`

// LogoAnalysis is a critique of an image that is not necessarily a stored
// logo. Weaknesses feed improvement prompts.
type LogoAnalysis struct {
	Scores     models.Scores `json:"scores"`
	Weaknesses []string      `json:"actionable_weaknesses"`
}

// GradeLogo scores an image on the five grading dimensions. Scores are
// clamped to 0-10; the composite is left for the caller to derive.
func (p *Prompter) GradeLogo(ctx context.Context, image []byte, mimeType string, brief models.CompanyBrief) (models.Scores, error) {
	if len(image) == 0 {
		return models.Scores{}, fmt.Errorf("grade logo: image is required")
	}
	user := fmt.Sprintf("Grade this logo for the following company.\n\nCompany: %s", briefJSON(brief))

	var out models.Scores
	if err := p.ask(ctx, gradeSystem, user, scoresSchema, image, mimeType, &out); err != nil {
		return models.Scores{}, fmt.Errorf("grade logo: %w", err)
	}
	return clampScores(out), nil
}

// AnalyzeLogo critiques an uploaded image and returns weaknesses that can be
// passed straight to ImprovementPrompts.
func (p *Prompter) AnalyzeLogo(ctx context.Context, image []byte, mimeType string) (LogoAnalysis, error) {
	if len(image) == 0 {
		return LogoAnalysis{}, fmt.Errorf("analyze logo: image is required")
	}
	user := "Analyze this existing logo and identify what should change in a redesign."
	schema := `{"scores": ` + scoresSchema + `, "actionable_weaknesses": ["string"]}`

	var out LogoAnalysis
	if err := p.ask(ctx, analyzeSystem, user, schema, image, mimeType, &out); err != nil {
		return LogoAnalysis{}, fmt.Errorf("analyze logo: %w", err)
	}

	weaknesses := make([]string, 0, len(out.Weaknesses))
	for _, w := range out.Weaknesses {
		if w = strings.TrimSpace(w); w == "" {
			continue
		}
		weaknesses = append(weaknesses, w)
		if len(weaknesses) == MaxWeaknesses {
			break
		}
	}
	if len(weaknesses) == 0 {
		return LogoAnalysis{}, fmt.Errorf("analyze logo: %w", ErrEmptyResult)
	}
	out.Weaknesses = weaknesses
	out.Scores = clampScores(out.Scores)
	return out, nil
}

func clampScores(s models.Scores) models.Scores {
	for _, d := range []*models.DimensionScore{&s.Memorability, &s.Scalability, &s.Relevance, &s.Uniqueness, &s.Simplicity} {
		d.Score = min(max(d.Score, 0), 10)
	}
	return s
}
