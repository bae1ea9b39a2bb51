package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/logoforge/internal/models"
)

// Result limits per call.
const (
	MaxVariations   = 6
	MaxImprovements = 4
	MaxDirections   = 6
	maxBriefText    = 15000
)

// ErrEmptyResult is returned when the model answered with valid JSON that
// contained nothing usable.
var ErrEmptyResult = errors.New("model returned no usable results")

const logoSuffix = "professional logo design, vector style, clean white background, high contrast"

const engineerSystem = `You are an expert prompt engineer for AI image generation. Create detailed, specific prompts that will generate professional logo designs. Each prompt should specify the logo concept, style (flat/3D/hand-drawn/geometric), color palette, composition and any typography details. Be very specific about visual details. Always include "` + logoSuffix + `" in your prompts for consistent logo-quality output.`

const directionsSystem = `You are an expert creative director for logo design. Based on the company brief and competitive analysis, propose 5-6 distinct creative directions for a logo. Each direction should be genuinely different and include a specific rationale tied to the company's brand. Cover a range of approaches: wordmark, abstract symbol, lettermark, mascot, negative space concept and industry emblem.`

const branchSystem = `You are an expert logo designer creating targeted variations of an existing logo concept. Generate 4-6 prompts that preserve the core concept but vary specific elements. Each variation should be meaningfully different.`

const refineSystem = `You are an expert prompt engineer. Translate a natural language refinement instruction into a precise image generation prompt. The new prompt should produce a logo that matches the original but with the requested changes applied.`

const improveSystem = `You are an expert logo designer. Based on the analysis of weaknesses in this logo, create 3-4 improvement prompts that address the identified issues while keeping the brand identity.`

const extractSystem = `You are a brand strategist. Extract structured company information from the provided document text. Be thorough but accurate. If you cannot confidently extract a field, add it to the "gaps" array so the user can fill it in manually. Focus on information relevant to logo design and brand identity.`

// Variation is one branch prompt derived from an existing logo.
type Variation struct {
	PromptText    string            `json:"prompt_text"`
	VariationType string            `json:"variation_type"`
	StyleLevers   map[string]string `json:"style_levers,omitempty"`
}

// Refinement is the rewritten prompt for a single refinement step.
type Refinement struct {
	PromptText     string `json:"prompt_text"`
	ChangesApplied string `json:"changes_applied"`
}

// Improvement is one prompt addressing a weakness of an existing logo.
type Improvement struct {
	PromptText        string `json:"prompt_text"`
	WeaknessAddressed string `json:"weakness_addressed"`
}

// BriefExtraction is a company brief pulled out of free text, plus the fields
// the model could not fill.
type BriefExtraction struct {
	models.CompanyBrief
	Gaps []string `json:"gaps,omitempty"`
}

// Prompter turns project context into image prompts using a Generator.
type Prompter struct {
	gen Generator
}

// NewPrompter creates a Prompter.
func NewPrompter(gen Generator) *Prompter {
	return &Prompter{gen: gen}
}

// EngineerPrompts asks for 3-4 prompts per direction and maps each answer
// back to the direction it was written for.
func (p *Prompter) EngineerPrompts(ctx context.Context, brief models.CompanyBrief, directions []models.Direction) ([]models.Task, error) {
	if len(directions) == 0 {
		return nil, fmt.Errorf("at least one direction is required")
	}

	var list strings.Builder
	for i, d := range directions {
		fmt.Fprintf(&list, "%d. %s (%s): %s\n", i+1, d.Name, d.Type, d.Rationale)
	}
	user := fmt.Sprintf(`Create 3-4 image generation prompts for each of these selected creative directions. Vary the style, color and composition across prompts for each direction.

Company Brief: %s

Directions:
%s`, briefJSON(brief), list.String())

	var out struct {
		Prompts []struct {
			DirectionID   string            `json:"direction_id"`
			DirectionName string            `json:"direction_name"`
			PromptText    string            `json:"prompt_text"`
			StyleLevers   map[string]string `json:"style_levers"`
		} `json:"prompts"`
	}
	schema := `{"prompts": [{"direction_id": "string", "direction_name": "string", "prompt_text": "string", "style_levers": {"style": "string", "palette": "string", "composition": "string", "mood": "string"}}]}`
	if err := p.ask(ctx, engineerSystem, user, schema, nil, "", &out); err != nil {
		return nil, fmt.Errorf("engineer prompts: %w", err)
	}

	tasks := make([]models.Task, 0, len(out.Prompts))
	for _, pr := range out.Prompts {
		if strings.TrimSpace(pr.PromptText) == "" {
			continue
		}
		task := models.Task{
			PromptText:     pr.PromptText,
			StyleLevers:    pr.StyleLevers,
			GenerationType: models.GenerationInitial,
		}
		if d := matchDirection(directions, pr.DirectionID, pr.DirectionName); d != nil {
			id := d.ID
			task.DirectionID = &id
		}
		tasks = append(tasks, task)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("engineer prompts: %w", ErrEmptyResult)
	}
	return tasks, nil
}

// ProposeDirections asks for 5-6 creative directions. competitors may be empty.
func (p *Prompter) ProposeDirections(ctx context.Context, brief models.CompanyBrief, competitors string) ([]models.Direction, error) {
	parts := []string{"Company Brief: " + briefJSON(brief)}
	if strings.TrimSpace(competitors) != "" {
		parts = append(parts, "Competitive Analysis: "+competitors)
	}
	user := "Propose 5-6 creative directions for a logo based on:\n\n" + strings.Join(parts, "\n\n")

	types := make([]string, len(models.DirectionTypes))
	for i, t := range models.DirectionTypes {
		types[i] = string(t)
	}
	schema := fmt.Sprintf(`{"directions": [{"type": "one of %s", "name": "string", "rationale": "string", "style_keywords": ["string"], "color_palette": {"colors": ["#hex"], "description": "string"}}]}`,
		strings.Join(types, "|"))

	var out struct {
		Directions []struct {
			Type          string               `json:"type"`
			Name          string               `json:"name"`
			Rationale     string               `json:"rationale"`
			StyleKeywords []string             `json:"style_keywords"`
			ColorPalette  *models.ColorPalette `json:"color_palette"`
		} `json:"directions"`
	}
	if err := p.ask(ctx, directionsSystem, user, schema, nil, "", &out); err != nil {
		return nil, fmt.Errorf("propose directions: %w", err)
	}

	dirs := make([]models.Direction, 0, len(out.Directions))
	for _, d := range out.Directions {
		t, ok := normalizeDirectionType(d.Type)
		if !ok || d.Name == "" {
			continue
		}
		dirs = append(dirs, models.Direction{
			Type:          t,
			Name:          d.Name,
			Rationale:     d.Rationale,
			StyleKeywords: d.StyleKeywords,
			Palette:       d.ColorPalette,
			SortOrder:     len(dirs),
		})
		if len(dirs) == MaxDirections {
			break
		}
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("propose directions: %w", ErrEmptyResult)
	}
	return dirs, nil
}

// BranchVariations asks for 4-6 variations of source. An empty instruction
// lets the model vary palette, typography, simplicity, composition and mood.
func (p *Prompter) BranchVariations(ctx context.Context, source models.Logo, brief models.CompanyBrief, image []byte, mimeType, instruction string) ([]Variation, error) {
	focus := "Vary: color palette, typography weight, icon simplicity, composition, and mood."
	if strings.TrimSpace(instruction) != "" {
		focus = "Focus on: " + instruction
	}
	user := fmt.Sprintf("Create 4-6 variation prompts for this logo. %s\n\nCompany context: %s\nOriginal prompt: %s",
		focus, briefJSON(brief), source.Prompt)
	schema := `{"variations": [{"prompt_text": "string", "variation_type": "what was varied, e.g. palette, simplify, typography", "style_levers": {"style": "string", "palette": "string", "composition": "string"}}]}`

	var out struct {
		Variations []Variation `json:"variations"`
	}
	if err := p.ask(ctx, branchSystem, user, schema, image, mimeType, &out); err != nil {
		return nil, fmt.Errorf("branch variations: %w", err)
	}

	vars := make([]Variation, 0, len(out.Variations))
	for _, v := range out.Variations {
		if strings.TrimSpace(v.PromptText) == "" {
			continue
		}
		vars = append(vars, v)
		if len(vars) == MaxVariations {
			break
		}
	}
	if len(vars) == 0 {
		return nil, fmt.Errorf("branch variations: %w", ErrEmptyResult)
	}
	return vars, nil
}

// RefinePrompt rewrites source's prompt to apply instruction.
func (p *Prompter) RefinePrompt(ctx context.Context, source models.Logo, image []byte, mimeType, instruction string) (Refinement, error) {
	if strings.TrimSpace(instruction) == "" {
		return Refinement{}, fmt.Errorf("refinement instruction is required")
	}
	user := fmt.Sprintf(`Original prompt: %q
User instruction: %q

Create a new image generation prompt that generates a refined version of this logo with the requested changes. Keep the core concept but apply the modification.`, source.Prompt, instruction)
	schema := `{"prompt_text": "the refined prompt", "changes_applied": "summary of changes applied"}`

	var out Refinement
	if err := p.ask(ctx, refineSystem, user, schema, image, mimeType, &out); err != nil {
		return Refinement{}, fmt.Errorf("refine prompt: %w", err)
	}
	if strings.TrimSpace(out.PromptText) == "" {
		return Refinement{}, fmt.Errorf("refine prompt: %w", ErrEmptyResult)
	}
	return out, nil
}

// ImprovementPrompts asks for 3-4 prompts that address weaknesses while
// keeping the brand recognizable.
func (p *Prompter) ImprovementPrompts(ctx context.Context, image []byte, mimeType string, weaknesses []string, brief models.CompanyBrief) ([]Improvement, error) {
	if weaknesses == nil {
		weaknesses = []string{}
	}
	w, _ := json.Marshal(weaknesses)
	user := fmt.Sprintf(`This logo has these weaknesses: %s

Company: %s

Create 3-4 image generation prompts that improve upon this logo, addressing the weaknesses while preserving brand recognition.`, w, briefJSON(brief))
	schema := `{"improvements": [{"prompt_text": "string", "weakness_addressed": "string"}]}`

	var out struct {
		Improvements []Improvement `json:"improvements"`
	}
	if err := p.ask(ctx, improveSystem, user, schema, image, mimeType, &out); err != nil {
		return nil, fmt.Errorf("improvement prompts: %w", err)
	}

	imps := make([]Improvement, 0, len(out.Improvements))
	for _, imp := range out.Improvements {
		if strings.TrimSpace(imp.PromptText) == "" {
			continue
		}
		imps = append(imps, imp)
		if len(imps) == MaxImprovements {
			break
		}
	}
	if len(imps) == 0 {
		return nil, fmt.Errorf("improvement prompts: %w", ErrEmptyResult)
	}
	return imps, nil
}

// ExtractBrief reads a company brief out of free text. Long documents are
// truncated before sending.
func (p *Prompter) ExtractBrief(ctx context.Context, text string) (BriefExtraction, error) {
	if strings.TrimSpace(text) == "" {
		return BriefExtraction{}, fmt.Errorf("no text to extract from")
	}
	if r := []rune(text); len(r) > maxBriefText {
		text = string(r[:maxBriefText])
	}
	user := "Extract company information from this document for logo design purposes:\n\n" + text
	schema := `{"company_name": "string", "industry": "string", "target_audience": "string", "mission_statement": "string", "values": ["string"], "tone": "string", "color_preferences": ["string"], "differentiators": ["string"], "gaps": ["field names you could not fill"]}`

	var out BriefExtraction
	if err := p.ask(ctx, extractSystem, user, schema, nil, "", &out); err != nil {
		return BriefExtraction{}, fmt.Errorf("extract brief: %w", err)
	}
	return out, nil
}

func (p *Prompter) ask(ctx context.Context, system, user, schema string, image []byte, mimeType string, out any) error {
	system += "\n\nRespond with a single JSON object and nothing else, matching this shape:\n" + schema

	var (
		text string
		err  error
	)
	if len(image) > 0 {
		text, err = p.gen.GenerateWithImage(ctx, system, user, image, mimeType)
	} else {
		text, err = p.gen.GenerateWithSystem(ctx, system, user)
	}
	if err != nil {
		return err
	}
	return decodeJSON(text, out)
}

// decodeJSON parses the first JSON object in text, ignoring code fences and
// any prose around it.
func decodeJSON(text string, out any) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in response: %q", truncate(text, 200))
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func briefJSON(b models.CompanyBrief) string {
	data, err := json.Marshal(b)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func matchDirection(dirs []models.Direction, id, name string) *models.Direction {
	for i := range dirs {
		if id != "" && dirs[i].ID == id {
			return &dirs[i]
		}
	}
	for i := range dirs {
		if name != "" && strings.EqualFold(strings.TrimSpace(dirs[i].Name), strings.TrimSpace(name)) {
			return &dirs[i]
		}
	}
	return nil
}

func normalizeDirectionType(s string) (models.DirectionType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	for _, t := range models.DirectionTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func truncate(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n]) + "..."
	}
	return s
}
