package models

import "time"

// Project is one brand-kit engagement, from company brief to exported kit.
type Project struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	CompanyBrief  CompanyBrief `json:"company_brief"`
	PhaseProgress int          `json:"phase_progress"`
	WinnerLogoID  *string      `json:"winner_logo_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CompanyBrief is the structured summary of the company a logo is made for.
type CompanyBrief struct {
	CompanyName      string   `json:"company_name,omitempty" yaml:"company_name"`
	Industry         string   `json:"industry,omitempty" yaml:"industry"`
	TargetAudience   string   `json:"target_audience,omitempty" yaml:"target_audience"`
	MissionStatement string   `json:"mission_statement,omitempty" yaml:"mission_statement"`
	Values           []string `json:"values,omitempty" yaml:"values"`
	Tone             string   `json:"tone,omitempty" yaml:"tone"`
	ColorPreferences []string `json:"color_preferences,omitempty" yaml:"color_preferences"`
	Differentiators  []string `json:"differentiators,omitempty" yaml:"differentiators"`
	Notes            string   `json:"notes,omitempty" yaml:"-"`
}

// IsEmpty reports whether nothing is known about the company yet.
func (b CompanyBrief) IsEmpty() bool {
	return b.CompanyName == "" && b.Industry == "" && b.TargetAudience == "" &&
		b.MissionStatement == "" && len(b.Values) == 0 && b.Notes == ""
}

// ProjectUpdate carries optional project changes.
type ProjectUpdate struct {
	Name          *string
	CompanyBrief  *CompanyBrief
	PhaseProgress *int
	WinnerLogoID  *string
}
