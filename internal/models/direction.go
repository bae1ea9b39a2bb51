package models

import "time"

// DirectionType is the broad creative approach of a direction.
type DirectionType string

const (
	DirectionWordmark       DirectionType = "wordmark"
	DirectionAbstractSymbol DirectionType = "abstract_symbol"
	DirectionLettermark     DirectionType = "lettermark"
	DirectionMascot         DirectionType = "mascot"
	DirectionNegativeSpace  DirectionType = "negative_space"
	DirectionEmblem         DirectionType = "emblem"
)

// DirectionTypes lists the supported direction types in display order.
var DirectionTypes = []DirectionType{
	DirectionWordmark,
	DirectionAbstractSymbol,
	DirectionLettermark,
	DirectionMascot,
	DirectionNegativeSpace,
	DirectionEmblem,
}

// Direction is a proposed creative direction for a project.
type Direction struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	Type          DirectionType `json:"type"`
	Name          string        `json:"name"`
	Rationale     string        `json:"rationale"`
	StyleKeywords []string      `json:"style_keywords,omitempty"`
	Palette       *ColorPalette `json:"color_palette,omitempty"`
	SortOrder     int           `json:"sort_order"`
	Selected      bool          `json:"selected"`
	CreatedAt     time.Time     `json:"created_at"`
}

// ColorPalette is a suggested set of colors with a short description.
type ColorPalette struct {
	Colors      []string `json:"colors,omitempty"`
	Description string   `json:"description,omitempty"`
}
