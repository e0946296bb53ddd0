package types

import "math"

// Margin units accepted in style patches. Values are normalized to
// centimeters when a patch is applied.
const (
	MarginUnitCm   = "cm"
	MarginUnitInch = "inch"
)

// Alignment keywords shared by all emitters.
const (
	AlignLeft    = "left"
	AlignCenter  = "center"
	AlignRight   = "right"
	AlignJustify = "justify"
)

// StyleSpec is the fully resolved formatting intent applied during emission.
// Every field is populated; partial intent lives in StylePatch.
type StyleSpec struct {
	FontFamily    string  `json:"font_family"`
	FontSize      float64 `json:"font_size"`    // points
	LineSpacing   float64 `json:"line_spacing"` // multiple of single-line height
	MarginValue   float64 `json:"margin_value"`
	MarginUnit    string  `json:"margin_unit"`
	TextColor     string  `json:"text_color"` // hex RRGGBB, no leading '#'
	Alignment     string  `json:"alignment"`
	HeadingLevels []int   `json:"heading_levels"`
}

// StylePatch is a partial StyleSpec: nil fields mean "not specified".
// Patches come from directive parsing, structure-embedded style guides,
// request overrides, and block-level overrides, and are merged onto a base
// spec in that order of increasing precedence.
type StylePatch struct {
	FontFamily    *string  `json:"font_family,omitempty"`
	FontSize      *float64 `json:"font_size,omitempty"`
	LineSpacing   *float64 `json:"line_spacing,omitempty"`
	MarginValue   *float64 `json:"margin_value,omitempty"`
	MarginUnit    *string  `json:"margin_unit,omitempty"`
	TextColor     *string  `json:"text_color,omitempty"`
	Alignment     *string  `json:"alignment,omitempty"`
	HeadingLevels []int    `json:"heading_levels,omitempty"`

	// Run-level emphasis, honored by block overrides only.
	Bold      *bool `json:"bold,omitempty"`
	Italic    *bool `json:"italic,omitempty"`
	Underline *bool `json:"underline,omitempty"`
}

// DefaultStyle returns the single source of style defaults. Merge onto this,
// never hardcode defaults elsewhere.
func DefaultStyle() StyleSpec {
	return StyleSpec{
		FontFamily:    "Arial",
		FontSize:      12,
		LineSpacing:   1.5,
		MarginValue:   2.54,
		MarginUnit:    MarginUnitCm,
		TextColor:     "000000",
		Alignment:     AlignLeft,
		HeadingLevels: []int{1, 2, 3},
	}
}

// Apply returns a copy of s with every set field of p overlaid. Margin
// values given in inches are converted to centimeters so the rest of the
// system deals in a single unit. A nil patch returns s unchanged.
func (s StyleSpec) Apply(p *StylePatch) StyleSpec {
	if p == nil {
		return s
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.LineSpacing != nil {
		s.LineSpacing = *p.LineSpacing
	}
	if p.MarginValue != nil {
		v := *p.MarginValue
		if p.MarginUnit != nil && (*p.MarginUnit == MarginUnitInch || *p.MarginUnit == "in") {
			v = roundCm(v * 2.54)
		}
		s.MarginValue = v
		s.MarginUnit = MarginUnitCm
	}
	if p.TextColor != nil {
		s.TextColor = *p.TextColor
	}
	if p.Alignment != nil {
		s.Alignment = *p.Alignment
	}
	if len(p.HeadingLevels) > 0 {
		s.HeadingLevels = append([]int(nil), p.HeadingLevels...)
	}
	return s
}

// IsZero reports whether no field of the patch is set.
func (p *StylePatch) IsZero() bool {
	if p == nil {
		return true
	}
	return p.FontFamily == nil && p.FontSize == nil && p.LineSpacing == nil &&
		p.MarginValue == nil && p.MarginUnit == nil && p.TextColor == nil &&
		p.Alignment == nil && len(p.HeadingLevels) == 0 &&
		p.Bold == nil && p.Italic == nil && p.Underline == nil
}

// ClampHeading maps a requested heading level onto the configured levels:
// the deepest configured level not exceeding the request, or the shallowest
// configured level when the request is above all of them.
func ClampHeading(level int, levels []int) int {
	if len(levels) == 0 {
		return level
	}
	best := 0
	min := levels[0]
	for _, l := range levels {
		if l < min {
			min = l
		}
		if l <= level && l > best {
			best = l
		}
	}
	if best == 0 {
		return min
	}
	return best
}

func roundCm(v float64) float64 {
	return math.Round(v*100) / 100
}
