package styleparse

import (
	"strconv"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

// Render writes a patch back out as canonical directive text, one clause
// per set field, such that Parse(Render(p)) reproduces p. Margin values in
// inches are rendered in centimeters, matching what Parse would produce.
// Run-level emphasis (bold, italic, underline) has no directive form and is
// not rendered.
func Render(p *types.StylePatch) string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.FontFamily != nil {
		parts = append(parts, "font "+strconv.Quote(*p.FontFamily))
	}
	if p.FontSize != nil {
		parts = append(parts, "font size "+num(*p.FontSize)+"pt")
	}
	if p.LineSpacing != nil {
		parts = append(parts, "line spacing "+num(*p.LineSpacing))
	}
	if p.MarginValue != nil {
		v := *p.MarginValue
		if p.MarginUnit != nil && (*p.MarginUnit == types.MarginUnitInch || *p.MarginUnit == "in") {
			v = round2(v * 2.54)
		}
		parts = append(parts, "margins "+num(v)+"cm")
	}
	if p.TextColor != nil {
		parts = append(parts, "text color #"+strings.ToUpper(*p.TextColor))
	}
	if p.Alignment != nil {
		parts = append(parts, "align "+*p.Alignment)
	}
	if len(p.HeadingLevels) > 0 {
		levels := make([]string, len(p.HeadingLevels))
		for i, l := range p.HeadingLevels {
			levels[i] = strconv.Itoa(l)
		}
		parts = append(parts, "heading levels "+strings.Join(levels, ","))
	}
	return strings.Join(parts, "; ")
}
