package generation

import (
	"fmt"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

// slideBodyBox is the fixed body placement for composed slides, in
// centimeters on the 33.87 x 19.05 cm canvas. The deck builder's title bar
// occupies the top 2.6 cm.
var slideBodyBox = types.Box{Left: 1.5, Top: 3.2, Width: 30.8, Height: 14.5}

func composeWord(o *wordOutline) *types.DocumentStructure {
	blocks := make([]types.WordBlock, 0, len(o.Sections)*2)
	for _, sec := range o.Sections {
		level := sec.Level
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		blocks = append(blocks, types.WordBlock{
			Kind:    types.BlockHeading,
			Heading: &types.HeadingBlock{Text: sec.Heading, Level: level},
		})
		if content := strings.TrimSpace(sec.Content); content != "" {
			blocks = append(blocks, types.WordBlock{
				Kind:      types.BlockParagraph,
				Paragraph: &types.ParagraphBlock{Text: content},
			})
		}
	}
	return &types.DocumentStructure{
		Type:  types.DocTypeWord,
		Title: o.Title,
		Word:  &types.WordContent{Blocks: blocks},
	}
}

func composeExcel(o *excelOutline) (*types.DocumentStructure, []string) {
	var warns []string
	cols := len(o.Headers)

	ragged := 0
	rows := make([]types.SheetRow, 0, len(o.Rows)+1)
	for _, cells := range o.Rows {
		fitted, adjusted := fitCells(cells, cols)
		if adjusted {
			ragged++
		}
		rows = append(rows, types.SheetRow{Cells: fitted})
	}
	if ragged > 0 {
		warns = append(warns, fmt.Sprintf("normalized %d ragged rows to the header width", ragged))
	}

	if o.TotalsRow && len(rows) > 0 && cols > 0 {
		cells := make([]types.CellValue, cols)
		cells[0] = types.TextCell("Total")
		rows = append(rows, types.SheetRow{Cells: cells, Totals: true})
	}

	sheet := &types.SheetContent{
		SheetName: o.SheetName,
		Headers:   o.Headers,
		Rows:      rows,
		Formulas:  o.Formulas,
	}

	if o.Chart != nil {
		spec, err := chartSpec(o.Chart)
		switch {
		case err != nil:
			warns = append(warns, fmt.Sprintf("dropped chart: %v", err))
		case !withinGrid(spec, len(rows)+1, cols):
			warns = append(warns, fmt.Sprintf("dropped chart: range %s is outside the populated grid", spec.Values))
		default:
			sheet.Charts = []types.ChartSpec{spec}
		}
	}

	return &types.DocumentStructure{
		Type:  types.DocTypeExcel,
		Title: o.Title,
		Sheet: sheet,
	}, warns
}

func composeDeck(o *pptOutline) *types.DocumentStructure {
	slides := make([]types.Slide, 0, len(o.Slides))
	for _, s := range o.Slides {
		slide := types.Slide{Layout: types.LayoutTitleContent, Title: s.Title}
		points := nonEmptyLines(s.Points)
		if len(points) > 0 {
			slide.Shapes = []types.Shape{{
				Kind:    types.ShapeTextbox,
				Box:     slideBodyBox,
				Textbox: &types.TextboxShape{Lines: points, Bullet: true},
			}}
		}
		slides = append(slides, slide)
	}
	return &types.DocumentStructure{
		Type:  types.DocTypePPT,
		Title: o.Title,
		Deck:  &types.DeckContent{Subtitle: o.Subtitle, Slides: slides},
	}
}

func chartSpec(c *chartOutline) (types.ChartSpec, error) {
	kind := strings.ToLower(strings.TrimSpace(c.Kind))
	switch kind {
	case types.ChartBar, types.ChartLine, types.ChartPie:
	default:
		return types.ChartSpec{}, fmt.Errorf("unsupported chart kind %q", c.Kind)
	}

	values, err := types.ParseRangeRef(c.Values)
	if err != nil {
		return types.ChartSpec{}, fmt.Errorf("invalid values range %q", c.Values)
	}
	spec := types.ChartSpec{Kind: kind, Title: c.Title, Values: values}

	if strings.TrimSpace(c.Categories) != "" {
		cats, err := types.ParseRangeRef(c.Categories)
		if err != nil {
			return types.ChartSpec{}, fmt.Errorf("invalid categories range %q", c.Categories)
		}
		spec.Categories = &cats
	}
	return spec, nil
}

func withinGrid(spec types.ChartSpec, rows, cols int) bool {
	if !spec.Values.Within(rows, cols) {
		return false
	}
	return spec.Categories == nil || spec.Categories.Within(rows, cols)
}

// fitCells pads or truncates a row to the header width. The second return
// reports whether anything changed.
func fitCells(cells []types.CellValue, cols int) ([]types.CellValue, bool) {
	if len(cells) == cols {
		return cells, false
	}
	fitted := make([]types.CellValue, cols)
	copy(fitted, cells)
	return fitted, true
}

func nonEmptyLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
