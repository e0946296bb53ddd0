// Package structure validates and decodes the canonical document trees the
// emitters consume. Validation walks a tree in document order and stops at
// the first offence, so the reported path always points at the earliest
// problem rather than an arbitrary one.
package structure

import (
	"fmt"
	"sort"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

// Validate checks every invariant the emitters rely on and returns nil or
// the first *ValidationError in document order. Emitters call this before
// touching the filesystem; a structure that passes never fails emission for
// content reasons.
func Validate(st *types.DocumentStructure) error {
	if err := validateDocument(st); err != nil {
		return err
	}
	return nil
}

func validateDocument(st *types.DocumentStructure) *ValidationError {
	if !st.Type.Valid() {
		return errAt("type", "unknown document type %q", string(st.Type))
	}
	if err := validatePatch("style", st.Style); err != nil {
		return err
	}
	switch st.Type {
	case types.DocTypeWord:
		if st.Word == nil {
			return errAt("word", "missing content for document type %q", st.Type)
		}
		if st.Sheet != nil {
			return errAt("sheet", "does not belong in a %q document", st.Type)
		}
		if st.Deck != nil {
			return errAt("deck", "does not belong in a %q document", st.Type)
		}
		return validateWord(st.Word)
	case types.DocTypeExcel:
		if st.Sheet == nil {
			return errAt("sheet", "missing content for document type %q", st.Type)
		}
		if st.Word != nil {
			return errAt("word", "does not belong in a %q document", st.Type)
		}
		if st.Deck != nil {
			return errAt("deck", "does not belong in a %q document", st.Type)
		}
		return validateSheet(st.Sheet)
	default:
		if st.Deck == nil {
			return errAt("deck", "missing content for document type %q", st.Type)
		}
		if st.Word != nil {
			return errAt("word", "does not belong in a %q document", st.Type)
		}
		if st.Sheet != nil {
			return errAt("sheet", "does not belong in a %q document", st.Type)
		}
		return validateDeck(st.Deck)
	}
}

func validateWord(w *types.WordContent) *ValidationError {
	for i, b := range w.Blocks {
		base := fmt.Sprintf("blocks[%d]", i)
		switch b.Kind {
		case types.BlockHeading:
			if b.Heading == nil {
				return errAt(base+".heading", "kind %q is missing its facet", b.Kind)
			}
			if strings.TrimSpace(b.Heading.Text) == "" {
				return errAt(base+".heading.text", "heading text is empty")
			}
			if b.Heading.Level < 1 || b.Heading.Level > 6 {
				return errAt(base+".heading.level", "level %d out of range 1..6", b.Heading.Level)
			}
		case types.BlockParagraph:
			if b.Paragraph == nil {
				return errAt(base+".paragraph", "kind %q is missing its facet", b.Kind)
			}
			if err := validatePatch(base+".paragraph.style", b.Paragraph.Style); err != nil {
				return err
			}
		case types.BlockTable:
			if b.Table == nil {
				return errAt(base+".table", "kind %q is missing its facet", b.Kind)
			}
			if err := validateGrid(base+".table", b.Table.Rows); err != nil {
				return err
			}
			if n := len(b.Table.ColumnWidths); n > 0 {
				if cols := len(b.Table.Rows[0]); n != cols {
					return errAt(base+".table.column_widths", "got %d widths for %d columns", n, cols)
				}
				for k, w := range b.Table.ColumnWidths {
					if w <= 0 {
						return errAt(fmt.Sprintf("%s.table.column_widths[%d]", base, k), "width must be positive")
					}
				}
			}
		case types.BlockImage:
			if b.Image == nil {
				return errAt(base+".image", "kind %q is missing its facet", b.Kind)
			}
			if b.Image.Path == "" && len(b.Image.Data) == 0 {
				return errAt(base+".image", "needs a path or inline data")
			}
			if b.Image.WidthCm < 0 {
				return errAt(base+".image.width_cm", "width must not be negative")
			}
		default:
			return errAt(base+".kind", "unknown block kind %q", b.Kind)
		}
	}
	return nil
}

func validateSheet(s *types.SheetContent) *ValidationError {
	if strings.ContainsAny(s.SheetName, `[]:*?/\`) {
		return errAt("sheet_name", "contains a character not allowed in sheet names")
	}
	if len(s.Headers) == 0 {
		return errAt("headers", "sheet has no header row")
	}
	cols := len(s.Headers)
	for i, row := range s.Rows {
		if len(row.Cells) != cols {
			return errAt(fmt.Sprintf("rows[%d]", i), "row has %d cells, want %d", len(row.Cells), cols)
		}
	}

	// The populated grid: header row plus data rows.
	gridRows := len(s.Rows) + 1

	for _, ref := range sortedKeys(s.Formulas) {
		path := fmt.Sprintf("formulas[%s]", ref)
		cell, err := types.ParseCellRef(ref)
		if err != nil {
			return errAt(path, "invalid cell reference %q", ref)
		}
		if strings.TrimSpace(s.Formulas[ref]) == "" {
			return errAt(path, "empty formula")
		}
		if cell.Row > gridRows || cell.Col > cols {
			return errAt(path, "cell %s is outside the %d x %d grid", ref, gridRows, cols)
		}
	}

	for i, c := range s.Charts {
		base := fmt.Sprintf("charts[%d]", i)
		switch c.Kind {
		case types.ChartBar, types.ChartLine, types.ChartPie:
		default:
			return errAt(base+".kind", "unknown chart kind %q", c.Kind)
		}
		if c.Values == (types.RangeRef{}) {
			return errAt(base+".values", "missing values range")
		}
		if !c.Values.Within(gridRows, cols) {
			return errAt(base+".values", "range %s exceeds the %d x %d sheet grid", c.Values, gridRows, cols)
		}
		if c.Categories != nil && !c.Categories.Within(gridRows, cols) {
			return errAt(base+".categories", "range %s exceeds the %d x %d sheet grid", c.Categories, gridRows, cols)
		}
		if c.Anchor != "" {
			if _, err := types.ParseCellRef(c.Anchor); err != nil {
				return errAt(base+".anchor", "invalid cell reference %q", c.Anchor)
			}
		}
	}

	for _, col := range sortedKeys(s.ColumnWidths) {
		path := fmt.Sprintf("column_widths[%s]", col)
		if _, err := types.ColumnNumber(col); err != nil {
			return errAt(path, "invalid column name %q", col)
		}
		if s.ColumnWidths[col] <= 0 {
			return errAt(path, "width must be positive")
		}
	}
	return nil
}

func validateDeck(d *types.DeckContent) *ValidationError {
	for i, slide := range d.Slides {
		base := fmt.Sprintf("slides[%d]", i)
		switch slide.Layout {
		case "", types.LayoutTitle, types.LayoutTitleContent, types.LayoutBlank:
		default:
			return errAt(base+".layout", "unknown layout %q", slide.Layout)
		}
		for j, shape := range slide.Shapes {
			sbase := fmt.Sprintf("%s.shapes[%d]", base, j)
			if shape.Box.Width <= 0 {
				return errAt(sbase+".box.width", "width must be positive")
			}
			if shape.Box.Height <= 0 {
				return errAt(sbase+".box.height", "height must be positive")
			}
			switch shape.Kind {
			case types.ShapeTextbox:
				if shape.Textbox == nil {
					return errAt(sbase+".textbox", "kind %q is missing its facet", shape.Kind)
				}
				if err := validatePatch(sbase+".textbox.style", shape.Textbox.Style); err != nil {
					return err
				}
			case types.ShapeImage:
				if shape.Image == nil {
					return errAt(sbase+".image", "kind %q is missing its facet", shape.Kind)
				}
				if shape.Image.Path == "" && len(shape.Image.Data) == 0 {
					return errAt(sbase+".image", "needs a path or inline data")
				}
			case types.ShapeTable:
				if shape.Table == nil {
					return errAt(sbase+".table", "kind %q is missing its facet", shape.Kind)
				}
				if err := validateGrid(sbase+".table", shape.Table.Rows); err != nil {
					return err
				}
			case types.ShapeGeometry:
				if shape.Geometry == nil {
					return errAt(sbase+".geometry", "kind %q is missing its facet", shape.Kind)
				}
				switch shape.Geometry.Preset {
				case types.PresetRectangle, types.PresetOval, types.PresetRoundedRectangle, types.PresetTriangle:
				default:
					return errAt(sbase+".geometry.preset", "unknown preset %q", shape.Geometry.Preset)
				}
				if shape.Geometry.Fill != "" && !isHexColor(shape.Geometry.Fill) {
					return errAt(sbase+".geometry.fill", "%q is not a hex color", shape.Geometry.Fill)
				}
			default:
				return errAt(sbase+".kind", "unknown shape kind %q", shape.Kind)
			}
		}
	}
	return nil
}

// validateGrid requires a non-empty rectangular string grid.
func validateGrid(base string, rows [][]string) *ValidationError {
	if len(rows) == 0 {
		return errAt(base+".rows", "table has no rows")
	}
	cols := len(rows[0])
	if cols == 0 {
		return errAt(base+".rows[0]", "row has no cells")
	}
	for i, row := range rows {
		if len(row) != cols {
			return errAt(fmt.Sprintf("%s.rows[%d]", base, i), "row has %d cells, want %d", len(row), cols)
		}
	}
	return nil
}

func validatePatch(base string, p *types.StylePatch) *ValidationError {
	if p == nil {
		return nil
	}
	if p.FontSize != nil && (*p.FontSize <= 0 || *p.FontSize > 400) {
		return errAt(base+".font_size", "font size %g is out of range", *p.FontSize)
	}
	if p.LineSpacing != nil && (*p.LineSpacing <= 0 || *p.LineSpacing > 10) {
		return errAt(base+".line_spacing", "line spacing %g is out of range", *p.LineSpacing)
	}
	if p.MarginValue != nil && *p.MarginValue < 0 {
		return errAt(base+".margin_value", "margin must not be negative")
	}
	if p.MarginUnit != nil {
		switch *p.MarginUnit {
		case types.MarginUnitCm, types.MarginUnitInch, "in":
		default:
			return errAt(base+".margin_unit", "unknown unit %q", *p.MarginUnit)
		}
	}
	if p.TextColor != nil && !isHexColor(*p.TextColor) {
		return errAt(base+".text_color", "%q is not a hex color", *p.TextColor)
	}
	if p.Alignment != nil {
		switch *p.Alignment {
		case types.AlignLeft, types.AlignCenter, types.AlignRight, types.AlignJustify:
		default:
			return errAt(base+".alignment", "unknown alignment %q", *p.Alignment)
		}
	}
	for _, l := range p.HeadingLevels {
		if l < 1 || l > 6 {
			return errAt(base+".heading_levels", "level %d out of range 1..6", l)
		}
	}
	return nil
}

func isHexColor(s string) bool {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return true
}

// sortedKeys keeps map walks deterministic so the same structure always
// reports the same first offence.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
