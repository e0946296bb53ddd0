package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DocumentStructure is the canonical content tree consumed by the emitters.
// It is a tagged union: Type selects which of the three content variants is
// populated, the other two are nil. Structures are built per request and
// never mutated after validation.
type DocumentStructure struct {
	Type  DocType     `json:"type"`
	Title string      `json:"title,omitempty"`
	Style *StylePatch `json:"style,omitempty"`

	Word  *WordContent  `json:"word,omitempty"`
	Sheet *SheetContent `json:"sheet,omitempty"`
	Deck  *DeckContent  `json:"deck,omitempty"`
}

// WordContent is the word-processing variant: an ordered block sequence.
type WordContent struct {
	Blocks []WordBlock `json:"blocks"`
}

// Word block kinds.
const (
	BlockHeading   = "heading"
	BlockParagraph = "paragraph"
	BlockTable     = "table"
	BlockImage     = "image"
)

// WordBlock is one element of a word document body. Kind selects the facet.
type WordBlock struct {
	Kind      string          `json:"kind"`
	Heading   *HeadingBlock   `json:"heading,omitempty"`
	Paragraph *ParagraphBlock `json:"paragraph,omitempty"`
	Table     *TableBlock     `json:"table,omitempty"`
	Image     *ImageBlock     `json:"image,omitempty"`
}

// HeadingBlock renders text at a heading level between 1 and 6.
type HeadingBlock struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ParagraphBlock renders body text, optionally overriding the document
// style for its runs only.
type ParagraphBlock struct {
	Text  string      `json:"text"`
	Style *StylePatch `json:"style,omitempty"`
}

// TableBlock renders a rectangular grid. The first row is treated as a
// header unless HeaderRow is explicitly false.
type TableBlock struct {
	Rows         [][]string `json:"rows"`
	HeaderRow    *bool      `json:"header_row,omitempty"`
	Borders      *bool      `json:"borders,omitempty"`
	ColumnWidths []float64  `json:"column_widths,omitempty"` // cm
}

// HasHeaderRow reports whether the first row should be styled as a header.
func (t *TableBlock) HasHeaderRow() bool {
	return t.HeaderRow == nil || *t.HeaderRow
}

// HasBorders reports whether cell borders are drawn.
func (t *TableBlock) HasBorders() bool {
	return t.Borders == nil || *t.Borders
}

// ImageBlock embeds an image from a local path or inline bytes. WidthCm 0
// keeps the image's native size.
type ImageBlock struct {
	Path    string  `json:"path,omitempty"`
	Data    []byte  `json:"data,omitempty"`
	WidthCm float64 `json:"width_cm,omitempty"`
	Caption string  `json:"caption,omitempty"`
}

// SheetContent is the spreadsheet variant: a header row plus data rows,
// with optional formulas, charts, and layout hints.
type SheetContent struct {
	SheetName    string             `json:"sheet_name,omitempty"`
	Headers      []string           `json:"headers"`
	Rows         []SheetRow         `json:"rows,omitempty"`
	Formulas     map[string]string  `json:"formulas,omitempty"` // A1 ref -> formula
	Charts       []ChartSpec        `json:"charts,omitempty"`
	ColumnWidths map[string]float64 `json:"column_widths,omitempty"` // column letter -> width
	Borders      *bool              `json:"borders,omitempty"`
}

// HasBorders reports whether the populated range gets thin borders.
func (s *SheetContent) HasBorders() bool {
	return s.Borders == nil || *s.Borders
}

// SheetRow is one data row. A row tagged Totals asks the emitter to fill
// its empty numeric columns with computed sums over the rows above.
type SheetRow struct {
	Cells  []CellValue `json:"cells"`
	Totals bool        `json:"totals,omitempty"`
}

// UnmarshalJSON accepts both the bare-array form ["a", 1, 2] and the object
// form {"cells": [...], "totals": true}.
func (r *SheetRow) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		r.Totals = false
		return json.Unmarshal(b, &r.Cells)
	}
	type plain SheetRow
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = SheetRow(p)
	return nil
}

// MarshalJSON emits the compact array form for plain rows and the object
// form for totals rows.
func (r SheetRow) MarshalJSON() ([]byte, error) {
	if !r.Totals {
		return json.Marshal(r.Cells)
	}
	type plain SheetRow
	return json.Marshal(plain(r))
}

// CellValue holds either a number or text. JSON numbers decode as numbers;
// everything else is kept as text.
type CellValue struct {
	Number *float64
	Text   string
}

// NumberCell builds a numeric cell value.
func NumberCell(v float64) CellValue {
	return CellValue{Number: &v}
}

// TextCell builds a text cell value.
func TextCell(s string) CellValue {
	return CellValue{Text: s}
}

// IsNumber reports whether the cell holds a numeric value.
func (c CellValue) IsNumber() bool { return c.Number != nil }

// IsEmpty reports whether the cell holds neither a number nor text.
func (c CellValue) IsEmpty() bool { return c.Number == nil && c.Text == "" }

// String renders the cell for display.
func (c CellValue) String() string {
	if c.Number != nil {
		return strconv.FormatFloat(*c.Number, 'f', -1, 64)
	}
	return c.Text
}

// UnmarshalJSON maps JSON numbers to Number, strings and booleans to Text,
// and null to an empty cell.
func (c *CellValue) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty cell value")
	}
	switch trimmed[0] {
	case 'n': // null
		*c = CellValue{}
		return nil
	case 't', 'f':
		var v bool
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		*c = CellValue{Text: strconv.FormatBool(v)}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*c = CellValue{Text: s}
		return nil
	}
	var v float64
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return fmt.Errorf("cell value must be a string, number, boolean or null: %w", err)
	}
	*c = CellValue{Number: &v}
	return nil
}

// MarshalJSON writes numbers as JSON numbers and everything else as strings.
func (c CellValue) MarshalJSON() ([]byte, error) {
	if c.Number != nil {
		return json.Marshal(*c.Number)
	}
	return json.Marshal(c.Text)
}

// Chart kinds supported by the sheet emitter.
const (
	ChartBar  = "bar"
	ChartLine = "line"
	ChartPie  = "pie"
)

// ChartSpec describes one chart anchored on the sheet. Ranges are A1-style
// and must lie within the populated grid (header plus data rows).
type ChartSpec struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title,omitempty"`
	Categories *RangeRef `json:"categories,omitempty"`
	Values     RangeRef  `json:"values"`
	Anchor     string    `json:"anchor,omitempty"` // cell ref, default E2
}

// DeckContent is the slide-deck variant. The deck title and Subtitle render
// as a leading title slide when the structure's Title is non-empty.
type DeckContent struct {
	Subtitle string  `json:"subtitle,omitempty"`
	Slides   []Slide `json:"slides"`
}

// Slide layouts.
const (
	LayoutTitle        = "title"
	LayoutTitleContent = "title-content"
	LayoutBlank        = "blank"
)

// Slide is one slide: an optional title bar plus freely positioned shapes.
type Slide struct {
	Layout string  `json:"layout,omitempty"`
	Title  string  `json:"title,omitempty"`
	Shapes []Shape `json:"shapes,omitempty"`
}

// Shape kinds.
const (
	ShapeTextbox  = "textbox"
	ShapeImage    = "image"
	ShapeTable    = "table"
	ShapeGeometry = "geometry"
)

// Geometry presets.
const (
	PresetRectangle        = "rectangle"
	PresetOval             = "oval"
	PresetRoundedRectangle = "rounded-rectangle"
	PresetTriangle         = "triangle"
)

// Box is a shape's position and size on the slide, in centimeters from the
// top-left corner. Placement outside the slide is allowed; target
// applications clip.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Shape is one slide element. Kind selects the facet.
type Shape struct {
	Kind     string         `json:"kind"`
	Box      Box            `json:"box"`
	Textbox  *TextboxShape  `json:"textbox,omitempty"`
	Image    *ImageShape    `json:"image,omitempty"`
	Table    *TableShape    `json:"table,omitempty"`
	Geometry *GeometryShape `json:"geometry,omitempty"`
}

// TextboxShape renders lines of text, optionally bulleted.
type TextboxShape struct {
	Lines  []string    `json:"lines"`
	Bullet bool        `json:"bullet,omitempty"`
	Style  *StylePatch `json:"style,omitempty"`
}

// ImageShape embeds an image stretched to the shape's box.
type ImageShape struct {
	Path string `json:"path,omitempty"`
	Data []byte `json:"data,omitempty"`
}

// TableShape renders a grid inside the shape's box.
type TableShape struct {
	Rows      [][]string `json:"rows"`
	HeaderRow *bool      `json:"header_row,omitempty"`
}

// HasHeaderRow reports whether the first row should be styled as a header.
func (t *TableShape) HasHeaderRow() bool {
	return t.HeaderRow == nil || *t.HeaderRow
}

// GeometryShape renders a preset auto shape with a solid fill and optional
// centered text.
type GeometryShape struct {
	Preset string `json:"preset"`
	Fill   string `json:"fill,omitempty"` // hex RRGGBB
	Text   string `json:"text,omitempty"`
}
