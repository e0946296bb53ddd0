package emit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

// SheetEmitter renders sheet structures as .xlsx workbooks.
type SheetEmitter struct{}

// DocType returns the document type this emitter handles.
func (SheetEmitter) DocType() types.DocType { return types.DocTypeExcel }

var chartKinds = map[string]excelize.ChartType{
	types.ChartBar:  excelize.Col,
	types.ChartLine: excelize.Line,
	types.ChartPie:  excelize.Pie,
}

// Emit validates the structure and writes the complete workbook. Totals
// rows get literal computed sums in empty numeric columns; an explicit
// formula for the same cell wins.
func (SheetEmitter) Emit(st *types.DocumentStructure, style types.StyleSpec, w io.Writer) error {
	if err := structure.Validate(st); err != nil {
		return err
	}
	sheet := st.Sheet
	cols := len(sheet.Headers)

	f := excelize.NewFile()
	defer f.Close()

	name := sheetName(sheet.SheetName, st.Title)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return assembleErr(name, err)
	}
	if err := f.SetDefaultFont(style.FontFamily); err != nil {
		return assembleErr(name, err)
	}

	for c, header := range sheet.Headers {
		ref := types.CellRef{Col: c + 1, Row: 1}.String()
		if err := f.SetCellValue(name, ref, header); err != nil {
			return assembleErr(name, err)
		}
	}

	var totalsRows []int
	windowStart := 0
	for i, row := range sheet.Rows {
		r := i + 2
		if !row.Totals {
			for c, cell := range row.Cells {
				if err := setCell(f, name, types.CellRef{Col: c + 1, Row: r}, cell); err != nil {
					return assembleErr(name, err)
				}
			}
			continue
		}

		totalsRows = append(totalsRows, r)
		for c := 0; c < cols; c++ {
			ref := types.CellRef{Col: c + 1, Row: r}
			if _, ok := sheet.Formulas[ref.String()]; ok {
				continue
			}
			if cell := row.Cells[c]; !cell.IsEmpty() {
				if err := setCell(f, name, ref, cell); err != nil {
					return assembleErr(name, err)
				}
				continue
			}
			sum, n := 0.0, 0
			for j := windowStart; j < i; j++ {
				if v := sheet.Rows[j].Cells[c]; v.IsNumber() {
					sum += *v.Number
					n++
				}
			}
			if n > 0 {
				if err := f.SetCellValue(name, ref.String(), sum); err != nil {
					return assembleErr(name, err)
				}
			}
		}
		windowStart = i + 1
	}

	for _, ref := range sortedRefs(sheet.Formulas) {
		formula := strings.TrimPrefix(strings.TrimSpace(sheet.Formulas[ref]), "=")
		if err := f.SetCellFormula(name, ref, formula); err != nil {
			return assembleErr(name, err)
		}
	}

	if err := applyStyles(f, name, sheet, style, totalsRows); err != nil {
		return err
	}

	for c := 1; c <= cols; c++ {
		letter := types.ColumnName(c)
		width, ok := sheet.ColumnWidths[letter]
		if !ok {
			width = autoWidth(sheet, c)
		}
		if err := f.SetColWidth(name, letter, letter, width); err != nil {
			return assembleErr(name, err)
		}
	}

	for _, c := range sheet.Charts {
		if err := addChart(f, name, sheet, c); err != nil {
			return assembleErr(name, err)
		}
	}

	if len(sheet.Rows) > 0 {
		err := f.SetPanes(name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
		if err != nil {
			return assembleErr(name, err)
		}
	}

	inches := style.MarginValue / 2.54
	err := f.SetPageMargins(name, &excelize.PageLayoutMarginsOptions{
		Left: &inches, Right: &inches, Top: &inches, Bottom: &inches,
	})
	if err != nil {
		return assembleErr(name, err)
	}

	if err := f.Write(w); err != nil {
		return &IOError{Op: "write", Cause: err}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, ref types.CellRef, cell types.CellValue) error {
	if cell.IsEmpty() {
		return nil
	}
	if cell.IsNumber() {
		return f.SetCellValue(sheet, ref.String(), *cell.Number)
	}
	return f.SetCellValue(sheet, ref.String(), cell.Text)
}

func applyStyles(f *excelize.File, name string, sheet *types.SheetContent, style types.StyleSpec, totalsRows []int) error {
	cols := len(sheet.Headers)
	color := strings.ToUpper(strings.TrimPrefix(style.TextColor, "#"))

	var borders []excelize.Border
	if sheet.HasBorders() {
		for _, side := range []string{"left", "top", "right", "bottom"} {
			borders = append(borders, excelize.Border{Type: side, Color: "999999", Style: 1})
		}
	}

	headerID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: style.FontSize, Family: style.FontFamily, Color: color},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders,
	})
	if err != nil {
		return assembleErr(name, err)
	}
	if err := f.SetCellStyle(name, "A1", types.CellRef{Col: cols, Row: 1}.String(), headerID); err != nil {
		return assembleErr(name, err)
	}
	if len(sheet.Rows) == 0 {
		return nil
	}

	dataStyle := excelize.Style{
		Font:   &excelize.Font{Size: style.FontSize, Family: style.FontFamily, Color: color},
		Border: borders,
	}
	if style.Alignment != types.AlignLeft {
		dataStyle.Alignment = &excelize.Alignment{Horizontal: style.Alignment}
	}
	dataID, err := f.NewStyle(&dataStyle)
	if err != nil {
		return assembleErr(name, err)
	}
	lastData := types.CellRef{Col: cols, Row: len(sheet.Rows) + 1}.String()
	if err := f.SetCellStyle(name, "A2", lastData, dataID); err != nil {
		return assembleErr(name, err)
	}

	totalsStyle := dataStyle
	totalsStyle.Font = &excelize.Font{Bold: true, Size: style.FontSize, Family: style.FontFamily, Color: color}
	totalsID, err := f.NewStyle(&totalsStyle)
	if err != nil {
		return assembleErr(name, err)
	}
	for _, r := range totalsRows {
		from := types.CellRef{Col: 1, Row: r}.String()
		to := types.CellRef{Col: cols, Row: r}.String()
		if err := f.SetCellStyle(name, from, to, totalsID); err != nil {
			return assembleErr(name, err)
		}
	}
	return nil
}

func addChart(f *excelize.File, name string, sheet *types.SheetContent, spec types.ChartSpec) error {
	series := excelize.ChartSeries{
		Name:   fmt.Sprintf("'%s'!$%s$1", name, types.ColumnName(spec.Values.From.Col)),
		Values: absRange(name, spec.Values),
	}
	if spec.Categories != nil {
		series.Categories = absRange(name, *spec.Categories)
	}
	chart := &excelize.Chart{
		Type:   chartKinds[spec.Kind],
		Series: []excelize.ChartSeries{series},
		Legend: excelize.ChartLegend{Position: "bottom"},
	}
	if spec.Title != "" {
		chart.Title = []excelize.RichTextRun{{Text: spec.Title}}
	}
	return f.AddChart(name, chartAnchor(spec, len(sheet.Headers)), chart)
}

// chartAnchor places unanchored charts one column past the data, at column
// E at the nearest.
func chartAnchor(spec types.ChartSpec, cols int) string {
	if spec.Anchor != "" {
		return spec.Anchor
	}
	col := cols + 2
	if col < 5 {
		col = 5
	}
	return types.CellRef{Col: col, Row: 2}.String()
}

func absRange(sheet string, r types.RangeRef) string {
	return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet,
		types.ColumnName(r.From.Col), r.From.Row,
		types.ColumnName(r.To.Col), r.To.Row)
}

// sheetName picks the worksheet tab name: the explicit name, else one
// derived from the document title, else the default. Names are trimmed and
// capped at the 31-character worksheet limit.
func sheetName(explicit, title string) string {
	name := strings.TrimSpace(explicit)
	if name == "" {
		var b strings.Builder
		for _, r := range title {
			if !strings.ContainsRune(`[]:*?/\`, r) {
				b.WriteRune(r)
			}
		}
		name = strings.TrimSpace(b.String())
	}
	if name == "" {
		return "Sheet1"
	}
	if runes := []rune(name); len(runes) > 31 {
		name = strings.TrimSpace(string(runes[:31]))
	}
	return name
}

// autoWidth sizes a column to its longest value plus padding, clamped to a
// readable band.
func autoWidth(sheet *types.SheetContent, col int) float64 {
	longest := len([]rune(sheet.Headers[col-1]))
	for _, row := range sheet.Rows {
		if n := len([]rune(row.Cells[col-1].String())); n > longest {
			longest = n
		}
	}
	w := float64(longest + 2)
	if w < 10 {
		return 10
	}
	if w > 50 {
		return 50
	}
	return w
}

func sortedRefs(m map[string]string) []string {
	refs := make([]string, 0, len(m))
	for ref := range m {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

func assembleErr(sheet string, err error) *IOError {
	return &IOError{Op: "assemble", Path: sheet, Cause: err}
}
