package emit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

func sheetStructure(sheet *types.SheetContent) *types.DocumentStructure {
	return &types.DocumentStructure{Type: types.DocTypeExcel, Title: "Budget", Sheet: sheet}
}

func emitWorkbook(t *testing.T, st *types.DocumentStructure) (*excelize.File, []byte) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, SheetEmitter{}.Emit(st, types.DefaultStyle(), &buf))
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f, buf.Bytes()
}

func TestSheetEmitter_ValidatesBeforeWriting(t *testing.T) {
	st := sheetStructure(&types.SheetContent{Headers: nil})

	var buf bytes.Buffer
	err := SheetEmitter{}.Emit(st, types.DefaultStyle(), &buf)

	var verr *structure.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "headers", verr.Path)
	assert.Zero(t, buf.Len())
}

func TestSheetEmitter_CellValuesRoundTrip(t *testing.T) {
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName: "Costs",
		Headers:   []string{"Item", "Cost"},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.TextCell("Widgets"), types.NumberCell(10.5)}},
			{Cells: []types.CellValue{types.TextCell("Gears"), types.NumberCell(20)}},
		},
	}))

	assert.Equal(t, []string{"Costs"}, f.GetSheetList())
	a1, err := f.GetCellValue("Costs", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Item", a1)
	b2, err := f.GetCellValue("Costs", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10.5", b2)
	a3, err := f.GetCellValue("Costs", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Gears", a3)
}

func TestSheetEmitter_TotalsRowComputesLiteralSums(t *testing.T) {
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName: "Costs",
		Headers:   []string{"Item", "Cost"},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.TextCell("Widgets"), types.NumberCell(10)}},
			{Cells: []types.CellValue{types.TextCell("Gears"), types.NumberCell(20)}},
			{Cells: []types.CellValue{types.TextCell("Total"), {}}, Totals: true},
		},
	}))

	total, err := f.GetCellValue("Costs", "B4")
	require.NoError(t, err)
	assert.Equal(t, "30", total)
	// The sum is a literal value, not a generated formula.
	formula, err := f.GetCellFormula("Costs", "B4")
	require.NoError(t, err)
	assert.Empty(t, formula)
	label, err := f.GetCellValue("Costs", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Total", label)
}

func TestSheetEmitter_TotalsSkipTextColumns(t *testing.T) {
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName: "Scores",
		Headers:   []string{"Name", "Score"},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.TextCell("ann"), types.NumberCell(1)}},
			{Cells: []types.CellValue{types.TextCell("bob"), types.NumberCell(2)}},
			{Cells: []types.CellValue{{}, {}}, Totals: true},
		},
	}))

	name, err := f.GetCellValue("Scores", "A4")
	require.NoError(t, err)
	assert.Empty(t, name)
	score, err := f.GetCellValue("Scores", "B4")
	require.NoError(t, err)
	assert.Equal(t, "3", score)
}

func TestSheetEmitter_TotalsWindowResetsAfterEachTotalsRow(t *testing.T) {
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName: "Sub",
		Headers:   []string{"Val"},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.NumberCell(10)}},
			{Cells: []types.CellValue{{}}, Totals: true},
			{Cells: []types.CellValue{types.NumberCell(5)}},
			{Cells: []types.CellValue{{}}, Totals: true},
		},
	}))

	first, err := f.GetCellValue("Sub", "A3")
	require.NoError(t, err)
	assert.Equal(t, "10", first)
	second, err := f.GetCellValue("Sub", "A5")
	require.NoError(t, err)
	assert.Equal(t, "5", second)
}

func TestSheetEmitter_ExplicitFormulaWinsOverTotals(t *testing.T) {
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName: "Costs",
		Headers:   []string{"Item", "Cost"},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.TextCell("Widgets"), types.NumberCell(10)}},
			{Cells: []types.CellValue{types.TextCell("Total"), {}}, Totals: true},
		},
		Formulas: map[string]string{"B3": "=SUM(B2:B2)*2"},
	}))

	formula, err := f.GetCellFormula("Costs", "B3")
	require.NoError(t, err)
	assert.Equal(t, "SUM(B2:B2)*2", formula)
}

func TestSheetEmitter_ColumnWidths(t *testing.T) {
	long := strings.Repeat("x", 80)
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName:    "W",
		Headers:      []string{"A column", "Long", "Short"},
		ColumnWidths: map[string]float64{"A": 25},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.TextCell("v"), types.TextCell(long), types.TextCell("s")}},
		},
	}))

	explicit, err := f.GetColWidth("W", "A")
	require.NoError(t, err)
	assert.InDelta(t, 25, explicit, 0.01)
	clamped, err := f.GetColWidth("W", "B")
	require.NoError(t, err)
	assert.InDelta(t, 50, clamped, 0.01)
	floor, err := f.GetColWidth("W", "C")
	require.NoError(t, err)
	assert.InDelta(t, 10, floor, 0.01)
}

func TestSheetEmitter_ChartPart(t *testing.T) {
	values, err := types.ParseRangeRef("B2:B3")
	require.NoError(t, err)
	categories, err := types.ParseRangeRef("A2:A3")
	require.NoError(t, err)

	_, raw := emitWorkbook(t, sheetStructure(&types.SheetContent{
		SheetName: "Chart",
		Headers:   []string{"Item", "Cost"},
		Rows: []types.SheetRow{
			{Cells: []types.CellValue{types.TextCell("a"), types.NumberCell(1)}},
			{Cells: []types.CellValue{types.TextCell("b"), types.NumberCell(2)}},
		},
		Charts: []types.ChartSpec{{
			Kind:       types.ChartBar,
			Title:      "Spend",
			Categories: &categories,
			Values:     values,
		}},
	}))

	require.True(t, zipHasPart(t, raw, "xl/charts/chart1.xml"))
	chart := zipPart(t, raw, "xl/charts/chart1.xml")
	assert.Contains(t, chart, "barChart")
	assert.Contains(t, chart, "$B$2:$B$3")
}

func TestSheetEmitter_SheetNameFallsBackToTitle(t *testing.T) {
	f, _ := emitWorkbook(t, sheetStructure(&types.SheetContent{Headers: []string{"a"}}))
	assert.Equal(t, []string{"Budget"}, f.GetSheetList())
}

func TestSheetName_TrimAndCap(t *testing.T) {
	assert.Equal(t, "Costs", sheetName("  Costs  ", ""))
	assert.Equal(t, "Sheet1", sheetName("", ""))
	assert.Equal(t, "Budget 2026", sheetName("", "Budget /2026"))
	assert.Len(t, []rune(sheetName(strings.Repeat("长", 40), "")), 31)
}
