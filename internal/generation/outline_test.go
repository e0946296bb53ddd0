package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

const excelOutlineJSON = `{
  "title": "Budget 2026",
  "sheet_name": "Budget",
  "headers": ["Item", "Cost"],
  "rows": [["Rent", 1200], ["Food", 300]],
  "totals_row": true,
  "chart": {"kind": "bar", "title": "Costs", "values": "B2:B3", "categories": "A2:A3"}
}`

func TestParseOutline_Word(t *testing.T) {
	raw := `{
	  "title": "Incident Report",
	  "sections": [
	    {"heading": "Summary", "level": 1, "content": "A outage occurred.\nRecovery took an hour."},
	    {"heading": "Timeline", "level": 2, "content": "All times UTC."},
	    {"heading": "Empty Section", "level": 2}
	  ]
	}`

	st, warns, err := parseOutline(types.DocTypeWord, raw)
	require.NoError(t, err)
	assert.Empty(t, warns)
	require.NoError(t, structure.Validate(st))

	assert.Equal(t, "Incident Report", st.Title)
	require.Len(t, st.Word.Blocks, 5)
	assert.Equal(t, types.BlockHeading, st.Word.Blocks[0].Kind)
	assert.Equal(t, "Summary", st.Word.Blocks[0].Heading.Text)
	assert.Equal(t, 1, st.Word.Blocks[0].Heading.Level)
	assert.Equal(t, types.BlockParagraph, st.Word.Blocks[1].Kind)
	assert.Contains(t, st.Word.Blocks[1].Paragraph.Text, "Recovery")
	assert.Equal(t, types.BlockHeading, st.Word.Blocks[4].Kind)
}

func TestParseOutline_Excel(t *testing.T) {
	st, warns, err := parseOutline(types.DocTypeExcel, excelOutlineJSON)
	require.NoError(t, err)
	assert.Empty(t, warns)
	require.NoError(t, structure.Validate(st))

	sheet := st.Sheet
	assert.Equal(t, "Budget", sheet.SheetName)
	assert.Equal(t, []string{"Item", "Cost"}, sheet.Headers)
	require.Len(t, sheet.Rows, 3)
	assert.True(t, sheet.Rows[2].Totals)
	assert.Equal(t, "Total", sheet.Rows[2].Cells[0].Text)
	require.Len(t, sheet.Charts, 1)
	assert.Equal(t, types.ChartBar, sheet.Charts[0].Kind)
}

func TestParseOutline_Ppt(t *testing.T) {
	raw := `{
	  "title": "Launch Plan",
	  "subtitle": "Q3 rollout",
	  "slides": [
	    {"title": "Goals", "points": ["Ship the beta", "Grow signups", "  "]},
	    {"title": "Risks"}
	  ]
	}`

	st, warns, err := parseOutline(types.DocTypePPT, raw)
	require.NoError(t, err)
	assert.Empty(t, warns)
	require.NoError(t, structure.Validate(st))

	deck := st.Deck
	assert.Equal(t, "Q3 rollout", deck.Subtitle)
	require.Len(t, deck.Slides, 2)
	require.Len(t, deck.Slides[0].Shapes, 1)
	box := deck.Slides[0].Shapes[0]
	assert.Equal(t, types.ShapeTextbox, box.Kind)
	assert.Equal(t, []string{"Ship the beta", "Grow signups"}, box.Textbox.Lines)
	assert.True(t, box.Textbox.Bullet)
	assert.Positive(t, box.Box.Width)
	assert.Empty(t, deck.Slides[1].Shapes)
}

func TestParseOutline_FenceAndProseWrapped(t *testing.T) {
	raw := "Here is the outline you asked for:\n```json\n" +
		`{"title": "T", "sections": [{"heading": "A", "content": "b"}]}` + "\n```"

	// The fence strip only fires on a leading fence, so this exercises the
	// balanced-JSON retry.
	st, _, err := parseOutline(types.DocTypeWord, raw)
	require.NoError(t, err)
	assert.Equal(t, "T", st.Title)
}

func TestParseOutline_SchemaRejectsMissingFields(t *testing.T) {
	_, _, err := parseOutline(types.DocTypeWord, `{"sections": []}`)
	var oerr *OutlineError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "schema", oerr.Stage)
}

func TestParseOutline_EmptyResponse(t *testing.T) {
	_, _, err := parseOutline(types.DocTypeWord, "   \n")
	var oerr *OutlineError
	require.ErrorAs(t, err, &oerr)
	assert.Equal(t, "decode", oerr.Stage)
}

func TestComposeExcel_DropsChartOutsideGrid(t *testing.T) {
	o := &excelOutline{
		Title:   "T",
		Headers: []string{"A", "B"},
		Rows:    [][]types.CellValue{{types.TextCell("x"), types.NumberCell(1)}},
		Chart:   &chartOutline{Kind: "bar", Values: "B2:B9"},
	}

	st, warns := composeExcel(o)
	assert.Empty(t, st.Sheet.Charts)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "outside the populated grid")
	require.NoError(t, structure.Validate(st))
}

func TestComposeExcel_DropsMalformedChart(t *testing.T) {
	o := &excelOutline{
		Title:   "T",
		Headers: []string{"A"},
		Rows:    [][]types.CellValue{{types.NumberCell(1)}},
		Chart:   &chartOutline{Kind: "scatter", Values: "A2:A2"},
	}

	st, warns := composeExcel(o)
	assert.Empty(t, st.Sheet.Charts)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "unsupported chart kind")
}

func TestComposeExcel_NormalizesRaggedRows(t *testing.T) {
	o := &excelOutline{
		Title:   "T",
		Headers: []string{"A", "B"},
		Rows: [][]types.CellValue{
			{types.TextCell("short")},
			{types.TextCell("long"), types.NumberCell(1), types.NumberCell(2)},
		},
	}

	st, warns := composeExcel(o)
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "2 ragged rows")
	for _, row := range st.Sheet.Rows {
		assert.Len(t, row.Cells, 2)
	}
	require.NoError(t, structure.Validate(st))
}

func TestComposeExcel_NoTotalsRowWithoutData(t *testing.T) {
	o := &excelOutline{Title: "T", Headers: []string{"A"}, TotalsRow: true}

	st, _ := composeExcel(o)
	assert.Empty(t, st.Sheet.Rows)
}

func TestComposeWord_ClampsLevels(t *testing.T) {
	o := &wordOutline{
		Title: "T",
		Sections: []wordSection{
			{Heading: "Deep", Level: 9, Content: "x"},
			{Heading: "Zero"},
		},
	}

	st := composeWord(o)
	assert.Equal(t, 6, st.Word.Blocks[0].Heading.Level)
	assert.Equal(t, 1, st.Word.Blocks[2].Heading.Level)
}
