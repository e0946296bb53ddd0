package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

const draftMarkdown = `# Project Atlas

Atlas replaces the legacy importer.

## Goals

- Cut sync time in half
- Remove manual mapping

| Stage | Weeks |
|-------|-------|
| Build | 6     |
| Pilot | 3     |
`

func TestDraft_WordFromMarkdown(t *testing.T) {
	st := Draft(types.DocTypeWord, draftMarkdown, "")
	require.NoError(t, structure.Validate(st))

	assert.Equal(t, "Project Atlas", st.Title)
	blocks := st.Word.Blocks
	require.Len(t, blocks, 5)

	assert.Equal(t, types.BlockParagraph, blocks[0].Kind)
	assert.Equal(t, "Atlas replaces the legacy importer.", blocks[0].Paragraph.Text)

	assert.Equal(t, types.BlockHeading, blocks[1].Kind)
	assert.Equal(t, "Goals", blocks[1].Heading.Text)
	assert.Equal(t, 2, blocks[1].Heading.Level)

	assert.Equal(t, "• Cut sync time in half", blocks[2].Paragraph.Text)
	assert.Equal(t, "• Remove manual mapping", blocks[3].Paragraph.Text)

	require.Equal(t, types.BlockTable, blocks[4].Kind)
	assert.Equal(t, [][]string{{"Stage", "Weeks"}, {"Build", "6"}, {"Pilot", "3"}}, blocks[4].Table.Rows)
}

func TestDraft_WordKeepsExplicitTitle(t *testing.T) {
	st := Draft(types.DocTypeWord, "# Inner Title\n\nBody.", "Outer Title")

	assert.Equal(t, "Outer Title", st.Title)
	require.Len(t, st.Word.Blocks, 2)
	assert.Equal(t, "Inner Title", st.Word.Blocks[0].Heading.Text)
}

func TestDraft_WordPlainProse(t *testing.T) {
	st := Draft(types.DocTypeWord, "Just a sentence.\n\nAnother one.", "")
	require.NoError(t, structure.Validate(st))

	require.Len(t, st.Word.Blocks, 2)
	assert.Equal(t, types.BlockParagraph, st.Word.Blocks[0].Kind)
}

func TestDraft_SheetFromFirstTable(t *testing.T) {
	st := Draft(types.DocTypeExcel, draftMarkdown, "")
	require.NoError(t, structure.Validate(st))

	assert.Equal(t, "Project Atlas", st.Title)
	sheet := st.Sheet
	assert.Equal(t, []string{"Stage", "Weeks"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Build", sheet.Rows[0].Cells[0].Text)
	require.True(t, sheet.Rows[0].Cells[1].IsNumber())
	assert.InDelta(t, 6, *sheet.Rows[0].Cells[1].Number, 0.001)
}

func TestDraft_SheetWithoutTableUsesLines(t *testing.T) {
	st := Draft(types.DocTypeExcel, "Milk\n\nEggs\n\nBread", "Groceries")
	require.NoError(t, structure.Validate(st))

	assert.Equal(t, []string{"Content"}, st.Sheet.Headers)
	require.Len(t, st.Sheet.Rows, 3)
	assert.Equal(t, "Milk", st.Sheet.Rows[0].Cells[0].Text)
}

func TestDraft_DeckFromHeadings(t *testing.T) {
	st := Draft(types.DocTypePPT, draftMarkdown, "")
	require.NoError(t, structure.Validate(st))

	assert.Equal(t, "Project Atlas", st.Title)
	slides := st.Deck.Slides
	require.Len(t, slides, 2)

	assert.Equal(t, "", slides[0].Title)
	require.Len(t, slides[0].Shapes, 1)
	assert.Equal(t, []string{"Atlas replaces the legacy importer."}, slides[0].Shapes[0].Textbox.Lines)

	assert.Equal(t, "Goals", slides[1].Title)
	lines := slides[1].Shapes[0].Textbox.Lines
	assert.Contains(t, lines, "Cut sync time in half")
	assert.Contains(t, lines, "Build | 6")
}

func TestDraft_DeckChunksLongPointLists(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("## Backlog\n\n")
	for i := 0; i < 11; i++ {
		sb.WriteString("- item\n")
	}

	st := Draft(types.DocTypePPT, sb.String(), "T")
	slides := st.Deck.Slides
	require.Len(t, slides, 2)
	assert.Len(t, slides[0].Shapes[0].Textbox.Lines, 8)
	assert.Len(t, slides[1].Shapes[0].Textbox.Lines, 3)
	assert.Equal(t, "Backlog", slides[0].Title)
	assert.Equal(t, "Backlog", slides[1].Title)
}

func TestDraft_EmptyTextStillValid(t *testing.T) {
	for _, dt := range []types.DocType{types.DocTypeWord, types.DocTypeExcel, types.DocTypePPT} {
		st := Draft(dt, "", "T")
		assert.NoError(t, structure.Validate(st), "type %s", dt)
	}
}
