package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStyle_Values(t *testing.T) {
	s := DefaultStyle()

	assert.Equal(t, "Arial", s.FontFamily)
	assert.Equal(t, 12.0, s.FontSize)
	assert.Equal(t, 1.5, s.LineSpacing)
	assert.Equal(t, 2.54, s.MarginValue)
	assert.Equal(t, MarginUnitCm, s.MarginUnit)
	assert.Equal(t, "000000", s.TextColor)
	assert.Equal(t, AlignLeft, s.Alignment)
	assert.Equal(t, []int{1, 2, 3}, s.HeadingLevels)
}

func TestStyleSpec_Apply_OverlaysOnlySetFields(t *testing.T) {
	family := "Calibri"
	size := 14.0
	patch := &StylePatch{FontFamily: &family, FontSize: &size}

	s := DefaultStyle().Apply(patch)

	assert.Equal(t, "Calibri", s.FontFamily)
	assert.Equal(t, 14.0, s.FontSize)
	assert.Equal(t, 1.5, s.LineSpacing)
	assert.Equal(t, 2.54, s.MarginValue)
}

func TestStyleSpec_Apply_NilPatch(t *testing.T) {
	s := DefaultStyle().Apply(nil)
	assert.Equal(t, DefaultStyle(), s)
}

func TestStyleSpec_Apply_ConvertsInchMarginsToCm(t *testing.T) {
	value := 1.0
	unit := MarginUnitInch
	s := DefaultStyle().Apply(&StylePatch{MarginValue: &value, MarginUnit: &unit})

	assert.InDelta(t, 2.54, s.MarginValue, 0.001)
	assert.Equal(t, MarginUnitCm, s.MarginUnit)
}

func TestStyleSpec_Apply_DoesNotShareHeadingLevels(t *testing.T) {
	patch := &StylePatch{HeadingLevels: []int{1, 2}}
	s := DefaultStyle().Apply(patch)

	patch.HeadingLevels[0] = 9
	assert.Equal(t, []int{1, 2}, s.HeadingLevels)
}

func TestStylePatch_IsZero(t *testing.T) {
	assert.True(t, (*StylePatch)(nil).IsZero())
	assert.True(t, (&StylePatch{}).IsZero())

	color := "FF0000"
	assert.False(t, (&StylePatch{TextColor: &color}).IsZero())
}

func TestClampHeading(t *testing.T) {
	tests := []struct {
		name   string
		level  int
		levels []int
		want   int
	}{
		{"within configured levels", 2, []int{1, 2, 3}, 2},
		{"deeper than configured clamps to deepest", 5, []int{1, 2, 3}, 3},
		{"gap clamps down", 3, []int{1, 2, 4}, 2},
		{"below all configured uses shallowest", 1, []int{2, 3}, 2},
		{"no configuration passes through", 4, nil, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampHeading(tt.level, tt.levels))
		})
	}
}

func TestParseDocType_Aliases(t *testing.T) {
	for alias, want := range map[string]DocType{
		"word":         DocTypeWord,
		"docx":         DocTypeWord,
		"excel":        DocTypeExcel,
		"spreadsheet":  DocTypeExcel,
		"ppt":          DocTypePPT,
		"presentation": DocTypePPT,
	} {
		got, err := ParseDocType(alias)
		require.NoError(t, err, alias)
		assert.Equal(t, want, got, alias)
	}

	_, err := ParseDocType("pdf")
	assert.Error(t, err)
}

func TestDocType_Extension(t *testing.T) {
	assert.Equal(t, ".docx", DocTypeWord.Extension())
	assert.Equal(t, ".xlsx", DocTypeExcel.Extension())
	assert.Equal(t, ".pptx", DocTypePPT.Extension())
}
