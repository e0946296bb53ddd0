package emit

import (
	"io"

	"github.com/liyue/office-engine/internal/ooxml"
	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

// WordEmitter renders word structures as .docx containers.
type WordEmitter struct{}

// DocType returns the document type this emitter handles.
func (WordEmitter) DocType() types.DocType { return types.DocTypeWord }

// Emit validates the structure and writes the complete document. Heading
// levels are mapped onto the style's configured levels before rendering.
func (WordEmitter) Emit(st *types.DocumentStructure, style types.StyleSpec, w io.Writer) error {
	if err := structure.Validate(st); err != nil {
		return err
	}

	b := ooxml.NewDocBuilder(style, st.Title)
	for _, block := range st.Word.Blocks {
		switch block.Kind {
		case types.BlockHeading:
			level := types.ClampHeading(block.Heading.Level, style.HeadingLevels)
			b.AddHeading(block.Heading.Text, level)
		case types.BlockParagraph:
			b.AddParagraph(block.Paragraph.Text, block.Paragraph.Style)
		case types.BlockTable:
			t := block.Table
			b.AddTable(t.Rows, t.HasHeaderRow(), t.HasBorders(), t.ColumnWidths)
		case types.BlockImage:
			img, err := loadImage(block.Image.Path, block.Image.Data, block.Image.WidthCm)
			if err != nil {
				return err
			}
			b.AddImage(img, block.Image.Caption)
		}
	}

	if err := b.Write(w); err != nil {
		return &IOError{Op: "write", Cause: err}
	}
	return nil
}
