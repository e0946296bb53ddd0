package emit

import (
	"io"

	"github.com/liyue/office-engine/internal/ooxml"
	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

// DeckEmitter renders deck structures as .pptx containers.
type DeckEmitter struct{}

// DocType returns the document type this emitter handles.
func (DeckEmitter) DocType() types.DocType { return types.DocTypePPT }

// Emit validates the structure and writes the complete presentation. A
// structure with a title gets a leading title slide; an empty structure
// still yields one blank slide so the artifact opens everywhere.
func (DeckEmitter) Emit(st *types.DocumentStructure, style types.StyleSpec, w io.Writer) error {
	if err := structure.Validate(st); err != nil {
		return err
	}

	b := ooxml.NewDeckBuilder(style, st.Title)
	if st.Title != "" || st.Deck.Subtitle != "" {
		b.AddTitleSlide(st.Title, st.Deck.Subtitle)
	}
	for _, slide := range st.Deck.Slides {
		sb := b.NewSlide(slide.Title)
		for _, shape := range slide.Shapes {
			switch shape.Kind {
			case types.ShapeTextbox:
				sb.AddTextbox(shape.Box, shape.Textbox.Lines, shape.Textbox.Bullet, shape.Textbox.Style)
			case types.ShapeImage:
				img, err := loadImage(shape.Image.Path, shape.Image.Data, 0)
				if err != nil {
					return err
				}
				sb.AddImage(shape.Box, img)
			case types.ShapeTable:
				sb.AddTable(shape.Box, shape.Table.Rows, shape.Table.HasHeaderRow())
			case types.ShapeGeometry:
				sb.AddGeometry(shape.Box, shape.Geometry.Preset, shape.Geometry.Fill, shape.Geometry.Text)
			}
		}
	}
	if b.SlideCount() == 0 {
		b.NewSlide("")
	}

	if err := b.Write(w); err != nil {
		return &IOError{Op: "write", Cause: err}
	}
	return nil
}
