package emit

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/liyue/office-engine/internal/ooxml"
	"github.com/liyue/office-engine/internal/types"
)

// Emitter renders one document type. Emit validates the structure before
// producing any output, so a failed call never leaves partial bytes behind
// when the writer is a fresh temp file. Given equal inputs the output is
// byte-identical across runs.
type Emitter interface {
	DocType() types.DocType
	Emit(st *types.DocumentStructure, style types.StyleSpec, w io.Writer) error
}

// For returns the emitter for a document type.
func For(dt types.DocType) (Emitter, error) {
	switch dt {
	case types.DocTypeWord:
		return WordEmitter{}, nil
	case types.DocTypeExcel:
		return SheetEmitter{}, nil
	case types.DocTypePPT:
		return DeckEmitter{}, nil
	}
	return nil, fmt.Errorf("no emitter for document type %q", dt)
}

// loadImage reads and sizes a picture from inline data or a file path. A
// positive widthCm rescales the image to that width, keeping aspect ratio;
// zero keeps the native pixel size.
func loadImage(path string, data []byte, widthCm float64) (ooxml.Image, error) {
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return ooxml.Image{}, &IOError{Op: "read image", Path: path, Cause: err}
		}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ooxml.Image{}, &IOError{Op: "decode image", Path: path, Cause: err}
	}
	w := ooxml.PxToEMU(cfg.Width)
	h := ooxml.PxToEMU(cfg.Height)
	if widthCm > 0 && w > 0 {
		target := ooxml.CmToEMU(widthCm)
		h = h * target / w
		w = target
	}
	return ooxml.Image{Data: data, Format: format, Width: w, Height: h}, nil
}
