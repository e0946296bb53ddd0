// Package generation orchestrates the pipeline from request text to a
// published office artifact: document type detection, style parsing, AI
// outline generation with schema gating, structure composition, validation,
// emission, and publishing.
package generation

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/types"
)

//go:embed *.schema.json
var schemaFiles embed.FS

// Outline forms are the constrained JSON shapes the model is prompted for.
// They are deliberately flatter than DocumentStructure; compose.go maps
// them onto the full structure with deterministic layout geometry.

type wordOutline struct {
	Title    string        `json:"title"`
	Sections []wordSection `json:"sections"`
}

type wordSection struct {
	Heading string `json:"heading"`
	Level   int    `json:"level,omitempty"`
	Content string `json:"content,omitempty"`
}

type excelOutline struct {
	Title     string              `json:"title"`
	SheetName string              `json:"sheet_name,omitempty"`
	Headers   []string            `json:"headers"`
	Rows      [][]types.CellValue `json:"rows"`
	TotalsRow bool                `json:"totals_row,omitempty"`
	Formulas  map[string]string   `json:"formulas,omitempty"`
	Chart     *chartOutline       `json:"chart,omitempty"`
}

type chartOutline struct {
	Kind       string `json:"kind"`
	Title      string `json:"title,omitempty"`
	Values     string `json:"values"`
	Categories string `json:"categories,omitempty"`
}

type pptOutline struct {
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	Slides   []pptSlide `json:"slides"`
}

type pptSlide struct {
	Title  string   `json:"title"`
	Points []string `json:"points,omitempty"`
}

func schemaFor(dt types.DocType) string {
	switch dt {
	case types.DocTypeWord:
		return "outline_word.schema.json"
	case types.DocTypeExcel:
		return "outline_excel.schema.json"
	case types.DocTypePPT:
		return "outline_ppt.schema.json"
	}
	return ""
}

// gateOutline checks raw JSON against the document type's outline schema.
func gateOutline(dt types.DocType, raw string) error {
	name := schemaFor(dt)
	if name == "" {
		return &OutlineError{Stage: "schema", Message: fmt.Sprintf("no outline schema for document type %q", dt)}
	}
	schema, err := schemaFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read outline schema %s: %w", name, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(string(schema)),
		gojsonschema.NewStringLoader(raw),
	)
	if err != nil {
		return &OutlineError{Stage: "schema", Message: "outline is not valid JSON", Cause: err}
	}
	if !result.Valid() {
		var sb strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				sb.WriteString("; ")
			}
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			fmt.Fprintf(&sb, "%s: %s", field, desc.Description())
		}
		return &OutlineError{Stage: "schema", Message: sb.String()}
	}
	return nil
}

// parseOutline turns a raw model response into a validated structure. The
// response is fence-stripped, schema-gated (with one retry on the first
// balanced JSON value when the full text is prose-wrapped), decoded into
// the outline form, and composed. Warnings report salvageable defects such
// as a dropped malformed chart.
func parseOutline(dt types.DocType, raw string) (*types.DocumentStructure, []string, error) {
	raw = strings.TrimSpace(llm.CleanJSONBlock(raw))
	if raw == "" {
		return nil, nil, &OutlineError{Stage: "decode", Message: "empty model response"}
	}

	if err := gateOutline(dt, raw); err != nil {
		extracted, ok := llm.ExtractJSON(raw)
		if !ok || extracted == raw {
			return nil, nil, err
		}
		if err := gateOutline(dt, extracted); err != nil {
			return nil, nil, err
		}
		raw = extracted
	}

	switch dt {
	case types.DocTypeWord:
		var o wordOutline
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, nil, &OutlineError{Stage: "decode", Message: "failed to decode word outline", Cause: err}
		}
		return composeWord(&o), nil, nil
	case types.DocTypeExcel:
		var o excelOutline
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, nil, &OutlineError{Stage: "decode", Message: "failed to decode excel outline", Cause: err}
		}
		st, warns := composeExcel(&o)
		return st, warns, nil
	case types.DocTypePPT:
		var o pptOutline
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, nil, &OutlineError{Stage: "decode", Message: "failed to decode ppt outline", Cause: err}
		}
		return composeDeck(&o), nil, nil
	}
	return nil, nil, &OutlineError{Stage: "decode", Message: fmt.Sprintf("unknown document type %q", dt)}
}
