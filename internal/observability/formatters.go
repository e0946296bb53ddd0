// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintStyleDirectives outputs the style cues recognized in the request text.
func (p *Printer) PrintStyleDirectives(patch *types.StylePatch) {
	if patch == nil {
		return
	}
	if patch.IsZero() {
		p.printBox("PARSED STYLE DIRECTIVES", "(none; document defaults apply)")
		return
	}

	var sb strings.Builder

	if patch.FontFamily != nil {
		sb.WriteString(fmt.Sprintf("Font:          %s\n", *patch.FontFamily))
	}
	if patch.FontSize != nil {
		sb.WriteString(fmt.Sprintf("Size:          %gpt\n", *patch.FontSize))
	}
	if patch.LineSpacing != nil {
		sb.WriteString(fmt.Sprintf("Line spacing:  %g\n", *patch.LineSpacing))
	}
	if patch.MarginValue != nil {
		unit := types.MarginUnitCm
		if patch.MarginUnit != nil {
			unit = *patch.MarginUnit
		}
		sb.WriteString(fmt.Sprintf("Margins:       %g %s\n", *patch.MarginValue, unit))
	}
	if patch.TextColor != nil {
		sb.WriteString(fmt.Sprintf("Text color:    #%s\n", *patch.TextColor))
	}
	if patch.Alignment != nil {
		sb.WriteString(fmt.Sprintf("Alignment:     %s\n", *patch.Alignment))
	}
	if len(patch.HeadingLevels) > 0 {
		levels := make([]string, len(patch.HeadingLevels))
		for i, l := range patch.HeadingLevels {
			levels[i] = strconv.Itoa(l)
		}
		sb.WriteString(fmt.Sprintf("Headings:      H%s\n", strings.Join(levels, ", H")))
	}

	p.printBox("PARSED STYLE DIRECTIVES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintStructure outputs a condensed outline of the document structure.
func (p *Printer) PrintStructure(s *types.DocumentStructure) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Type:   %s\n", s.Type))
	if s.Title != "" {
		sb.WriteString(fmt.Sprintf("Title:  %s\n", truncate(s.Title, 45)))
	}
	sb.WriteString("\n")

	switch {
	case s.Word != nil:
		writeWordOutline(&sb, s.Word)
	case s.Sheet != nil:
		writeSheetOutline(&sb, s.Sheet)
	case s.Deck != nil:
		writeDeckOutline(&sb, s.Deck)
	}

	p.printBox("DOCUMENT STRUCTURE", strings.TrimSuffix(sb.String(), "\n"))
}

func writeWordOutline(sb *strings.Builder, content *types.WordContent) {
	sb.WriteString(fmt.Sprintf("Blocks: %d\n\n", len(content.Blocks)))

	count := min(len(content.Blocks), maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("• %s\n", blockSummary(content.Blocks[i])))
	}
	if len(content.Blocks) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more blocks\n", len(content.Blocks)-maxItemsToShow))
	}
}

func blockSummary(b types.WordBlock) string {
	switch b.Kind {
	case types.BlockHeading:
		if b.Heading != nil {
			return fmt.Sprintf("H%d %s", b.Heading.Level, truncate(b.Heading.Text, 40))
		}
	case types.BlockParagraph:
		if b.Paragraph != nil {
			return fmt.Sprintf("paragraph: %s", truncate(b.Paragraph.Text, 35))
		}
	case types.BlockTable:
		if b.Table != nil && len(b.Table.Rows) > 0 {
			return fmt.Sprintf("table: %d×%d", len(b.Table.Rows), len(b.Table.Rows[0]))
		}
	case types.BlockImage:
		if b.Image != nil && b.Image.Path != "" {
			return fmt.Sprintf("image: %s", truncate(b.Image.Path, 38))
		}
		return "image: (inline data)"
	}
	return b.Kind
}

func writeSheetOutline(sb *strings.Builder, content *types.SheetContent) {
	if content.SheetName != "" {
		sb.WriteString(fmt.Sprintf("Sheet:    %s\n", content.SheetName))
	}
	sb.WriteString(fmt.Sprintf("Grid:     %d columns × %d rows\n", len(content.Headers), len(content.Rows)))
	sb.WriteString(fmt.Sprintf("Headers:  %s\n", truncate(strings.Join(content.Headers, ", "), 40)))

	totals := 0
	for _, row := range content.Rows {
		if row.Totals {
			totals++
		}
	}
	if totals > 0 {
		sb.WriteString(fmt.Sprintf("Totals:   %d row(s)\n", totals))
	}
	if len(content.Formulas) > 0 {
		sb.WriteString(fmt.Sprintf("Formulas: %d\n", len(content.Formulas)))
	}
	for _, chart := range content.Charts {
		sb.WriteString(fmt.Sprintf("Chart:    %s over %s\n", chart.Kind, chart.Values))
	}
}

func writeDeckOutline(sb *strings.Builder, content *types.DeckContent) {
	sb.WriteString(fmt.Sprintf("Slides: %d\n\n", len(content.Slides)))

	count := min(len(content.Slides), maxItemsToShow)
	for i := 0; i < count; i++ {
		slide := content.Slides[i]
		title := slide.Title
		if title == "" {
			title = "(untitled)"
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, truncate(title, 45)))
		if len(slide.Shapes) > 0 {
			sb.WriteString(fmt.Sprintf("    Shapes: %s\n", shapeSummary(slide.Shapes)))
		}
	}
	if len(content.Slides) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more slides", len(content.Slides)-maxItemsToShow))
	}
}

func shapeSummary(shapes []types.Shape) string {
	counts := map[string]int{}
	var order []string
	for _, s := range shapes {
		if counts[s.Kind] == 0 {
			order = append(order, s.Kind)
		}
		counts[s.Kind]++
	}

	parts := make([]string, 0, len(order))
	for _, kind := range order {
		if counts[kind] > 1 {
			parts = append(parts, fmt.Sprintf("%s ×%d", kind, counts[kind]))
		} else {
			parts = append(parts, kind)
		}
	}
	return fmt.Sprintf("%d (%s)", len(shapes), strings.Join(parts, ", "))
}

// PrintResult outputs the final artifact summary with any warnings raised
// along the way.
func (p *Printer) PrintResult(res *types.GenerationResult) {
	if res == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("File:     %s\n", res.Filename))
	sb.WriteString(fmt.Sprintf("Type:     %s\n", res.DocType))
	if res.Message != "" {
		sb.WriteString(fmt.Sprintf("Message:  %s\n", truncate(res.Message, 44)))
	}

	if len(res.Warnings) > 0 {
		sb.WriteString("\n")
		for _, w := range res.Warnings {
			sb.WriteString(fmt.Sprintf("⚠ %s\n", truncate(w, 50)))
		}
	}

	p.printBox("GENERATED ARTIFACT", strings.TrimSuffix(sb.String(), "\n"))
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
