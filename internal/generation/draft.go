package generation

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	gtext "github.com/yuin/goldmark/text"

	"github.com/liyue/office-engine/internal/types"
)

// Draft builds a best-effort structure from free text when no usable
// outline was produced. The text is read as GFM Markdown; plain prose
// degrades to paragraphs, a single-column grid, or one slide of points.
func Draft(dt types.DocType, text, title string) *types.DocumentStructure {
	source := []byte(text)
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(gtext.NewReader(source))

	switch dt {
	case types.DocTypeExcel:
		return draftSheet(doc, source, title)
	case types.DocTypePPT:
		return draftDeck(doc, source, title)
	default:
		return draftWord(doc, source, title)
	}
}

func draftWord(doc ast.Node, source []byte, title string) *types.DocumentStructure {
	var blocks []types.WordBlock
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			txt := nodeText(n, source)
			if txt == "" {
				continue
			}
			if title == "" && n.Level == 1 && len(blocks) == 0 {
				title = txt
				continue
			}
			level := n.Level
			if level > 6 {
				level = 6
			}
			blocks = append(blocks, types.WordBlock{
				Kind:    types.BlockHeading,
				Heading: &types.HeadingBlock{Text: txt, Level: level},
			})
		case *ast.Paragraph:
			if txt := nodeText(n, source); txt != "" {
				blocks = append(blocks, paragraphBlock(txt))
			}
		case *ast.List:
			blocks = append(blocks, listParagraphs(n, source)...)
		case *extast.Table:
			if rows := tableRows(n, source); len(rows) > 0 {
				blocks = append(blocks, types.WordBlock{
					Kind:  types.BlockTable,
					Table: &types.TableBlock{Rows: rows},
				})
			}
		case *ast.FencedCodeBlock:
			if txt := linesText(n, source); txt != "" {
				blocks = append(blocks, paragraphBlock(txt))
			}
		case *ast.CodeBlock:
			if txt := linesText(n, source); txt != "" {
				blocks = append(blocks, paragraphBlock(txt))
			}
		case *ast.Blockquote:
			if txt := nodeText(n, source); txt != "" {
				blocks = append(blocks, paragraphBlock(txt))
			}
		}
	}
	return &types.DocumentStructure{
		Type:  types.DocTypeWord,
		Title: title,
		Word:  &types.WordContent{Blocks: blocks},
	}
}

func draftSheet(doc ast.Node, source []byte, title string) *types.DocumentStructure {
	var tbl ast.Node
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if _, ok := n.(*extast.Table); ok {
				tbl = n
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	if title == "" {
		title = firstHeading(doc, source)
	}

	var rows [][]string
	if tbl != nil {
		rows = tableRows(tbl, source)
	}
	sheet := &types.SheetContent{}
	if len(rows) > 0 {
		sheet.Headers = rows[0]
		for _, row := range rows[1:] {
			cells := make([]types.CellValue, len(row))
			for i, s := range row {
				cells[i] = cellValue(s)
			}
			sheet.Rows = append(sheet.Rows, types.SheetRow{Cells: cells})
		}
	} else {
		sheet.Headers = []string{"Content"}
		for _, line := range collectLines(doc, source) {
			sheet.Rows = append(sheet.Rows, types.SheetRow{Cells: []types.CellValue{types.TextCell(line)}})
		}
	}

	return &types.DocumentStructure{
		Type:  types.DocTypeExcel,
		Title: title,
		Sheet: sheet,
	}
}

func draftDeck(doc ast.Node, source []byte, title string) *types.DocumentStructure {
	var slides []types.Slide
	curTitle := ""
	var points []string

	flush := func() {
		if curTitle == "" && len(points) == 0 {
			return
		}
		for _, chunk := range chunkStrings(points, 8) {
			slide := types.Slide{Layout: types.LayoutTitleContent, Title: curTitle}
			if len(chunk) > 0 {
				slide.Shapes = []types.Shape{{
					Kind:    types.ShapeTextbox,
					Box:     slideBodyBox,
					Textbox: &types.TextboxShape{Lines: chunk, Bullet: true},
				}}
			}
			slides = append(slides, slide)
		}
		if len(points) == 0 {
			slides = append(slides, types.Slide{Layout: types.LayoutTitleContent, Title: curTitle})
		}
		curTitle = ""
		points = nil
	}

	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Heading:
			txt := nodeText(n, source)
			if txt == "" {
				continue
			}
			if title == "" && n.Level == 1 && len(slides) == 0 && curTitle == "" && len(points) == 0 {
				title = txt
				continue
			}
			flush()
			curTitle = txt
		case *ast.Paragraph:
			if txt := nodeText(n, source); txt != "" {
				points = append(points, txt)
			}
		case *ast.List:
			idx := 1
			for item := n.FirstChild(); item != nil; item = item.NextSibling() {
				txt := nodeText(item, source)
				if txt == "" {
					continue
				}
				if n.IsOrdered() {
					txt = strconv.Itoa(idx) + ". " + txt
					idx++
				}
				points = append(points, txt)
			}
		case *extast.Table:
			for _, row := range tableRows(n, source) {
				points = append(points, strings.Join(row, " | "))
			}
		}
	}
	flush()

	return &types.DocumentStructure{
		Type:  types.DocTypePPT,
		Title: title,
		Deck:  &types.DeckContent{Slides: slides},
	}
}

func paragraphBlock(text string) types.WordBlock {
	return types.WordBlock{
		Kind:      types.BlockParagraph,
		Paragraph: &types.ParagraphBlock{Text: text},
	}
}

func listParagraphs(list *ast.List, source []byte) []types.WordBlock {
	var out []types.WordBlock
	idx := 1
	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		txt := nodeText(item, source)
		if txt == "" {
			continue
		}
		prefix := "• "
		if list.IsOrdered() {
			prefix = strconv.Itoa(idx) + ". "
			idx++
		}
		out = append(out, paragraphBlock(prefix+txt))
	}
	return out
}

// tableRows flattens a GFM table node. The header row comes first; the
// parser keeps rows rectangular.
func tableRows(tbl ast.Node, source []byte) [][]string {
	var rows [][]string
	for sec := tbl.FirstChild(); sec != nil; sec = sec.NextSibling() {
		switch sec.(type) {
		case *extast.TableHeader, *extast.TableRow:
			var row []string
			for cell := sec.FirstChild(); cell != nil; cell = cell.NextSibling() {
				row = append(row, nodeText(cell, source))
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func firstHeading(doc ast.Node, source []byte) string {
	title := ""
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if h, ok := n.(*ast.Heading); ok {
				title = nodeText(h, source)
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return title
}

// collectLines gathers paragraph and list item text in document order,
// skipping headings.
func collectLines(doc ast.Node, source []byte) []string {
	var lines []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Heading:
			return ast.WalkSkipChildren, nil
		case *ast.ListItem, *ast.Paragraph:
			if s := nodeText(n, source); s != "" {
				lines = append(lines, s)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return lines
}

func cellValue(s string) types.CellValue {
	if v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
		return types.NumberCell(v)
	}
	return types.TextCell(s)
}

func chunkStrings(items []string, size int) [][]string {
	var out [][]string
	for len(items) > size {
		out = append(out, items[:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

func nodeText(n ast.Node, source []byte) string {
	return strings.TrimSpace(string(n.Text(source)))
}

func linesText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(source))
	}
	return strings.TrimSpace(sb.String())
}
