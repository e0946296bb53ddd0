package ooxml

import (
	"fmt"
	"io"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

// Relationship types shared across the two dialects.
const (
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	relTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	relTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relTypeStyles         = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"
)

// A4 page geometry in twips.
const (
	pageWidthTwips  = 11906
	pageHeightTwips = 16838
)

// Image is a decoded, ready-to-embed picture. Width and Height are in EMU.
type Image struct {
	Data   []byte
	Format string // png, jpeg, gif
	Width  int64
	Height int64
}

// DocBuilder assembles one WordprocessingML document. Blocks are appended
// in order; Write produces the complete container.
type DocBuilder struct {
	style    types.StyleSpec
	body     strings.Builder
	media    []mediaFile
	docRels  []relationship
	title    string
	drawings int
}

// NewDocBuilder starts a document whose defaults come from style. A
// non-empty title renders as a leading title paragraph.
func NewDocBuilder(style types.StyleSpec, title string) *DocBuilder {
	b := &DocBuilder{style: style, title: title}
	b.docRels = append(b.docRels, relationship{ID: "rId1", Type: relTypeStyles, Target: "styles.xml"})
	if title != "" {
		fmt.Fprintf(&b.body, `<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, esc(title))
	}
	return b
}

// AddHeading appends a heading paragraph. The level must already be mapped
// onto the style's configured heading levels.
func (b *DocBuilder) AddHeading(text string, level int) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	fmt.Fprintf(&b.body,
		`<w:p><w:pPr><w:pStyle w:val="Heading%d"/></w:pPr><w:r>%s</w:r></w:p>`,
		level, runText(text))
}

// AddParagraph appends body text. A non-nil override restyles this
// paragraph's runs without touching document defaults. Newlines become
// soft line breaks.
func (b *DocBuilder) AddParagraph(text string, override *types.StylePatch) {
	align := b.style.Alignment
	var pPr strings.Builder
	var rPr string
	if override != nil {
		if override.Alignment != nil {
			align = *override.Alignment
		}
		if override.LineSpacing != nil {
			fmt.Fprintf(&pPr, `<w:spacing w:line="%d" w:lineRule="auto"/>`, SpacingLine(*override.LineSpacing))
		}
		rPr = b.overrideRunProps(override)
	}
	fmt.Fprintf(&pPr, `<w:jc w:val="%s"/>`, jcValue(align))
	fmt.Fprintf(&b.body, `<w:p><w:pPr>%s</w:pPr><w:r>%s%s</w:r></w:p>`,
		pPr.String(), rPr, runText(text))
}

// AddTable appends a rectangular grid. Column widths are centimeters; when
// absent, the usable page width is split evenly.
func (b *DocBuilder) AddTable(rows [][]string, headerRow, borders bool, colWidthsCm []float64) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	cols := len(rows[0])
	widths := make([]int, cols)
	usable := pageWidthTwips - 2*CmToTwips(b.style.MarginValue)
	for i := range widths {
		if i < len(colWidthsCm) && colWidthsCm[i] > 0 {
			widths[i] = CmToTwips(colWidthsCm[i])
		} else {
			widths[i] = usable / cols
		}
	}

	b.body.WriteString(`<w:tbl><w:tblPr><w:tblW w:w="0" w:type="auto"/>`)
	if borders {
		b.body.WriteString(`<w:tblBorders>` +
			`<w:top w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:left w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:bottom w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:right w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:insideH w:val="single" w:sz="4" w:color="auto"/>` +
			`<w:insideV w:val="single" w:sz="4" w:color="auto"/>` +
			`</w:tblBorders>`)
	}
	b.body.WriteString(`</w:tblPr><w:tblGrid>`)
	for _, w := range widths {
		fmt.Fprintf(&b.body, `<w:gridCol w:w="%d"/>`, w)
	}
	b.body.WriteString(`</w:tblGrid>`)

	for ri, row := range rows {
		header := headerRow && ri == 0
		b.body.WriteString(`<w:tr>`)
		for ci := 0; ci < cols; ci++ {
			cell := ""
			if ci < len(row) {
				cell = row[ci]
			}
			fmt.Fprintf(&b.body, `<w:tc><w:tcPr><w:tcW w:w="%d" w:type="dxa"/>`, widths[ci])
			if header {
				b.body.WriteString(`<w:shd w:val="clear" w:color="auto" w:fill="D9D9D9"/>`)
			}
			b.body.WriteString(`</w:tcPr><w:p>`)
			if header {
				fmt.Fprintf(&b.body, `<w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:b/></w:rPr>%s</w:r>`, runText(cell))
			} else {
				fmt.Fprintf(&b.body, `<w:r>%s</w:r>`, runText(cell))
			}
			b.body.WriteString(`</w:p></w:tc>`)
		}
		b.body.WriteString(`</w:tr>`)
	}
	b.body.WriteString(`</w:tbl><w:p/>`)
}

// AddImage appends an inline picture centered on its own paragraph, with an
// optional caption line below it.
func (b *DocBuilder) AddImage(img Image, caption string) {
	b.drawings++
	name := fmt.Sprintf("image%d.%s", len(b.media)+1, img.Format)
	b.media = append(b.media, mediaFile{Name: name, Data: img.Data})
	relID := fmt.Sprintf("rId%d", len(b.docRels)+1)
	b.docRels = append(b.docRels, relationship{ID: relID, Type: relTypeImage, Target: "media/" + name})

	fmt.Fprintf(&b.body,
		`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:drawing>`+
			`<wp:inline distT="0" distB="0" distL="0" distR="0">`+
			`<wp:extent cx="%d" cy="%d"/>`+
			`<wp:docPr id="%d" name="Picture %d"/>`+
			`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/picture">`+
			`<pic:pic>`+
			`<pic:nvPicPr><pic:cNvPr id="%d" name="Picture %d"/><pic:cNvPicPr/></pic:nvPicPr>`+
			`<pic:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></pic:blipFill>`+
			`<pic:spPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></pic:spPr>`+
			`</pic:pic></a:graphicData></a:graphic></wp:inline></w:drawing></w:r></w:p>`,
		img.Width, img.Height, b.drawings, b.drawings, b.drawings, b.drawings,
		relID, img.Width, img.Height)

	if caption != "" {
		fmt.Fprintf(&b.body,
			`<w:p><w:pPr><w:jc w:val="center"/></w:pPr><w:r><w:rPr><w:i/><w:sz w:val="%d"/></w:rPr>%s</w:r></w:p>`,
			HalfPoints(b.style.FontSize-2), runText(caption))
	}
}

// Write assembles the container parts and writes the archive.
func (b *DocBuilder) Write(w io.Writer) error {
	margin := CmToTwips(b.style.MarginValue)
	var doc strings.Builder
	doc.WriteString(xmlHeader)
	doc.WriteString(`<w:document` +
		` xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"` +
		` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
		` xmlns:wp="http://schemas.openxmlformats.org/drawingml/2006/wordprocessingDrawing"` +
		` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
		` xmlns:pic="http://schemas.openxmlformats.org/drawingml/2006/picture">`)
	doc.WriteString(`<w:body>`)
	doc.WriteString(b.body.String())
	fmt.Fprintf(&doc,
		`<w:sectPr><w:pgSz w:w="%d" w:h="%d"/>`+
			`<w:pgMar w:top="%d" w:right="%d" w:bottom="%d" w:left="%d" w:header="720" w:footer="720" w:gutter="0"/>`+
			`</w:sectPr>`,
		pageWidthTwips, pageHeightTwips, margin, margin, margin, margin)
	doc.WriteString(`</w:body></w:document>`)

	parts := []Part{
		{Name: "[Content_Types].xml", Data: b.contentTypes()},
		{Name: "_rels/.rels", Data: relsXML([]relationship{
			{ID: "rId1", Type: relTypeOfficeDocument, Target: "word/document.xml"},
			{ID: "rId2", Type: relTypeCoreProps, Target: "docProps/core.xml"},
		})},
		{Name: "docProps/core.xml", Data: corePropsXML(b.title)},
		{Name: "word/document.xml", Data: []byte(doc.String())},
		{Name: "word/styles.xml", Data: b.stylesXML()},
		{Name: "word/_rels/document.xml.rels", Data: relsXML(b.docRels)},
	}
	for _, m := range b.media {
		parts = append(parts, Part{Name: "word/media/" + m.Name, Data: m.Data})
	}
	return WriteArchive(w, parts)
}

func (b *DocBuilder) contentTypes() []byte {
	var s strings.Builder
	s.WriteString(xmlHeader)
	s.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>`)
	s.WriteString(mediaDefaults(b.media))
	s.WriteString(`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
		`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
		`</Types>`)
	return []byte(s.String())
}

// stylesXML renders document defaults plus the Title and Heading1..6
// paragraph styles derived from the base font size.
func (b *DocBuilder) stylesXML() []byte {
	ascii, east := fontPair(b.style.FontFamily)
	base := b.style.FontSize
	color := normalizeHex(b.style.TextColor)

	var s strings.Builder
	s.WriteString(xmlHeader)
	s.WriteString(`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`)
	fmt.Fprintf(&s,
		`<w:docDefaults><w:rPrDefault><w:rPr>`+
			`<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s" w:cs="%s"/>`+
			`<w:sz w:val="%d"/><w:szCs w:val="%d"/><w:color w:val="%s"/>`+
			`</w:rPr></w:rPrDefault>`+
			`<w:pPrDefault><w:pPr><w:spacing w:line="%d" w:lineRule="auto" w:after="240"/></w:pPr></w:pPrDefault>`+
			`</w:docDefaults>`,
		esc(ascii), esc(ascii), esc(east), esc(ascii),
		HalfPoints(base), HalfPoints(base), color,
		SpacingLine(b.style.LineSpacing))
	s.WriteString(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>`)
	fmt.Fprintf(&s,
		`<w:style w:type="paragraph" w:styleId="Title"><w:name w:val="Title"/><w:basedOn w:val="Normal"/>`+
			`<w:pPr><w:spacing w:after="360"/><w:jc w:val="center"/></w:pPr>`+
			`<w:rPr><w:b/><w:sz w:val="%d"/><w:szCs w:val="%d"/></w:rPr></w:style>`,
		HalfPoints(base+16), HalfPoints(base+16))

	bumps := []float64{10, 6, 4, 2, 1, 0}
	for i, bump := range bumps {
		level := i + 1
		fmt.Fprintf(&s,
			`<w:style w:type="paragraph" w:styleId="Heading%d"><w:name w:val="heading %d"/><w:basedOn w:val="Normal"/>`+
				`<w:pPr><w:keepNext/><w:spacing w:before="240" w:after="120"/><w:outlineLvl w:val="%d"/></w:pPr>`+
				`<w:rPr><w:b/><w:sz w:val="%d"/><w:szCs w:val="%d"/><w:color w:val="%s"/></w:rPr></w:style>`,
			level, level, level-1,
			HalfPoints(base+bump), HalfPoints(base+bump), color)
	}
	s.WriteString(`</w:styles>`)
	return []byte(s.String())
}

// overrideRunProps renders an explicit rPr for a block-level style patch.
func (b *DocBuilder) overrideRunProps(p *types.StylePatch) string {
	var s strings.Builder
	if p.FontFamily != nil {
		ascii, east := fontPair(*p.FontFamily)
		fmt.Fprintf(&s, `<w:rFonts w:ascii="%s" w:hAnsi="%s" w:eastAsia="%s"/>`, esc(ascii), esc(ascii), esc(east))
	}
	if p.Bold != nil && *p.Bold {
		s.WriteString(`<w:b/>`)
	}
	if p.Italic != nil && *p.Italic {
		s.WriteString(`<w:i/>`)
	}
	if p.Underline != nil && *p.Underline {
		s.WriteString(`<w:u w:val="single"/>`)
	}
	if p.TextColor != nil {
		fmt.Fprintf(&s, `<w:color w:val="%s"/>`, normalizeHex(*p.TextColor))
	}
	if p.FontSize != nil {
		fmt.Fprintf(&s, `<w:sz w:val="%d"/><w:szCs w:val="%d"/>`, HalfPoints(*p.FontSize), HalfPoints(*p.FontSize))
	}
	if s.Len() == 0 {
		return ""
	}
	return `<w:rPr>` + s.String() + `</w:rPr>`
}

// runText renders text content with newlines as soft breaks.
func runText(text string) string {
	lines := strings.Split(text, "\n")
	var s strings.Builder
	for i, line := range lines {
		if i > 0 {
			s.WriteString(`<w:br/>`)
		}
		fmt.Fprintf(&s, `<w:t xml:space="preserve">%s</w:t>`, esc(line))
	}
	return s.String()
}

func jcValue(alignment string) string {
	switch alignment {
	case types.AlignCenter:
		return "center"
	case types.AlignRight:
		return "right"
	case types.AlignJustify:
		return "both"
	}
	return "left"
}

// fontPair resolves the Latin and East Asian font names for a family. CJK
// families keep Latin glyphs on Arial; Latin families pair with the
// standard CJK fallback.
func fontPair(family string) (ascii, eastAsia string) {
	if isCJKName(family) {
		return "Arial", family
	}
	return family, "微软雅黑"
}

func isCJKName(s string) bool {
	for _, r := range s {
		if r >= 0x4E00 && r <= 0x9FFF {
			return true
		}
	}
	return false
}

// normalizeHex uppercases a color and strips a leading '#'.
func normalizeHex(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	return strings.ToUpper(hex)
}
