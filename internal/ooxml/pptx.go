package ooxml

import (
	"fmt"
	"io"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

// PresentationML relationship types.
const (
	relTypeSlideMaster = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	relTypeSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relTypeSlide       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relTypeTheme       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
)

// 16:9 slide geometry in EMU.
const (
	SlideWidthEMU  = 12192000
	SlideHeightEMU = 6858000
)

// Fixed title text sizes in points, mirroring the common layout defaults.
const (
	deckTitlePt  = 44
	subtitlePt   = 32
	slideTitlePt = 32
	minBodyPt    = 18
)

// DeckBuilder assembles one PresentationML document slide by slide.
type DeckBuilder struct {
	style  types.StyleSpec
	title  string
	slides []*SlideBuilder
	media  []mediaFile
}

// NewDeckBuilder starts a deck whose text defaults come from style. The
// title is recorded as document metadata; rendering a title slide is the
// caller's call.
func NewDeckBuilder(style types.StyleSpec, title string) *DeckBuilder {
	return &DeckBuilder{style: style, title: title}
}

// SlideCount reports how many slides have been started.
func (b *DeckBuilder) SlideCount() int { return len(b.slides) }

// AddTitleSlide appends a slide with a centered deck title and optional
// subtitle.
func (b *DeckBuilder) AddTitleSlide(title, subtitle string) {
	s := b.NewSlide("")
	s.addTextboxAt(cmBox(1.9, 5.7, 30.0, 3.2), []string{title}, textOpts{
		size: deckTitlePt, bold: true, align: "ctr",
	})
	if subtitle != "" {
		s.addTextboxAt(cmBox(1.9, 9.3, 30.0, 2.0), []string{subtitle}, textOpts{
			size: subtitlePt, align: "ctr",
		})
	}
}

// NewSlide starts a slide. A non-empty title renders as a standard title
// bar across the top.
func (b *DeckBuilder) NewSlide(title string) *SlideBuilder {
	s := &SlideBuilder{
		deck:   b,
		nextID: 2,
		rels: []relationship{
			{ID: "rId1", Type: relTypeSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
		},
	}
	b.slides = append(b.slides, s)
	if title != "" {
		s.addTextboxAt(cmBox(0.9, 0.5, 32.0, 2.1), []string{title}, textOpts{
			size: slideTitlePt, bold: true, align: "l",
		})
	}
	return s
}

// SlideBuilder accumulates the shape tree of a single slide.
type SlideBuilder struct {
	deck   *DeckBuilder
	shapes strings.Builder
	rels   []relationship
	nextID int
}

type boxEMU struct{ x, y, cx, cy int64 }

func cmBox(left, top, width, height float64) boxEMU {
	return boxEMU{CmToEMU(left), CmToEMU(top), CmToEMU(width), CmToEMU(height)}
}

func emuBox(box types.Box) boxEMU {
	return boxEMU{CmToEMU(box.Left), CmToEMU(box.Top), CmToEMU(box.Width), CmToEMU(box.Height)}
}

type textOpts struct {
	size   float64 // points; 0 means body default with the minimum floor
	bold   bool
	align  string // l, ctr, r, just; "" means style alignment
	bullet bool
	color  string // hex; "" means style color
	font   string // "" means style font
}

// AddTextbox places lines of body text, optionally bulleted, restyled by an
// optional block-level patch.
func (s *SlideBuilder) AddTextbox(box types.Box, lines []string, bullet bool, override *types.StylePatch) {
	opts := textOpts{bullet: bullet}
	if override != nil {
		if override.FontSize != nil {
			opts.size = *override.FontSize
		}
		if override.Bold != nil && *override.Bold {
			opts.bold = true
		}
		if override.TextColor != nil {
			opts.color = normalizeHex(*override.TextColor)
		}
		if override.FontFamily != nil {
			opts.font = *override.FontFamily
		}
		if override.Alignment != nil {
			opts.align = algnValue(*override.Alignment)
		}
	}
	s.addTextboxAt(emuBox(box), lines, opts)
}

func (s *SlideBuilder) addTextboxAt(box boxEMU, lines []string, opts textOpts) {
	id := s.nextID
	s.nextID++
	style := s.deck.style
	size := opts.size
	if size == 0 {
		size = style.FontSize
		if size < minBodyPt {
			size = minBodyPt
		}
	}
	align := opts.align
	if align == "" {
		align = algnValue(style.Alignment)
	}
	color := opts.color
	if color == "" {
		color = normalizeHex(style.TextColor)
	}
	font := opts.font
	if font == "" {
		font = style.FontFamily
	}

	var pPr strings.Builder
	fmt.Fprintf(&pPr, `<a:pPr algn="%s"><a:lnSpc><a:spcPct val="%d"/></a:lnSpc>`,
		align, int(style.LineSpacing*100000))
	if opts.bullet {
		pPr.WriteString(`<a:buChar char="&#8226;"/></a:pPr>`)
	} else {
		pPr.WriteString(`<a:buNone/></a:pPr>`)
	}

	fmt.Fprintf(&s.shapes,
		`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="TextBox %d"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:noFill/></p:spPr>`+
			`<p:txBody><a:bodyPr wrap="square" rtlCol="0"><a:normAutofit/></a:bodyPr><a:lstStyle/>`,
		id, id, box.x, box.y, box.cx, box.cy)
	for _, line := range lines {
		fmt.Fprintf(&s.shapes, `<a:p>%s<a:r>%s<a:t>%s</a:t></a:r></a:p>`,
			pPr.String(), s.deck.runProps(size, opts.bold, color, font), esc(line))
	}
	if len(lines) == 0 {
		s.shapes.WriteString(`<a:p><a:endParaRPr/></a:p>`)
	}
	s.shapes.WriteString(`</p:txBody></p:sp>`)
}

// AddGeometry places a preset auto shape with a solid fill and optional
// centered white label.
func (s *SlideBuilder) AddGeometry(box types.Box, preset, fillHex, text string) {
	id := s.nextID
	s.nextID++
	b := emuBox(box)
	fill := normalizeHex(fillHex)
	if fill == "" {
		fill = "4472C4"
	}
	fmt.Fprintf(&s.shapes,
		`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="Shape %d"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="%s"><a:avLst/></a:prstGeom>`+
			`<a:solidFill><a:srgbClr val="%s"/></a:solidFill></p:spPr>`+
			`<p:txBody><a:bodyPr rtlCol="0" anchor="ctr"/><a:lstStyle/>`,
		id, id, b.x, b.y, b.cx, b.cy, geomPreset(preset), fill)
	if text != "" {
		fmt.Fprintf(&s.shapes, `<a:p><a:pPr algn="ctr"><a:buNone/></a:pPr><a:r>%s<a:t>%s</a:t></a:r></a:p>`,
			s.deck.runProps(s.deck.style.FontSize, false, "FFFFFF", s.deck.style.FontFamily), esc(text))
	} else {
		s.shapes.WriteString(`<a:p><a:endParaRPr/></a:p>`)
	}
	s.shapes.WriteString(`</p:txBody></p:sp>`)
}

// AddImage places a picture stretched to the box.
func (s *SlideBuilder) AddImage(box types.Box, img Image) {
	id := s.nextID
	s.nextID++
	name := fmt.Sprintf("image%d.%s", len(s.deck.media)+1, img.Format)
	s.deck.media = append(s.deck.media, mediaFile{Name: name, Data: img.Data})
	relID := fmt.Sprintf("rId%d", len(s.rels)+1)
	s.rels = append(s.rels, relationship{ID: relID, Type: relTypeImage, Target: "../media/" + name})

	b := emuBox(box)
	fmt.Fprintf(&s.shapes,
		`<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
			`<p:blipFill><a:blip r:embed="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
			`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`+
			`<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
		id, id, relID, b.x, b.y, b.cx, b.cy)
}

// AddTable places a grid filling the box, rows sized evenly.
func (s *SlideBuilder) AddTable(box types.Box, rows [][]string, headerRow bool) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	id := s.nextID
	s.nextID++
	b := emuBox(box)
	cols := len(rows[0])
	colW := b.cx / int64(cols)
	rowH := b.cy / int64(len(rows))

	fmt.Fprintf(&s.shapes,
		`<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="Table %d"/>`+
			`<p:cNvGraphicFramePr/><p:nvPr/></p:nvGraphicFramePr>`+
			`<p:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></p:xfrm>`+
			`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table">`+
			`<a:tbl><a:tblPr/><a:tblGrid>`,
		id, id, b.x, b.y, b.cx, b.cy)
	for i := 0; i < cols; i++ {
		fmt.Fprintf(&s.shapes, `<a:gridCol w="%d"/>`, colW)
	}
	s.shapes.WriteString(`</a:tblGrid>`)

	style := s.deck.style
	for ri, row := range rows {
		header := headerRow && ri == 0
		fmt.Fprintf(&s.shapes, `<a:tr h="%d">`, rowH)
		for ci := 0; ci < cols; ci++ {
			cell := ""
			if ci < len(row) {
				cell = row[ci]
			}
			size := style.FontSize
			if size < 12 {
				size = 12
			}
			s.shapes.WriteString(`<a:tc><a:txBody><a:bodyPr/><a:lstStyle/>`)
			fmt.Fprintf(&s.shapes, `<a:p><a:pPr algn="l"><a:buNone/></a:pPr><a:r>%s<a:t>%s</a:t></a:r></a:p>`,
				s.deck.runProps(size, header, normalizeHex(style.TextColor), style.FontFamily), esc(cell))
			s.shapes.WriteString(`</a:txBody>`)
			if header {
				s.shapes.WriteString(`<a:tcPr><a:solidFill><a:srgbClr val="D9D9D9"/></a:solidFill></a:tcPr>`)
			} else {
				s.shapes.WriteString(`<a:tcPr/>`)
			}
			s.shapes.WriteString(`</a:tc>`)
		}
		s.shapes.WriteString(`</a:tr>`)
	}
	s.shapes.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
}

// runProps renders an a:rPr for deck text.
func (b *DeckBuilder) runProps(sizePt float64, bold bool, colorHex, font string) string {
	ascii, east := fontPair(font)
	boldAttr := ""
	if bold {
		boldAttr = ` b="1"`
	}
	return fmt.Sprintf(
		`<a:rPr lang="en-US" sz="%d"%s dirty="0"><a:solidFill><a:srgbClr val="%s"/></a:solidFill>`+
			`<a:latin typeface="%s"/><a:ea typeface="%s"/></a:rPr>`,
		CentiPoints(sizePt), boldAttr, colorHex, esc(ascii), esc(east))
}

// Write assembles the container parts and writes the archive.
func (b *DeckBuilder) Write(w io.Writer) error {
	parts := []Part{
		{Name: "[Content_Types].xml", Data: b.contentTypes()},
		{Name: "_rels/.rels", Data: relsXML([]relationship{
			{ID: "rId1", Type: relTypeOfficeDocument, Target: "ppt/presentation.xml"},
			{ID: "rId2", Type: relTypeCoreProps, Target: "docProps/core.xml"},
		})},
		{Name: "docProps/core.xml", Data: corePropsXML(b.title)},
		{Name: "ppt/presentation.xml", Data: b.presentationXML()},
		{Name: "ppt/_rels/presentation.xml.rels", Data: b.presentationRels()},
		{Name: "ppt/slideMasters/slideMaster1.xml", Data: []byte(slideMasterXML)},
		{Name: "ppt/slideMasters/_rels/slideMaster1.xml.rels", Data: relsXML([]relationship{
			{ID: "rId1", Type: relTypeSlideLayout, Target: "../slideLayouts/slideLayout1.xml"},
			{ID: "rId2", Type: relTypeTheme, Target: "../theme/theme1.xml"},
		})},
		{Name: "ppt/slideLayouts/slideLayout1.xml", Data: []byte(slideLayoutXML)},
		{Name: "ppt/slideLayouts/_rels/slideLayout1.xml.rels", Data: relsXML([]relationship{
			{ID: "rId1", Type: relTypeSlideMaster, Target: "../slideMasters/slideMaster1.xml"},
		})},
		{Name: "ppt/theme/theme1.xml", Data: []byte(themeXML)},
	}
	for i, s := range b.slides {
		n := i + 1
		parts = append(parts,
			Part{Name: fmt.Sprintf("ppt/slides/slide%d.xml", n), Data: s.xml()},
			Part{Name: fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), Data: relsXML(s.rels)},
		)
	}
	for _, m := range b.media {
		parts = append(parts, Part{Name: "ppt/media/" + m.Name, Data: m.Data})
	}
	return WriteArchive(w, parts)
}

func (s *SlideBuilder) xml() []byte {
	var x strings.Builder
	x.WriteString(xmlHeader)
	x.WriteString(`<p:sld` + pmlNamespaces + `>`)
	x.WriteString(`<p:cSld><p:spTree>` +
		`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr/>`)
	x.WriteString(s.shapes.String())
	x.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return []byte(x.String())
}

func (b *DeckBuilder) presentationXML() []byte {
	var x strings.Builder
	x.WriteString(xmlHeader)
	x.WriteString(`<p:presentation` + pmlNamespaces + `>`)
	x.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	x.WriteString(`<p:sldIdLst>`)
	for i := range b.slides {
		fmt.Fprintf(&x, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+2)
	}
	x.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&x, `<p:sldSz cx="%d" cy="%d"/><p:notesSz cx="6858000" cy="9144000"/>`, SlideWidthEMU, SlideHeightEMU)
	x.WriteString(`</p:presentation>`)
	return []byte(x.String())
}

func (b *DeckBuilder) presentationRels() []byte {
	rels := []relationship{{ID: "rId1", Type: relTypeSlideMaster, Target: "slideMasters/slideMaster1.xml"}}
	for i := range b.slides {
		rels = append(rels, relationship{
			ID:     fmt.Sprintf("rId%d", i+2),
			Type:   relTypeSlide,
			Target: fmt.Sprintf("slides/slide%d.xml", i+1),
		})
	}
	return relsXML(rels)
}

func (b *DeckBuilder) contentTypes() []byte {
	var x strings.Builder
	x.WriteString(xmlHeader)
	x.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
		`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
		`<Default Extension="xml" ContentType="application/xml"/>`)
	x.WriteString(mediaDefaults(b.media))
	x.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
		`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>` +
		`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>` +
		`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>` +
		`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>`)
	for i := range b.slides {
		fmt.Fprintf(&x, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	x.WriteString(`</Types>`)
	return []byte(x.String())
}

func geomPreset(preset string) string {
	switch preset {
	case types.PresetOval:
		return "ellipse"
	case types.PresetRoundedRectangle:
		return "roundRect"
	case types.PresetTriangle:
		return "triangle"
	}
	return "rect"
}

func algnValue(alignment string) string {
	switch alignment {
	case types.AlignCenter:
		return "ctr"
	case types.AlignRight:
		return "r"
	case types.AlignJustify:
		return "just"
	}
	return "l"
}

const pmlNamespaces = ` xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"` +
	` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"` +
	` xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`

const slideMasterXML = xmlHeader + `<p:sldMaster` + pmlNamespaces + `>` +
	`<p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="FFFFFF"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>` +
	`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const slideLayoutXML = xmlHeader + `<p:sldLayout` + pmlNamespaces + ` type="blank">` +
	`<p:cSld name="Blank"><p:spTree>` +
	`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>` +
	`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const themeXML = xmlHeader + `<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="Office">` +
	`<a:themeElements>` +
	`<a:clrScheme name="Office">` +
	`<a:dk1><a:sysClr val="windowText" lastClr="000000"/></a:dk1>` +
	`<a:lt1><a:sysClr val="window" lastClr="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="44546A"/></a:dk2>` +
	`<a:lt2><a:srgbClr val="E7E6E6"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4472C4"/></a:accent1>` +
	`<a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3>` +
	`<a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5>` +
	`<a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink>` +
	`<a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="Office">` +
	`<a:majorFont><a:latin typeface="Calibri Light"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="Office">` +
	`<a:fillStyleLst>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`</a:fillStyleLst>` +
	`<a:lnStyleLst>` +
	`<a:ln w="6350" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
	`<a:ln w="12700" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
	`<a:ln w="19050" cap="flat" cmpd="sng" algn="ctr"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln>` +
	`</a:lnStyleLst>` +
	`<a:effectStyleLst>` +
	`<a:effectStyle><a:effectLst/></a:effectStyle>` +
	`<a:effectStyle><a:effectLst/></a:effectStyle>` +
	`<a:effectStyle><a:effectLst/></a:effectStyle>` +
	`</a:effectStyleLst>` +
	`<a:bgFillStyleLst>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`<a:solidFill><a:schemeClr val="phClr"/></a:solidFill>` +
	`</a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements>` +
	`</a:theme>`
