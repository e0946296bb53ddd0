// Package styleparse extracts formatting directives from natural-language
// request text, in English and Chinese, into a partial style patch. The
// parser only ever adds fields; unrecognized text is ignored and defaults
// stand. Each successful match claims its character span so overlapping
// rules cannot consume the same token twice.
package styleparse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/liyue/office-engine/internal/types"
)

const (
	minFontSize = 6
	maxFontSize = 96
	cueWindow   = 16
)

// Parse scans text for style directives and returns the partial patch of
// every field it recognized, plus warnings for cues it had to clamp, skip,
// or override. It never fails.
func Parse(text string) (*types.StylePatch, []Warning) {
	p := &parser{
		text:    text,
		lower:   strings.ToLower(text),
		claimed: make([]bool, len(text)),
		patch:   &types.StylePatch{},
	}
	p.scanFontSize()
	p.scanLineSpacing()
	p.scanMargins()
	p.scanHeadingLevels()
	p.scanColor()
	p.scanAlignment()
	p.scanFont()
	return p.patch, p.warns
}

type parser struct {
	text    string
	lower   string
	claimed []bool
	patch   *types.StylePatch
	warns   []Warning
}

// span is one candidate match with its byte range and the action to run if
// the range is still unclaimed. Candidates for a field are applied in text
// order so the last mention wins.
type span struct {
	start, end int
	apply      func()
}

func (p *parser) run(spans []span) {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	for _, s := range spans {
		if !p.free(s.start, s.end) {
			continue
		}
		p.claim(s.start, s.end)
		s.apply()
	}
}

func (p *parser) free(start, end int) bool {
	for i := start; i < end; i++ {
		if p.claimed[i] {
			return false
		}
	}
	return true
}

func (p *parser) claim(start, end int) {
	for i := start; i < end; i++ {
		p.claimed[i] = true
	}
}

// nearCue reports whether any cue occurs within the window around the match.
func (p *parser) nearCue(start, end, window int, cues ...string) bool {
	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(p.text) {
		hi = len(p.text)
	}
	seg := p.lower[lo:hi]
	for _, cue := range cues {
		if strings.Contains(seg, cue) {
			return true
		}
	}
	return false
}

func (p *parser) warn(field, msg string) {
	p.warns = append(p.warns, Warning{Field: field, Message: msg})
}

// --- font size ---

var (
	rePtSize      = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*pt\b`)
	rePointSize   = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*points?\b`)
	reBangSize    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*磅`)
	reSizeCueEN   = regexp.MustCompile(`(?i)\bfont[- ]?size\s*(?:of\s+|[:=]\s*)?(\d+(?:\.\d+)?)\b`)
	reSizeCueCJK  = regexp.MustCompile(`字号\s*[:：]?\s*(\d+(?:\.\d+)?)`)
	reCJKSizeName = regexp.MustCompile(`(小初|小一|小二|小三|小四|小五|小六|小七|初号|一号|二号|三号|四号|五号|六号|七号)(号|字)?`)
)

// Traditional Chinese type sizes in points.
var cjkSizes = map[string]float64{
	"初号": 42, "小初": 36,
	"一号": 26, "小一": 24,
	"二号": 22, "小二": 18,
	"三号": 16, "小三": 15,
	"四号": 14, "小四": 12,
	"五号": 10.5, "小五": 9,
	"六号": 7.5, "小六": 6.5,
	"七号": 5.5, "小七": 5,
}

func (p *parser) scanFontSize() {
	var spans []span
	collect := func(re *regexp.Regexp, needCue bool) {
		for _, m := range re.FindAllStringSubmatchIndex(p.text, -1) {
			start, end := m[0], m[1]
			v, err := strconv.ParseFloat(p.text[m[2]:m[3]], 64)
			if err != nil {
				continue
			}
			if needCue && !p.nearCue(start, end, cueWindow, "font", "size", "字号", "字体") {
				continue
			}
			val := v
			spans = append(spans, span{start, end, func() { p.setFontSize(val) }})
		}
	}
	collect(rePtSize, false)
	collect(rePointSize, true)
	collect(reBangSize, false)
	collect(reSizeCueEN, false)
	collect(reSizeCueCJK, false)

	for _, m := range reCJKSizeName.FindAllStringSubmatchIndex(p.text, -1) {
		start, end := m[0], m[1]
		name := p.text[m[2]:m[3]]
		hasSuffix := m[4] >= 0
		// bare X号 forms need explicit type-size context to avoid matching
		// ordinary numbering like 第一号
		if !strings.HasPrefix(name, "小") && !hasSuffix &&
			!p.nearCue(start, end, cueWindow, "字号", "字体") {
			continue
		}
		v, ok := cjkSizes[name]
		if !ok {
			continue
		}
		val := v
		spans = append(spans, span{start, end, func() { p.setFontSize(val) }})
	}
	p.run(spans)
}

func (p *parser) setFontSize(v float64) {
	if v < minFontSize {
		p.warn("font_size", "size "+num(v)+" below minimum, using "+num(minFontSize))
		v = minFontSize
	} else if v > maxFontSize {
		p.warn("font_size", "size "+num(v)+" above maximum, using "+num(maxFontSize))
		v = maxFontSize
	}
	if p.patch.FontSize != nil && *p.patch.FontSize != v {
		p.warn("font_size", "multiple sizes given, keeping "+num(v))
	}
	p.patch.FontSize = &v
}

// --- line spacing ---

var (
	reSpacingBefore  = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:x\s*)?line[- ]spac(?:ing|ed)\b`)
	reSpacingAfter   = regexp.MustCompile(`(?i)\bline[- ]spacing\s*(?:of\s+|[:=]\s*)?(\d+(?:\.\d+)?)\b`)
	reSpacingKeyword = regexp.MustCompile(`(?i)\b(single|double)[- ](?:line[- ])?spac(?:ing|ed)\b`)
	reSpacingCJKMult = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*倍(?:行距|行间距)`)
	reSpacingCJKWord = regexp.MustCompile(`(单|双|两)倍(?:行距|行间距)`)
	reSpacingCJKNum  = regexp.MustCompile(`(?:行距|行间距)\s*[:：]?\s*(\d+(?:\.\d+)?)`)
)

func (p *parser) scanLineSpacing() {
	var spans []span
	numeric := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(p.text, -1) {
			v, err := strconv.ParseFloat(p.text[m[2]:m[3]], 64)
			if err != nil || v <= 0 {
				continue
			}
			val := v
			spans = append(spans, span{m[0], m[1], func() { p.setLineSpacing(val) }})
		}
	}
	numeric(reSpacingBefore)
	numeric(reSpacingAfter)
	numeric(reSpacingCJKMult)
	numeric(reSpacingCJKNum)

	for _, m := range reSpacingKeyword.FindAllStringSubmatchIndex(p.text, -1) {
		v := 1.0
		if strings.EqualFold(p.text[m[2]:m[3]], "double") {
			v = 2.0
		}
		val := v
		spans = append(spans, span{m[0], m[1], func() { p.setLineSpacing(val) }})
	}
	for _, m := range reSpacingCJKWord.FindAllStringSubmatchIndex(p.text, -1) {
		v := 1.0
		if p.text[m[2]:m[3]] != "单" {
			v = 2.0
		}
		val := v
		spans = append(spans, span{m[0], m[1], func() { p.setLineSpacing(val) }})
	}
	p.run(spans)
}

func (p *parser) setLineSpacing(v float64) {
	if p.patch.LineSpacing != nil && *p.patch.LineSpacing != v {
		p.warn("line_spacing", "multiple values given, keeping "+num(v))
	}
	p.patch.LineSpacing = &v
}

// --- margins ---

var (
	reMarginBefore = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(cm|centimeters?|inch(?:es)?|in)\.?\s+margins?\b`)
	reMarginAfter  = regexp.MustCompile(`(?i)\bmargins?\s*(?:of\s+|[:=]\s*)?(\d+(?:\.\d+)?)\s*(cm|centimeters?|inch(?:es)?|in)\b`)
	reMarginCJK    = regexp.MustCompile(`页边距\s*[:：]?\s*(\d+(?:\.\d+)?)\s*(厘米|公分|cm|英寸)`)
	reMarginCJKPre = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(厘米|公分|英寸)(?:的)?页边距`)
)

func (p *parser) scanMargins() {
	var spans []span
	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(p.text, -1) {
			v, err := strconv.ParseFloat(p.text[m[2]:m[3]], 64)
			if err != nil || v < 0 {
				continue
			}
			unit := strings.ToLower(p.text[m[4]:m[5]])
			val := v
			if strings.HasPrefix(unit, "in") || unit == "英寸" {
				val = round2(v * 2.54)
			}
			spans = append(spans, span{m[0], m[1], func() { p.setMargin(val) }})
		}
	}
	collect(reMarginBefore)
	collect(reMarginAfter)
	collect(reMarginCJK)
	collect(reMarginCJKPre)
	p.run(spans)
}

func (p *parser) setMargin(cm float64) {
	if p.patch.MarginValue != nil && *p.patch.MarginValue != cm {
		p.warn("margins", "multiple values given, keeping "+num(cm)+"cm")
	}
	unit := types.MarginUnitCm
	p.patch.MarginValue = &cm
	p.patch.MarginUnit = &unit
}

// --- heading levels ---

var reHeadingLevels = regexp.MustCompile(`(?i)\bheading levels?\s*[:=]?\s*(\d+(?:\s*,\s*\d+)*)\b`)

func (p *parser) scanHeadingLevels() {
	var spans []span
	for _, m := range reHeadingLevels.FindAllStringSubmatchIndex(p.text, -1) {
		list := p.text[m[2]:m[3]]
		spans = append(spans, span{m[0], m[1], func() { p.setHeadingLevels(list) }})
	}
	p.run(spans)
}

func (p *parser) setHeadingLevels(list string) {
	var levels []int
	for _, part := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if n < 1 || n > 6 {
			p.warn("heading_levels", "level "+strconv.Itoa(n)+" out of range, skipped")
			continue
		}
		levels = append(levels, n)
	}
	if len(levels) > 0 {
		p.patch.HeadingLevels = levels
	}
}

// --- color ---

var (
	reHexColor     = regexp.MustCompile(`#([0-9A-Fa-f]{6})\b`)
	reBareHexColor = regexp.MustCompile(`(?i)\b([0-9A-Fa-f]{6})\b`)
	reNamedColorEN = regexp.MustCompile(`(?i)\b(black|white|red|blue|green|yellow|orange|purple|gray|grey)\b`)
	reNamedColorCJK = regexp.MustCompile(`(黑|白|红|蓝|绿|黄|橙|紫|灰)色`)
)

var namedColors = map[string]string{
	"black": "000000", "white": "FFFFFF", "red": "FF0000", "blue": "0000FF",
	"green": "008000", "yellow": "FFFF00", "orange": "FFA500",
	"purple": "800080", "gray": "808080", "grey": "808080",
	"黑": "000000", "白": "FFFFFF", "红": "FF0000", "蓝": "0000FF",
	"绿": "008000", "黄": "FFFF00", "橙": "FFA500", "紫": "800080", "灰": "808080",
}

func (p *parser) scanColor() {
	var spans []span
	for _, m := range reHexColor.FindAllStringSubmatchIndex(p.text, -1) {
		hex := strings.ToUpper(p.text[m[2]:m[3]])
		spans = append(spans, span{m[0], m[1], func() { p.setColor(hex) }})
	}
	for _, m := range reBareHexColor.FindAllStringSubmatchIndex(p.text, -1) {
		if !p.nearCue(m[0], m[1], cueWindow, "color", "colour", "颜色") {
			continue
		}
		hex := strings.ToUpper(p.text[m[2]:m[3]])
		spans = append(spans, span{m[0], m[1], func() { p.setColor(hex) }})
	}
	for _, m := range reNamedColorEN.FindAllStringSubmatchIndex(p.text, -1) {
		if !p.nearCue(m[0], m[1], cueWindow, "color", "colour", "text", "font") {
			continue
		}
		hex := namedColors[strings.ToLower(p.text[m[2]:m[3]])]
		spans = append(spans, span{m[0], m[1], func() { p.setColor(hex) }})
	}
	for _, m := range reNamedColorCJK.FindAllStringSubmatchIndex(p.text, -1) {
		hex, ok := namedColors[p.text[m[2]:m[3]]]
		if !ok {
			continue
		}
		color := hex
		spans = append(spans, span{m[0], m[1], func() { p.setColor(color) }})
	}
	p.run(spans)
}

func (p *parser) setColor(hex string) {
	if p.patch.TextColor != nil && *p.patch.TextColor != hex {
		p.warn("text_color", "multiple colors given, keeping #"+hex)
	}
	p.patch.TextColor = &hex
}

// --- alignment ---

var (
	reAlignCue     = regexp.MustCompile(`(?i)\balign(?:ed|ment)?\s*[:=]?\s*(left|center|centre|right|justify|justified)\b`)
	reAlignSuffix  = regexp.MustCompile(`(?i)\b(left|center|centre|right|justify|justified)[- ]align(?:ed|ment)?\b`)
	reAlignedWord  = regexp.MustCompile(`(?i)\b(centered|centred|justified)\b`)
	reAlignCJK     = regexp.MustCompile(`(居中|左对齐|右对齐|两端对齐)`)
)

var alignWords = map[string]string{
	"left": types.AlignLeft, "right": types.AlignRight,
	"center": types.AlignCenter, "centre": types.AlignCenter,
	"centered": types.AlignCenter, "centred": types.AlignCenter,
	"justify": types.AlignJustify, "justified": types.AlignJustify,
	"居中": types.AlignCenter, "左对齐": types.AlignLeft,
	"右对齐": types.AlignRight, "两端对齐": types.AlignJustify,
}

func (p *parser) scanAlignment() {
	var spans []span
	collect := func(re *regexp.Regexp) {
		for _, m := range re.FindAllStringSubmatchIndex(p.text, -1) {
			v, ok := alignWords[strings.ToLower(p.text[m[2]:m[3]])]
			if !ok {
				continue
			}
			val := v
			spans = append(spans, span{m[0], m[1], func() { p.setAlignment(val) }})
		}
	}
	collect(reAlignCue)
	collect(reAlignSuffix)
	collect(reAlignedWord)
	collect(reAlignCJK)
	p.run(spans)
}

func (p *parser) setAlignment(v string) {
	if p.patch.Alignment != nil && *p.patch.Alignment != v {
		p.warn("alignment", "multiple alignments given, keeping "+v)
	}
	p.patch.Alignment = &v
}

// --- font family ---

var knownFonts = []string{
	"Times New Roman", "Microsoft YaHei", "Courier New",
	"Arial", "Calibri", "Cambria", "Georgia", "Verdana", "Helvetica",
	"Tahoma", "Garamond", "SimSun", "SimHei", "KaiTi", "FangSong",
	"微软雅黑", "宋体", "黑体", "楷体", "仿宋", "隶书", "幼圆",
}

var (
	reKnownFont   *regexp.Regexp
	knownFontCase = map[string]string{}

	reQuotedFont  = regexp.MustCompile("[\"'`]([^\"'`\n]{1,40})[\"'`]")
	reFontCueName = regexp.MustCompile(`(?i)\bfont\s+(?:family\s+)?([A-Z][A-Za-z]+(?:\s+[A-Z][A-Za-z]+){0,2})`)
)

func init() {
	names := append([]string(nil), knownFonts...)
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	alts := make([]string, len(names))
	for i, n := range names {
		knownFontCase[strings.ToLower(n)] = n
		q := regexp.QuoteMeta(n)
		if n[0] < 0x80 {
			q = `\b` + q + `\b`
		}
		alts[i] = q
	}
	reKnownFont = regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

func (p *parser) scanFont() {
	var spans []span
	for _, m := range reQuotedFont.FindAllStringSubmatchIndex(p.text, -1) {
		if !p.nearCue(m[0], m[1], cueWindow, "font", "typeface", "字体") {
			continue
		}
		name := strings.TrimSpace(p.text[m[2]:m[3]])
		if name == "" {
			continue
		}
		if canonical, ok := knownFontCase[strings.ToLower(name)]; ok {
			name = canonical
		}
		val := name
		spans = append(spans, span{m[0], m[1], func() { p.setFont(val) }})
	}
	for _, m := range reKnownFont.FindAllStringIndex(p.text, -1) {
		name := knownFontCase[strings.ToLower(p.text[m[0]:m[1]])]
		if name == "" {
			name = p.text[m[0]:m[1]]
		}
		val := name
		spans = append(spans, span{m[0], m[1], func() { p.setFont(val) }})
	}
	p.run(spans)

	// an explicit font cue followed by a name nothing above claimed is a
	// recognized-but-unusable directive
	for _, m := range reFontCueName.FindAllStringSubmatchIndex(p.text, -1) {
		if !p.free(m[2], m[3]) {
			continue
		}
		name := p.text[m[2]:m[3]]
		if _, ok := knownFontCase[strings.ToLower(name)]; ok {
			continue
		}
		// "font color:", "font size:" and friends are other directives,
		// not font names
		switch strings.ToLower(strings.Fields(name)[0]) {
		case "color", "colour", "size", "family", "style":
			continue
		}
		p.claim(m[0], m[1])
		p.warn("font_family", "unrecognized font "+strconv.Quote(name)+", keeping default")
	}
}

func (p *parser) setFont(name string) {
	if p.patch.FontFamily != nil && *p.patch.FontFamily != name {
		p.warn("font_family", "multiple fonts given, keeping "+name)
	}
	p.patch.FontFamily = &name
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
