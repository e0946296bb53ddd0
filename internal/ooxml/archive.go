package ooxml

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Part is one file inside an OOXML container.
type Part struct {
	Name string
	Data []byte
}

// WriteArchive writes the parts, in order, as a zip container. File headers
// carry no modification time, keeping the output byte-stable across runs.
func WriteArchive(w io.Writer, parts []Part) error {
	zw := zip.NewWriter(w)
	for _, p := range parts {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:   p.Name,
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("create part %s: %w", p.Name, err)
		}
		if _, err := fw.Write(p.Data); err != nil {
			return fmt.Errorf("write part %s: %w", p.Name, err)
		}
	}
	return zw.Close()
}

var xmlEsc = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// esc escapes text for embedding in XML content or attribute values.
func esc(s string) string {
	return xmlEsc.Replace(s)
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

// relationship is one entry of a .rels part.
type relationship struct {
	ID     string
	Type   string
	Target string
}

func relsXML(rels []relationship) []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.ID, r.Type, esc(r.Target))
	}
	b.WriteString(`</Relationships>`)
	return []byte(b.String())
}

// corePropsXML carries the document title; dates are omitted so the part is
// deterministic.
func corePropsXML(title string) []byte {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	fmt.Fprintf(&b, `<dc:title>%s</dc:title>`, esc(title))
	b.WriteString(`</cp:coreProperties>`)
	return []byte(b.String())
}

// mediaFile is an embedded image payload.
type mediaFile struct {
	Name string // e.g. image1.png
	Data []byte
}

// imageContentType maps an image format name to its MIME type.
func imageContentType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "jpeg", "jpg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	}
	return "application/octet-stream"
}

// mediaDefaults renders one Default content-type entry per media format
// present, deduplicated in first-use order.
func mediaDefaults(media []mediaFile) string {
	var b strings.Builder
	seen := make(map[string]bool)
	for _, m := range media {
		ext := strings.TrimPrefix(filepath.Ext(m.Name), ".")
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		fmt.Fprintf(&b, `<Default Extension="%s" ContentType="%s"/>`, ext, imageContentType(ext))
	}
	return b.String()
}
