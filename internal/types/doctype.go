// Package types provides type definitions for structured data used throughout the office-engine system.
package types

import "fmt"

// DocType identifies which office container format a request targets.
type DocType string

const (
	DocTypeWord  DocType = "word"
	DocTypeExcel DocType = "excel"
	DocTypePPT   DocType = "ppt"
)

// Valid reports whether d is one of the three supported document types.
func (d DocType) Valid() bool {
	switch d {
	case DocTypeWord, DocTypeExcel, DocTypePPT:
		return true
	}
	return false
}

// Extension returns the artifact file extension for the document type.
func (d DocType) Extension() string {
	switch d {
	case DocTypeWord:
		return ".docx"
	case DocTypeExcel:
		return ".xlsx"
	case DocTypePPT:
		return ".pptx"
	}
	return ""
}

// ContentType returns the MIME type served for artifacts of this document type.
func (d DocType) ContentType() string {
	switch d {
	case DocTypeWord:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case DocTypeExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case DocTypePPT:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	}
	return "application/octet-stream"
}

// ParseDocType normalizes common aliases ("docx", "spreadsheet", "slides")
// to a canonical DocType.
func ParseDocType(s string) (DocType, error) {
	switch s {
	case "word", "doc", "docx", "document":
		return DocTypeWord, nil
	case "excel", "xlsx", "sheet", "spreadsheet":
		return DocTypeExcel, nil
	case "ppt", "pptx", "slides", "presentation", "deck":
		return DocTypePPT, nil
	}
	return "", fmt.Errorf("unknown document type %q", s)
}
