package structure

import "fmt"

// ValidationError reports the first offending node found while walking a
// document structure. Path is a JSON-style locator into the content facet,
// such as "blocks[2].table.rows[0]" or "charts[0].values".
type ValidationError struct {
	Path    string
	Message string
}

// Error returns a string representation of the validation error.
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return "structure: " + e.Message
	}
	return fmt.Sprintf("structure: %s: %s", e.Path, e.Message)
}

func errAt(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}
