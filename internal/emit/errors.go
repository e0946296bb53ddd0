// Package emit renders validated document structures into office artifacts.
package emit

import "fmt"

// IOError represents a filesystem or container write failure while emitting
// an artifact. Validation failures are never IOErrors; they surface as
// *structure.ValidationError before anything is written.
type IOError struct {
	Op    string // e.g. "read image", "assemble", "write"
	Path  string
	Cause error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("emit %s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("emit %s: %v", e.Op, e.Cause)
}

func (e *IOError) Unwrap() error {
	return e.Cause
}
