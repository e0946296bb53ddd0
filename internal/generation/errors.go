package generation

import "fmt"

// OutlineError reports a model response that could not be turned into a
// document structure even after the draft fallback.
type OutlineError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *OutlineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation %s: %s", e.Stage, e.Message)
}

func (e *OutlineError) Unwrap() error {
	return e.Cause
}
