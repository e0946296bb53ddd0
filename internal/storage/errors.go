package storage

import (
	"errors"
	"fmt"
)

// ErrInvalidName marks artifact names rejected before touching the
// filesystem: empty names, path separators, traversal segments, or
// extensions outside the artifact whitelist.
var ErrInvalidName = errors.New("invalid artifact name")

// NotFoundError reports a well-formed artifact name with no file behind it.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("artifact %q not found", e.Name)
}
