package styleparse

import "fmt"

// Warning records a non-fatal parsing anomaly: a recognized cue whose value
// was unusable, clamped, or overridden. Parsing never fails; warnings ride
// alongside the extracted patch.
type Warning struct {
	Field   string
	Message string
}

// String formats the warning for logs and result payloads.
func (w Warning) String() string {
	return fmt.Sprintf("style: %s: %s", w.Field, w.Message)
}

// Strings converts warnings to plain strings for result payloads.
func Strings(warns []Warning) []string {
	if len(warns) == 0 {
		return nil
	}
	out := make([]string, len(warns))
	for i, w := range warns {
		out[i] = w.String()
	}
	return out
}
