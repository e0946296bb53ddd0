package stream

// ProtocolWarning reports a recoverable violation of the structure stream
// protocol, such as an envelope that never closes or a payload that is not
// valid JSON. Warnings never abort a stream; callers fall back to the plain
// text and surface the warning alongside the result.
type ProtocolWarning struct {
	Reason string
}

func (w ProtocolWarning) String() string {
	return "stream protocol: " + w.Reason
}

// Strings flattens warnings for transport in API responses.
func Strings(warns []ProtocolWarning) []string {
	if len(warns) == 0 {
		return nil
	}
	out := make([]string, len(warns))
	for i, w := range warns {
		out[i] = w.String()
	}
	return out
}
