package llm

import "fmt"

// ProviderError represents a failure creating a provider client or talking
// to the provider API.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm %s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}
