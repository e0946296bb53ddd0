package llm

import (
	"context"
)

// Client is an abstraction over LLM providers.
type Client interface {
	// GenerateContent returns the full response text for a prompt.
	GenerateContent(ctx context.Context, system, prompt string) (string, error)
	// GenerateJSON returns a JSON response with markdown fences stripped.
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
	// GenerateStream delivers response text incrementally through onDelta
	// and returns the accumulated full text.
	GenerateStream(ctx context.Context, system, prompt string, onDelta func(text string)) (string, error)
	// Model returns the model name requests are sent to.
	Model() string
	// Close releases any resources held by the client.
	Close() error
}

// NewClient creates a client for the resolved configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, &ProviderError{Provider: cfg.Provider, Message: "API key is required"}
	}
	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiClient(ctx, cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	default:
		return nil, &ProviderError{Provider: cfg.Provider, Message: "unknown provider"}
	}
}
