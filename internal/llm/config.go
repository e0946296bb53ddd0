// Package llm provides provider-agnostic model access. Configuration is
// resolved per request, so one server can serve callers on different
// providers, keys and models without any process-global provider state.
package llm

import (
	"os"

	"github.com/liyue/office-engine/internal/types"
)

// Supported providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Built-in defaults. The OpenAI path defaults to OpenRouter, which fronts
// many models behind the same wire protocol.
const (
	DefaultOpenAIBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenAIModel   = "google/gemini-2.0-flash-001"
	DefaultGeminiModel   = "gemini-2.5-flash"
)

// Config is a fully resolved provider selection.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// FromEnv resolves a configuration from environment variables. An
// OpenRouter or OpenAI key selects the openai provider; a Gemini key alone
// selects gemini. LLM_PROVIDER, LLM_MODEL and LLM_BASE_URL override the
// inferred pieces.
func FromEnv() Config {
	cfg := Config{
		Provider: os.Getenv("LLM_PROVIDER"),
		BaseURL:  os.Getenv("LLM_BASE_URL"),
		Model:    os.Getenv("LLM_MODEL"),
	}
	switch cfg.Provider {
	case ProviderGemini:
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	case ProviderOpenAI:
		cfg.APIKey = envOpenAIKey()
	default:
		if key := envOpenAIKey(); key != "" {
			cfg.Provider = ProviderOpenAI
			cfg.APIKey = key
		} else if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			cfg.Provider = ProviderGemini
			cfg.APIKey = key
		}
	}
	return cfg.withDefaults()
}

// Merge overlays the per-request selection on c. Switching provider resets
// the model, base URL and key to that provider's environment and defaults
// unless the request carries its own.
func (c Config) Merge(req *types.AIConfig) Config {
	if req == nil {
		return c.withDefaults()
	}
	if req.Provider != "" && req.Provider != c.Provider {
		c.Provider = req.Provider
		c.Model = ""
		c.BaseURL = ""
		c.APIKey = KeyFromEnv(req.Provider)
	}
	if req.APIKey != "" {
		c.APIKey = req.APIKey
	}
	if req.BaseURL != "" {
		c.BaseURL = req.BaseURL
	}
	if req.Model != "" {
		c.Model = req.Model
	}
	return c.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Provider == ProviderOpenAI && c.BaseURL == "" {
		c.BaseURL = DefaultOpenAIBaseURL
	}
	if c.Model == "" {
		if c.Provider == ProviderGemini {
			c.Model = DefaultGeminiModel
		} else {
			c.Model = DefaultOpenAIModel
		}
	}
	return c
}

func envOpenAIKey() string {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENAI_API_KEY")
}

// KeyFromEnv returns the environment API key for a provider. The openai
// provider prefers OPENROUTER_API_KEY over OPENAI_API_KEY.
func KeyFromEnv(provider string) string {
	if provider == ProviderGemini {
		return os.Getenv("GEMINI_API_KEY")
	}
	return envOpenAIKey()
}
