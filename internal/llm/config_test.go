package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liyue/office-engine/internal/types"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY", "LLM_PROVIDER", "LLM_MODEL", "LLM_BASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestFromEnv_OpenRouterKeySelectsOpenAI(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "sk-or-123")

	cfg := FromEnv()

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "sk-or-123", cfg.APIKey)
	assert.Equal(t, DefaultOpenAIBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultOpenAIModel, cfg.Model)
}

func TestFromEnv_GeminiKeyAloneSelectsGemini(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-123")

	cfg := FromEnv()

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "g-123", cfg.APIKey)
	assert.Equal(t, DefaultGeminiModel, cfg.Model)
	assert.Empty(t, cfg.BaseURL)
}

func TestFromEnv_ExplicitOverrides(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-123")
	t.Setenv("LLM_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_BASE_URL", "https://example.test/v1")

	cfg := FromEnv()

	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "https://example.test/v1", cfg.BaseURL)
	assert.Equal(t, "sk-123", cfg.APIKey)
}

func TestMerge_RequestOverridesBase(t *testing.T) {
	base := Config{Provider: ProviderOpenAI, APIKey: "server-key", Model: "server-model"}

	merged := base.Merge(&types.AIConfig{Model: "caller-model", APIKey: "caller-key"})

	assert.Equal(t, ProviderOpenAI, merged.Provider)
	assert.Equal(t, "caller-key", merged.APIKey)
	assert.Equal(t, "caller-model", merged.Model)
}

func TestMerge_ProviderSwitchResetsModel(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-456")
	base := Config{Provider: ProviderOpenAI, APIKey: "sk", Model: DefaultOpenAIModel, BaseURL: DefaultOpenAIBaseURL}

	merged := base.Merge(&types.AIConfig{Provider: ProviderGemini})

	assert.Equal(t, ProviderGemini, merged.Provider)
	assert.Equal(t, DefaultGeminiModel, merged.Model)
	assert.Equal(t, "g-456", merged.APIKey)
	assert.Empty(t, merged.BaseURL)
}

func TestMerge_NilRequestKeepsBase(t *testing.T) {
	base := Config{Provider: ProviderOpenAI, APIKey: "sk", Model: "m", BaseURL: "https://b"}
	assert.Equal(t, base, base.Merge(nil))
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Config{Provider: ProviderOpenAI})

	var perr *ProviderError
	assert.ErrorAs(t, err, &perr)
}
