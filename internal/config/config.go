// Package config provides configuration loading and validation for the CLI
// and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/types"
)

// ServerConfig holds the listen address for serve mode.
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// LLMConfig selects the default AI provider. API keys are never read from
// the config file; they come from the environment.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// Config represents the application configuration that can be loaded from a
// JSON file. All fields are optional; missing values use defaults or must
// be provided via CLI flags.
type Config struct {
	Server     ServerConfig `json:"server,omitempty"`
	OutputDir  string       `json:"output_dir,omitempty"`
	LLM        LLMConfig    `json:"llm,omitempty"`
	CORSOrigin string       `json:"cors_origin,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:    ServerConfig{Host: "127.0.0.1", Port: 8000},
		OutputDir: "output",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration.
// Environment values win over file values.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("OFFICE_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("OFFICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("OFFICE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("OFFICE_CORS_ORIGIN"); v != "" {
		c.CORSOrigin = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.LLM.Provider {
	case "", llm.ProviderOpenAI, llm.ProviderGemini:
	default:
		return fmt.Errorf("config error: 'llm.provider' must be %q or %q, got %q",
			llm.ProviderOpenAI, llm.ProviderGemini, c.LLM.Provider)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("config error: 'output_dir' must not be empty")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero fields filled from
// defaults. This is used to apply built-in values underneath a loaded
// config file.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Server.Host == "" {
		result.Server.Host = defaults.Server.Host
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.CORSOrigin == "" {
		result.CORSOrigin = defaults.CORSOrigin
	}
	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.Model == "" {
		result.LLM.Model = defaults.LLM.Model
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = defaults.LLM.BaseURL
	}

	return result
}

// LLMBase resolves the base provider configuration for the process. The
// file-level LLM section seeds the selection; when it names no provider,
// the provider is inferred from which API keys are present. Call ApplyEnv
// first so LLM_* environment variables win over the file.
func (c *Config) LLMBase() llm.Config {
	if c.LLM.Provider == "" {
		return llm.FromEnv().Merge(&types.AIConfig{
			Model:   c.LLM.Model,
			BaseURL: c.LLM.BaseURL,
		})
	}
	cfg := llm.Config{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		BaseURL:  c.LLM.BaseURL,
		APIKey:   llm.KeyFromEnv(c.LLM.Provider),
	}
	return cfg.Merge(nil)
}
