package ratelimit

import (
	"os"
	"strconv"
	"time"
)

// Rule is the rate limit for one endpoint. Burst is the bucket capacity
// and defaults to Limit when zero.
type Rule struct {
	Path   string
	Method string
	Limit  int // requests per window
	Window time.Duration
	Burst  int
}

// Config holds limiter configuration. Endpoints without a matching rule
// share a per-client default bucket; the health check is never limited.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Rules           []Rule
}

var defaultRule = Rule{Path: "default"}

// match finds the rule for a request. It returns nil for unlimited
// endpoints.
func (c *Config) match(path, method string) *Rule {
	if path == "/health" {
		return nil
	}
	for i := range c.Rules {
		r := &c.Rules[i]
		if r.Method == method && r.Path == path {
			return r
		}
	}
	d := defaultRule
	d.Limit = c.DefaultLimit
	d.Window = c.DefaultWindow
	return &d
}

// DefaultConfig returns the built-in limits. Endpoints that call an AI
// provider sit in the tight tier.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Rules: []Rule{
			{Path: "/api/generate", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},
			{Path: "/api/generate/stream", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},
			{Path: "/api/modify", Method: "POST", Limit: 60, Window: time.Hour, Burst: 10},
			{Path: "/api/chat", Method: "POST", Limit: 240, Window: time.Hour, Burst: 20},
			{Path: "/api/chat/stream", Method: "POST", Limit: 240, Window: time.Hour, Burst: 20},
			{Path: "/api/detect", Method: "POST", Limit: 240, Window: time.Hour, Burst: 20},
		},
	}
}

// LoadConfig reads limiter settings from the environment on top of the
// defaults.
func LoadConfig() *Config {
	cfg := DefaultConfig()
	cfg.Enabled = getEnvBool("RATE_LIMIT_ENABLED", cfg.Enabled)
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}
	cfg.DefaultLimit = getEnvInt("RATE_LIMIT_DEFAULT_LIMIT", cfg.DefaultLimit)
	cfg.DefaultWindow = getEnvDuration("RATE_LIMIT_DEFAULT_WINDOW", cfg.DefaultWindow)
	cfg.CleanupInterval = getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", cfg.CleanupInterval)
	return cfg
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
