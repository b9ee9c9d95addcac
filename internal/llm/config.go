package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by SSQUIZ_LLM_PROVIDER.
const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the provider behind quiz generation.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // for compatible APIs
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// OpenRouterConfig also carries the optional attribution OpenRouter shows
// on its dashboard.
type OpenRouterConfig struct {
	APIKey   string
	Model    string
	BaseURL  string
	AppURL   string // HTTP-Referer
	AppTitle string // X-Title
}

// RetryConfig is the ResilientGenerator policy.
type RetryConfig struct {
	// MaxRetries is the total number of attempts per call. Quota
	// exhaustion stops after MaxRetries-2 attempts.
	MaxRetries int

	// BaseDelay is multiplied by 2^attempt between attempts.
	BaseDelay time.Duration

	// MaxDelay caps a single backoff. Zero means no cap.
	MaxDelay time.Duration

	// AttemptTimeout bounds each outbound call. Zero means no bound.
	AttemptTimeout time.Duration
}

// modelAliases maps short names to dated model ids. Anything else is sent
// as given.
var modelAliases = map[string]string{
	"claude-sonnet": "claude-sonnet-4-5-20250929",
	"claude-haiku":  "claude-haiku-4-5-20251001",
	"gemini-flash":  "gemini-2.5-flash",
	"gemini-pro":    "gemini-2.5-pro",
	"gpt-mini":      "gpt-4.1-mini",
}

func resolveModel(name string) string {
	if id, ok := modelAliases[name]; ok {
		return id
	}
	return name
}

func DefaultConfig() Config {
	return Config{
		Provider:   ProviderOpenAI,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "openai/gpt-4o-mini", AppTitle: "ssquiz"},
		Retry: RetryConfig{
			MaxRetries:     5,
			BaseDelay:      time.Second,
			MaxDelay:       30 * time.Second,
			AttemptTimeout: 60 * time.Second,
		},
	}
}

// ConfigFromEnv reads SSQUIZ_* variables over DefaultConfig. API keys fall
// back to the vendors' standard variables (OPENAI_API_KEY and so on). When
// SSQUIZ_LLM_PROVIDER is unset the first provider with a key wins, in the
// order openai, gemini, anthropic, openrouter.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	cfg.OpenAI.APIKey = firstEnv("SSQUIZ_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.Gemini.APIKey = firstEnv("SSQUIZ_GEMINI_API_KEY", "GEMINI_API_KEY")
	cfg.Anthropic.APIKey = firstEnv("SSQUIZ_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	cfg.OpenRouter.APIKey = firstEnv("SSQUIZ_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")

	setEnv(&cfg.OpenAI.Model, "SSQUIZ_OPENAI_MODEL")
	setEnv(&cfg.OpenAI.BaseURL, "SSQUIZ_OPENAI_BASE_URL")
	setEnv(&cfg.Gemini.Model, "SSQUIZ_GEMINI_MODEL")
	setEnv(&cfg.Anthropic.Model, "SSQUIZ_ANTHROPIC_MODEL")
	setEnv(&cfg.OpenRouter.Model, "SSQUIZ_OPENROUTER_MODEL")
	setEnv(&cfg.OpenRouter.AppURL, "SSQUIZ_OPENROUTER_APP_URL")
	setEnv(&cfg.OpenRouter.AppTitle, "SSQUIZ_OPENROUTER_APP_TITLE")

	if p := os.Getenv("SSQUIZ_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	} else if p, ok := cfg.discover(); ok {
		cfg.Provider = p
	}

	if n, ok := envInt("SSQUIZ_LLM_MAX_RETRIES"); ok && n > 0 {
		cfg.Retry.MaxRetries = n
	}
	if d, ok := envDuration("SSQUIZ_LLM_BASE_DELAY"); ok {
		cfg.Retry.BaseDelay = d
	}
	if d, ok := envDuration("SSQUIZ_LLM_MAX_DELAY"); ok {
		cfg.Retry.MaxDelay = d
	}
	if d, ok := envDuration("SSQUIZ_LLM_ATTEMPT_TIMEOUT"); ok {
		cfg.Retry.AttemptTimeout = d
	}
	return cfg
}

func (c Config) discover() (string, bool) {
	switch {
	case c.OpenAI.APIKey != "":
		return ProviderOpenAI, true
	case c.Gemini.APIKey != "":
		return ProviderGemini, true
	case c.Anthropic.APIKey != "":
		return ProviderAnthropic, true
	case c.OpenRouter.APIKey != "":
		return ProviderOpenRouter, true
	}
	return "", false
}

// Validate checks that the selected provider has its key and that the
// retry policy allows at least one attempt.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "SSQUIZ_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "SSQUIZ_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "SSQUIZ_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "SSQUIZ_OPENROUTER_API_KEY"
	case ProviderMock:
		key = "-"
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("retry policy needs at least one attempt, got %d", c.Retry.MaxRetries)
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func setEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string) (int, bool) {
	n, err := strconv.Atoi(os.Getenv(key))
	return n, err == nil
}

func envDuration(key string) (time.Duration, bool) {
	d, err := time.ParseDuration(os.Getenv(key))
	return d, err == nil
}
