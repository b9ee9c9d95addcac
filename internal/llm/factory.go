package llm

import (
	"context"
	"fmt"

	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

// NewProvider builds the configured provider and wraps it as
// caller → retry → event log → provider, so every attempt is its own event.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log, diag *logger.Logger) (*ResilientGenerator, error) {
	if log == nil {
		log = logger.Nop()
	}
	base, err := newBase(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	log.Info("LLM provider ready", "provider", cfg.Provider, "model", base.ModelID())
	logged := WithLogging(base, cfg.Provider, events, log)
	return NewResilientGenerator(logged, cfg.Retry, WithDiagnostics(diag)), nil
}

func newBase(ctx context.Context, cfg Config) (Provider, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		return NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		return NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	}
	return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
}
