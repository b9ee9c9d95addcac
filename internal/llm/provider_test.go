package llm

import (
	"context"
	"errors"
	"testing"
)

func TestMockProvider_FIFO(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: `[{"question":"a"}]`, Usage: Usage{InputTokens: 10, OutputTokens: 5}},
		TruncatedResponse(`[{"quest`),
	)

	first, err := mock.Generate(context.Background(), Prompt("sys", "first"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Text() != `[{"question":"a"}]` || first.Usage.Total() != 15 || first.Stop != StopEnd {
		t.Fatalf("unexpected first response: %+v", first)
	}

	second, err := mock.Generate(context.Background(), Prompt("sys", "second"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Truncated() {
		t.Error("second response should be truncated")
	}

	if mock.CallCount() != 2 || mock.Calls[1].Messages[0].Content != "second" {
		t.Errorf("calls not recorded: %+v", mock.Calls)
	}

	_, err = mock.Generate(context.Background(), Request{})
	if kind, ok := KindOf(err); !ok || kind != KindUnavailable {
		t.Fatalf("drained mock should be unavailable, got %v", err)
	}
}

func TestMockProvider_ConfiguredError(t *testing.T) {
	mock := NewMockProvider(ErrorResponse(KindRateLimited))
	_, err := mock.Generate(context.Background(), Request{})
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Kind != KindRateLimited {
		t.Fatalf("expected rate_limited ProviderError, got: %T", err)
	}
}

func TestResponse_NilSafe(t *testing.T) {
	var r *Response
	if r.Text() != "" || r.Truncated() {
		t.Error("nil response should read as empty")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != PurposeUnknown {
		t.Fatalf("expected unknown, got %q", p)
	}
	ctx = WithPurpose(ctx, PurposeQuizGen)
	if p := PurposeFrom(ctx); p != PurposeQuizGen {
		t.Fatalf("expected quiz-gen, got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	with := func(mut func(*Config)) Config {
		c := DefaultConfig()
		mut(&c)
		return c
	}
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", with(func(c *Config) { c.Provider = ProviderAnthropic }), true},
		{"anthropic with key", with(func(c *Config) { c.Provider = ProviderAnthropic; c.Anthropic.APIKey = "sk-test" }), false},
		{"openai without key", with(func(c *Config) {}), true},
		{"openai with key", with(func(c *Config) { c.OpenAI.APIKey = "sk-test" }), false},
		{"openrouter with key", with(func(c *Config) { c.Provider = ProviderOpenRouter; c.OpenRouter.APIKey = "sk-or" }), false},
		{"mock needs no key", with(func(c *Config) { c.Provider = ProviderMock }), false},
		{"zero attempts", with(func(c *Config) { c.Provider = ProviderMock; c.Retry.MaxRetries = 0 }), true},
		{"unknown provider", with(func(c *Config) { c.Provider = "unknown" }), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func clearKeys(t *testing.T) {
	for _, k := range []string{
		"SSQUIZ_LLM_PROVIDER",
		"SSQUIZ_OPENAI_API_KEY", "OPENAI_API_KEY",
		"SSQUIZ_GEMINI_API_KEY", "GEMINI_API_KEY",
		"SSQUIZ_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY",
		"SSQUIZ_OPENROUTER_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_RetryPolicy(t *testing.T) {
	clearKeys(t)
	t.Setenv("SSQUIZ_LLM_PROVIDER", "gemini")
	t.Setenv("SSQUIZ_LLM_MAX_RETRIES", "7")
	t.Setenv("SSQUIZ_LLM_BASE_DELAY", "250ms")
	t.Setenv("SSQUIZ_LLM_ATTEMPT_TIMEOUT", "not-a-duration")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderGemini {
		t.Errorf("provider = %q, want gemini", cfg.Provider)
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelay.String() != "250ms" {
		t.Errorf("BaseDelay = %s, want 250ms", cfg.Retry.BaseDelay)
	}
	if cfg.Retry.AttemptTimeout != DefaultConfig().Retry.AttemptTimeout {
		t.Errorf("invalid duration should keep the default, got %s", cfg.Retry.AttemptTimeout)
	}
}

func TestConfigFromEnv_DiscoversVendorKey(t *testing.T) {
	clearKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderAnthropic || cfg.Anthropic.APIKey != "sk-ant" {
		t.Errorf("provider = %q key = %q", cfg.Provider, cfg.Anthropic.APIKey)
	}

	t.Setenv("SSQUIZ_ANTHROPIC_API_KEY", "sk-ssquiz")
	t.Setenv("SSQUIZ_LLM_PROVIDER", "openrouter")
	cfg = ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter {
		t.Errorf("explicit provider should win, got %q", cfg.Provider)
	}
	if cfg.Anthropic.APIKey != "sk-ssquiz" {
		t.Errorf("SSQUIZ_ key should win, got %q", cfg.Anthropic.APIKey)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ProviderMock
	g, err := NewProvider(context.Background(), cfg, &recordingEventRepo{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ModelID() != "mock" {
		t.Errorf("ModelID() = %q", g.ModelID())
	}

	cfg.Provider = "nope"
	if _, err := NewProvider(context.Background(), cfg, &recordingEventRepo{}, nil, nil); err == nil {
		t.Error("expected an error for an unknown provider")
	}
}
