package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
)

func anthropicServer(t *testing.T, status int, body map[string]any) *AnthropicProvider {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku"}, option.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func anthropicMessage(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func anthropicError(kind, msg string) map[string]any {
	return map[string]any{"type": "error", "error": map[string]any{"type": kind, "message": msg}}
}

func TestAnthropicProvider_Reply(t *testing.T) {
	reply := `[{"question":"Which muscle group dominates a deep squat?","correct":"Gluteus maximus","wrong":["Biceps","Deltoid","Trapezius"]}]`
	p := anthropicServer(t, http.StatusOK, anthropicMessage(reply, "end_turn"))

	resp, err := p.Generate(context.Background(), Prompt("You write quiz questions.", "Summary: squat depth."))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != reply {
		t.Errorf("Text() = %q", resp.Text())
	}
	if resp.Usage.Total() != 80 {
		t.Errorf("Total() = %d, want 80", resp.Usage.Total())
	}
	if resp.Stop != StopEnd || resp.Truncated() {
		t.Errorf("stop = %q", resp.Stop)
	}
	if resp.Model != "claude-haiku-4-5-20251001" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestAnthropicProvider_MaxTokens(t *testing.T) {
	p := anthropicServer(t, http.StatusOK, anthropicMessage(`[{"question":"Wh`, "max_tokens"))
	resp, err := p.Generate(context.Background(), Prompt("", "x"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Truncated() {
		t.Error("expected a truncated reply")
	}
}

func TestAnthropicProvider_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   map[string]any
		want   ErrorKind
	}{
		{"rate limit", http.StatusTooManyRequests, anthropicError("rate_limit_error", "Rate limit exceeded"), KindRateLimited},
		{"server error", http.StatusInternalServerError, anthropicError("api_error", "Internal server error"), KindUnavailable},
		{"credit balance", http.StatusBadRequest, anthropicError("invalid_request_error", "Your credit balance is too low"), KindQuotaExhausted},
		{"bad request", http.StatusBadRequest, anthropicError("invalid_request_error", "messages: field required"), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := anthropicServer(t, tt.status, tt.body)
			_, err := p.Generate(context.Background(), Prompt("", "test"))
			if kind, ok := KindOf(err); !ok || kind != tt.want {
				t.Fatalf("expected %s ProviderError, got: %T (%v)", tt.want, err, err)
			}
		})
	}
}

func TestAnthropicProvider_ResolvesAlias(t *testing.T) {
	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-sonnet"})
	if err != nil {
		t.Fatal(err)
	}
	if p.ModelID() != "claude-sonnet-4-5-20250929" {
		t.Errorf("ModelID() = %q", p.ModelID())
	}
	if _, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"}); err == nil {
		t.Error("expected an error without API key")
	}
}
