package quizgen

import (
	"errors"
	"testing"
)

func TestExtractPayloads_FencedQuestionsWrapper(t *testing.T) {
	text := "Sure! ```json\n{\"questions\":[{\"question\":\"Why brace?\"},{\"question\":\"How deep?\"}]}\n```"

	p, err := ExtractPayloads(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Strategy != StrategyFence {
		t.Errorf("expected fence strategy, got %d", p.Strategy)
	}
	if p.Kind != PayloadArray {
		t.Errorf("expected array payload, got %s", p.Kind)
	}
	if len(p.Items) != 2 || p.Items[1]["question"] != "How deep?" {
		t.Errorf("unexpected items: %v", p.Items)
	}
}

func TestExtractPayloads(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		kind     PayloadKind
		strategy Strategy
		items    int
	}{
		{"whole object", `{"question": "a"}`, PayloadObject, StrategyWhole, 1},
		{"whole array", `[{"question": "a"}, {"question": "b"}]`, PayloadArray, StrategyWhole, 2},
		{"whole wrapper", `{"questions": [{"question": "a"}]}`, PayloadArray, StrategyWhole, 1},
		{"plain fence", "```\n[{\"question\": \"a\"}]\n```", PayloadArray, StrategyFence, 1},
		{"upper case json fence", "```JSON\n{\"question\": \"a\"}```", PayloadObject, StrategyFence, 1},
		{"braces in prose", `Here you go: {"question": "a"} Hope it helps!`, PayloadObject, StrategyBraces, 1},
		{"bad fence falls back to braces", "```json\nnot json``` but {\"question\": \"a\"}", PayloadObject, StrategyBraces, 1},
		{"wrapper with non-array questions", `{"questions": "none"}`, PayloadObject, StrategyWhole, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ExtractPayloads(tt.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", p.Kind, tt.kind)
			}
			if p.Strategy != tt.strategy {
				t.Errorf("strategy = %d, want %d", p.Strategy, tt.strategy)
			}
			if len(p.Items) != tt.items {
				t.Errorf("items = %d, want %d", len(p.Items), tt.items)
			}
		})
	}
}

func TestExtractPayloads_Unparseable(t *testing.T) {
	for _, text := range []string{"", "no json here", "{broken", `"just a string"`, "42"} {
		p, err := ExtractPayloads(text)
		if err == nil {
			t.Errorf("%q: expected parse error", text)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected *ParseError, got %T", text, err)
		}
		if perr.Raw != text {
			t.Errorf("raw text not preserved: %q", perr.Raw)
		}
		if p.Kind != PayloadUnparseable {
			t.Errorf("%q: kind = %s", text, p.Kind)
		}
	}
}

func TestExtractPayloads_NonObjectItemsAreNil(t *testing.T) {
	p, err := ExtractPayloads(`[{"question": "a"}, "stray", 3]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(p.Items))
	}
	if p.Items[1] != nil || p.Items[2] != nil {
		t.Errorf("non-object entries should be nil: %v", p.Items)
	}
}
