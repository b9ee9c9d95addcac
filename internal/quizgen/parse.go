package quizgen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// PayloadKind tags the shape ExtractPayloads found.
type PayloadKind int

const (
	PayloadUnparseable PayloadKind = iota
	PayloadObject
	PayloadArray
)

func (k PayloadKind) String() string {
	switch k {
	case PayloadObject:
		return "object"
	case PayloadArray:
		return "array"
	default:
		return "unparseable"
	}
}

// Strategy records which extraction step produced a payload.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyWhole
	StrategyFence
	StrategyBraces
)

// Payload is the decoded model output. Items holds one entry per raw quiz
// object; entries that were not JSON objects are nil.
type Payload struct {
	Kind     PayloadKind
	Strategy Strategy
	Items    []map[string]any
}

// ParseError is returned when no strategy yields a JSON object or array.
// Raw is the full model text for offline triage and must not reach users.
type ParseError struct {
	Raw string

	// Truncated is set when the reply hit the token limit.
	Truncated bool
}

func (e *ParseError) Error() string {
	if e.Truncated {
		return fmt.Sprintf("model output is not parseable JSON (%d bytes, cut off at the token limit)", len(e.Raw))
	}
	return fmt.Sprintf("model output is not parseable JSON (%d bytes)", len(e.Raw))
}

var firstFence = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)```")

// ExtractPayloads decodes quiz items from free-form model text. It tries
// the whole text, then the first fenced code block, then the span from the
// first '{' to the last '}'. An object carrying a "questions" array unwraps
// to that array.
func ExtractPayloads(text string) (Payload, error) {
	if p, ok := decode(text); ok {
		p.Strategy = StrategyWhole
		return p, nil
	}
	if m := firstFence.FindStringSubmatch(text); m != nil {
		if p, ok := decode(m[1]); ok {
			p.Strategy = StrategyFence
			return p, nil
		}
	}
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		if p, ok := decode(text[start : end+1]); ok {
			p.Strategy = StrategyBraces
			return p, nil
		}
	}
	return Payload{Kind: PayloadUnparseable}, &ParseError{Raw: text}
}

func decode(s string) (Payload, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Payload{}, false
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return Payload{}, false
	}
	switch t := v.(type) {
	case map[string]any:
		if qs, ok := t["questions"].([]any); ok {
			return Payload{Kind: PayloadArray, Items: objects(qs)}, true
		}
		return Payload{Kind: PayloadObject, Items: []map[string]any{t}}, true
	case []any:
		return Payload{Kind: PayloadArray, Items: objects(t)}, true
	}
	return Payload{}, false
}

func objects(vs []any) []map[string]any {
	out := make([]map[string]any, len(vs))
	for i, v := range vs {
		out[i], _ = v.(map[string]any)
	}
	return out
}
