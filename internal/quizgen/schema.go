package quizgen

import "github.com/ssai/ssquiz/internal/llm"

// ItemSchema describes one raw quiz object as the model is asked to emit it.
// Items are checked against it before choice normalization.
var ItemSchema = &llm.Schema{
	Name:        "quiz-item",
	Description: "A single multiple-choice quiz item drawn from a conversation summary",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "The question shown to the learner",
			},
			"choices": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "Exactly 4 options when answer_index is given",
			},
			"answer_index": map[string]any{
				"type":        []any{"integer", "string"},
				"description": "0-based position of the correct option in choices",
			},
			"correct": map[string]any{
				"type":        "string",
				"description": "Text of the correct answer",
			},
			"wrong": map[string]any{
				"type":        []any{"array", "string"},
				"items":       map[string]any{"type": "string"},
				"description": "Wrong answers as a list or one per line",
			},
			"explanation": map[string]any{"type": "string"},
			"reference": map[string]any{
				"type":  []any{"string", "array"},
				"items": map[string]any{"type": "string"},
			},
			"link":     map[string]any{"type": "string"},
			"verified": map[string]any{"type": []any{"boolean", "string", "integer"}},
		},
		"required": []any{"question"},
	},
}
