package quizgen

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(7, 11))
}

// reverser is a deterministic Shuffler that reverses the slice.
type reverser struct{}

func (reverser) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestNormalize_KeepsGivenChoices(t *testing.T) {
	n := NewChoiceNormalizer(reverser{})
	c, err := n.Normalize(map[string]any{
		"question":     "Which muscle does the Romanian deadlift load most?",
		"choices":      []any{"quads", "hamstrings", "calves", "biceps"},
		"answer_index": float64(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(c.Choices, []string{"biceps", "calves", "hamstrings", "quads"}) {
		t.Errorf("choices = %v", c.Choices)
	}
	if c.AnswerIndex != 2 || c.Correct() != "hamstrings" {
		t.Errorf("answer index %d (%q), want 2 (hamstrings)", c.AnswerIndex, c.Correct())
	}
}

func TestNormalize_RebuildsFromCorrectAndWrong(t *testing.T) {
	tests := []struct {
		name  string
		wrong any
		want  []string
	}{
		{"list", []any{"30 seconds", "10 minutes", "1 hour"}, []string{"2-5 minutes", "30 seconds", "10 minutes", "1 hour"}},
		{"newline string", "30 seconds\n\n 10 minutes \n", []string{"2-5 minutes", "30 seconds", "10 minutes", PlaceholderChoice}},
		{"missing", nil, []string{"2-5 minutes", PlaceholderChoice, PlaceholderChoice, PlaceholderChoice}},
		{"too many", []any{"a", "b", "c", "d", "e"}, []string{"2-5 minutes", "a", "b", "c"}},
		{"repeats correct", []any{"2-5 minutes", "a"}, []string{"2-5 minutes", "a", PlaceholderChoice, PlaceholderChoice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Identity shuffle keeps the built order observable.
			n := NewChoiceNormalizer(identity{})
			c, err := n.Normalize(map[string]any{
				"question": "How long should you rest between heavy sets?",
				"correct":  "2-5 minutes",
				"wrong":    tt.wrong,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !slices.Equal(c.Choices, tt.want) {
				t.Errorf("choices = %v, want %v", c.Choices, tt.want)
			}
			if c.AnswerIndex != 0 {
				t.Errorf("answer index = %d, want 0", c.AnswerIndex)
			}
		})
	}
}

type identity struct{}

func (identity) Shuffle(int, func(i, j int)) {}

func TestNormalize_FallsBackOnBadIndex(t *testing.T) {
	n := NewChoiceNormalizer(identity{})
	c, err := n.Normalize(map[string]any{
		"question":     "q",
		"choices":      []any{"a", "b", "c", "d"},
		"answer_index": float64(4),
		"correct":      "b",
		"wrong":        []any{"x"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(c.Choices, []string{"b", "x", PlaceholderChoice, PlaceholderChoice}) {
		t.Errorf("out-of-range index should rebuild from correct/wrong, got %v", c.Choices)
	}
}

func TestNormalize_ChoicesWithCorrectText(t *testing.T) {
	n := NewChoiceNormalizer(identity{})
	c, err := n.Normalize(map[string]any{
		"question": "q",
		"choices":  []any{"a", "b", "c", "d"},
		"correct":  "c",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AnswerIndex != 2 {
		t.Errorf("answer index = %d, want 2", c.AnswerIndex)
	}
}

func TestNormalize_LinkNeedsVerified(t *testing.T) {
	base := func(verified any) map[string]any {
		return map[string]any{
			"question": "q",
			"correct":  "a",
			"link":     "https://doi.org/10.1000/xyz",
			"verified": verified,
		}
	}
	n := NewChoiceNormalizer(seeded())
	for _, v := range []any{nil, false, "no", float64(0)} {
		c, err := n.Normalize(base(v))
		if err != nil {
			t.Fatal(err)
		}
		if c.Link != "" {
			t.Errorf("verified=%v: link should be cleared, got %q", v, c.Link)
		}
	}
	for _, v := range []any{true, "true", "YES", float64(1)} {
		c, err := n.Normalize(base(v))
		if err != nil {
			t.Fatal(err)
		}
		if c.Link == "" {
			t.Errorf("verified=%v: link should be kept", v)
		}
	}
}

func TestNormalize_ValidationFailure(t *testing.T) {
	n := NewChoiceNormalizer(seeded())
	for name, raw := range map[string]map[string]any{
		"nil":             nil,
		"no question":     {"correct": "a"},
		"blank question":  {"question": "   ", "correct": "a"},
		"no correct text": {"question": "q", "wrong": []any{"x"}},
	} {
		_, err := n.Normalize(raw)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected *ValidationError, got %v", name, err)
		}
	}
}

func TestNormalize_CorrectSurvivesShuffles(t *testing.T) {
	n := NewChoiceNormalizer(seeded())
	raw := map[string]any{
		"question":     "Which cue helps keep a neutral spine?",
		"choices":      []any{"look up", "brace the core", "round the back", "lock the knees"},
		"answer_index": float64(1),
	}
	positions := map[int]int{}
	for range 1000 {
		c, err := n.Normalize(raw)
		if err != nil {
			t.Fatal(err)
		}
		if c.Correct() != "brace the core" {
			t.Fatalf("correct option lost: index %d in %v", c.AnswerIndex, c.Choices)
		}
		positions[c.AnswerIndex]++
	}
	if len(positions) != ChoiceCount {
		t.Errorf("expected the answer in every position at least once, got %v", positions)
	}
}

func TestShuffle_DuplicateTexts(t *testing.T) {
	n := NewChoiceNormalizer(reverser{})
	out, idx := n.Shuffle([]string{"same", "same", "other", "x"}, 1)
	if idx != 2 || out[idx] != "same" {
		t.Errorf("tag should follow the original slot: idx=%d out=%v", idx, out)
	}
}

func TestCandidateWrong(t *testing.T) {
	c := Candidate{Choices: []string{"a", PlaceholderChoice, "b", "c"}, AnswerIndex: 2}
	if got := c.Wrong(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("Wrong() = %v", got)
	}
}
