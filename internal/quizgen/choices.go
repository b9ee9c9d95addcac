package quizgen

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	// ChoiceCount is the number of options every quiz presents.
	ChoiceCount = 4

	// PlaceholderChoice pads items that came with too few wrong answers.
	PlaceholderChoice = "(not applicable)"
)

// Shuffler permutes n elements through swap. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// ChoiceNormalizer turns raw model objects into Candidates with shuffled
// choices.
type ChoiceNormalizer struct {
	rng Shuffler
}

// NewChoiceNormalizer uses rng for permutations, or the global source when
// rng is nil.
func NewChoiceNormalizer(rng Shuffler) *ChoiceNormalizer {
	if rng == nil {
		rng = globalShuffler{}
	}
	return &ChoiceNormalizer{rng: rng}
}

// Normalize builds a Candidate from one raw item. An item that already
// carries 4 usable choices and an in-range answer index keeps them;
// otherwise choices are rebuilt from "correct" and "wrong". Either way the
// result is shuffled.
func (n *ChoiceNormalizer) Normalize(raw map[string]any) (Candidate, error) {
	if raw == nil {
		return Candidate{}, &ValidationError{Validator: "shape", Message: "item is not an object", Retryable: true}
	}
	question := str(raw["question"])
	if question == "" {
		return Candidate{}, &ValidationError{Validator: "shape", Message: "missing question text", Retryable: true}
	}

	choices, idx, ok := givenChoices(raw)
	if !ok {
		correct := str(raw["correct"])
		if correct == "" {
			return Candidate{}, &ValidationError{Validator: "shape", Message: "missing correct answer", Retryable: true}
		}
		choices, idx = buildChoices(correct, wrongList(raw["wrong"]))
	}

	choices, idx = n.Shuffle(choices, idx)

	c := Candidate{
		Question:    question,
		Choices:     choices,
		AnswerIndex: idx,
		Explanation: str(raw["explanation"]),
		Reference:   joinable(raw["reference"]),
		Verified:    truthy(raw["verified"]) || truthy(raw["is_real"]),
	}
	if c.Verified {
		c.Link = str(raw["link"])
	}
	return c, nil
}

// Shuffle permutes choices and returns the new position of the option that
// was at correct. Options are tagged before the permutation so the index
// follows its text even when options repeat.
func (n *ChoiceNormalizer) Shuffle(choices []string, correct int) ([]string, int) {
	type tagged struct {
		text    string
		correct bool
	}
	ts := make([]tagged, len(choices))
	for i, c := range choices {
		ts[i] = tagged{text: c, correct: i == correct}
	}
	n.rng.Shuffle(len(ts), func(i, j int) { ts[i], ts[j] = ts[j], ts[i] })

	out := make([]string, len(ts))
	idx := -1
	for i, t := range ts {
		out[i] = t.text
		if t.correct {
			idx = i
		}
	}
	return out, idx
}

// ShuffleAll permutes stored choices that carry no index.
func (n *ChoiceNormalizer) ShuffleAll(choices []string) []string {
	out, _ := n.Shuffle(choices, -1)
	return out
}

func givenChoices(raw map[string]any) ([]string, int, bool) {
	list, ok := raw["choices"].([]any)
	if !ok || len(list) != ChoiceCount {
		return nil, 0, false
	}
	choices := make([]string, 0, ChoiceCount)
	for _, v := range list {
		s, ok := v.(string)
		s = strings.TrimSpace(s)
		if !ok || s == "" {
			return nil, 0, false
		}
		choices = append(choices, s)
	}

	for _, key := range []string{"answer_index", "correct_index"} {
		if i, ok := index(raw[key]); ok {
			if i >= 0 && i < ChoiceCount {
				return choices, i, true
			}
			return nil, 0, false
		}
	}
	// No index; accept the list when the correct text names one of them.
	if correct := str(raw["correct"]); correct != "" {
		for i, c := range choices {
			if c == correct {
				return choices, i, true
			}
		}
	}
	return nil, 0, false
}

func buildChoices(correct string, wrong []string) ([]string, int) {
	choices := []string{correct}
	for _, w := range wrong {
		if len(choices) == ChoiceCount {
			break
		}
		if w == correct {
			continue
		}
		choices = append(choices, w)
	}
	for len(choices) < ChoiceCount {
		choices = append(choices, PlaceholderChoice)
	}
	return choices, 0
}

// wrongList accepts a JSON list or a newline-delimited string.
func wrongList(v any) []string {
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, x := range t {
			parts = append(parts, str(x))
		}
	case string:
		parts = strings.Split(t, "\n")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func index(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return -1, true
		}
		return int(t), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return -1, true
		}
		return i, true
	}
	return 0, false
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

// joinable flattens a string or list of strings to newline-separated text.
func joinable(v any) string {
	if list, ok := v.([]any); ok {
		parts := make([]string, 0, len(list))
		for _, x := range list {
			if s := str(x); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	return str(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}
