package quizgen

// Candidate is a normalized multiple-choice item proposed by the model.
// It lives only for one generation run until it is accepted and persisted.
type Candidate struct {
	// Question is the prompt shown to the learner.
	Question string

	// Choices holds exactly 4 non-empty options in display order.
	Choices []string

	// AnswerIndex is the position of the correct option in Choices.
	AnswerIndex int

	// Explanation covers why the correct option is right and the others
	// are wrong.
	Explanation string

	// Reference is free text naming papers or videos behind the question.
	Reference string

	// Link is an attribution URL. Empty unless Verified.
	Link string

	// Verified is the model's claim that the item quotes a real source.
	Verified bool
}

// Correct returns the text of the correct option.
func (c Candidate) Correct() string {
	if c.AnswerIndex < 0 || c.AnswerIndex >= len(c.Choices) {
		return ""
	}
	return c.Choices[c.AnswerIndex]
}

// Wrong returns the incorrect options in display order. Padding
// placeholders are not answers and are left out.
func (c Candidate) Wrong() []string {
	out := make([]string, 0, len(c.Choices))
	for i, ch := range c.Choices {
		if i == c.AnswerIndex || ch == PlaceholderChoice {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// GenerateInput holds the context for one batch request.
type GenerateInput struct {
	// Summary is the condensed conversation the quiz is drawn from.
	Summary string

	// Avoid lists recently persisted question texts, newest first, that
	// the model should not repeat. Trimmed to Config.MaxAvoid entries.
	Avoid []string
}

// Batch is the outcome of one generation attempt.
type Batch struct {
	// Candidates are the items that normalized cleanly, in model order.
	Candidates []Candidate

	// Rejected holds one error per raw item that could not be normalized.
	Rejected []error
}
