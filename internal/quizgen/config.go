package quizgen

// Config controls the behavior of the LLMGenerator.
type Config struct {
	// Validators run in order on every normalized candidate; the first
	// failure rejects it.
	Validators []Validator

	// MaxTokens is the token budget for the batch response.
	MaxTokens int

	// Temperature controls LLM output randomness (0.0-1.0).
	Temperature float64

	// BatchSize is how many items each request asks for.
	BatchSize int

	// MaxAvoid is the maximum number of recent questions included in the
	// prompt as an avoid-list.
	MaxAvoid int

	// SummaryMaxTokens is the token budget for conversation summaries.
	SummaryMaxTokens int
}

// DefaultConfig returns a Config with the standard validator chain
// and recommended defaults.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&StructuralValidator{},
			&LengthValidator{MaxRunes: 600},
		},
		MaxTokens:        2048,
		Temperature:      0.7,
		BatchSize:        5,
		MaxAvoid:         20,
		SummaryMaxTokens: 1024,
	}
}
