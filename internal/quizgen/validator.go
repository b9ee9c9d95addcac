package quizgen

import (
	"fmt"
	"strings"
)

// Validator checks a normalized candidate before it is offered to the
// duplicate guard. Implementations should be stateless.
type Validator interface {
	Name() string
	Validate(c *Candidate) *ValidationError
}

// ValidationError describes why a raw item or candidate was rejected.
type ValidationError struct {
	Validator string // Name of the check that failed
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator enforces the candidate shape: 4 non-empty choices,
// an in-range answer index and no link on unverified items.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(c *Candidate) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg, Retryable: true}
	}
	if strings.TrimSpace(c.Question) == "" {
		return fail("question text is empty")
	}
	if len(c.Choices) != ChoiceCount {
		return fail(fmt.Sprintf("expected %d choices, got %d", ChoiceCount, len(c.Choices)))
	}
	for i, ch := range c.Choices {
		if strings.TrimSpace(ch) == "" {
			return fail(fmt.Sprintf("choice %d is empty", i))
		}
	}
	if c.AnswerIndex < 0 || c.AnswerIndex >= ChoiceCount {
		return fail(fmt.Sprintf("answer index %d out of range", c.AnswerIndex))
	}
	if !c.Verified && c.Link != "" {
		return fail("unverified item carries a link")
	}
	return nil
}

// LengthValidator caps the question length. Runaway items are usually the
// model pasting the summary back.
type LengthValidator struct {
	MaxRunes int
}

func (v *LengthValidator) Name() string { return "length" }

func (v *LengthValidator) Validate(c *Candidate) *ValidationError {
	if v.MaxRunes > 0 && len([]rune(c.Question)) > v.MaxRunes {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("question longer than %d characters", v.MaxRunes),
			Retryable: true,
		}
	}
	return nil
}
