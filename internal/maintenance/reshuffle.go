package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/store"
)

// Mixer permutes a stored choice list. *quizgen.ChoiceNormalizer
// implements it.
type Mixer interface {
	ShuffleAll(choices []string) []string
}

// Reshuffle permutes the choices of one quiz.
func (s *Service) Reshuffle(ctx context.Context, quizID uint) error {
	rec, err := s.quizzes.Get(ctx, quizID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("quiz not found")
	}
	if err != nil {
		return err
	}
	if len(rec.Question.Choices) == 0 {
		return apperr.Invalid("no choices to shuffle")
	}
	return s.quizzes.UpdateChoices(ctx, rec.Question.ID, s.mixer.ShuffleAll(rec.Question.Choices))
}

// ReshuffleAll permutes every quiz that has choices and returns how many
// it mixed.
func (s *Service) ReshuffleAll(ctx context.Context) (int, error) {
	recs, err := s.quizzes.ListOldestFirst(ctx)
	if err != nil {
		return 0, fmt.Errorf("list quizzes: %w", err)
	}
	mixed := 0
	for _, rec := range recs {
		if len(rec.Question.Choices) == 0 {
			continue
		}
		if err := s.quizzes.UpdateChoices(ctx, rec.Question.ID, s.mixer.ShuffleAll(rec.Question.Choices)); err != nil {
			return mixed, fmt.Errorf("shuffle quiz %d: %w", rec.Quiz.ID, err)
		}
		mixed++
	}
	s.log.Info("reshuffle finished", "mixed", mixed)
	return mixed, nil
}
