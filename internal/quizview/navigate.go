package quizview

import (
	"context"
	"errors"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/store"
)

// Latest returns the viewer's newest quiz, or the newest quiz overall when
// the viewer has none.
func (s *Service) Latest(ctx context.Context, viewerID string) (*View, error) {
	id, err := s.quizzes.LatestID(ctx, viewerID)
	if errors.Is(err, store.ErrNotFound) {
		id, err = s.quizzes.LatestID(ctx, "")
	}
	if err != nil {
		return nil, notFound(err, "no quiz yet")
	}
	return s.Render(ctx, id, viewerID, ScopeUser)
}

// LatestAll returns the newest quiz of any author.
func (s *Service) LatestAll(ctx context.Context, viewerID string) (*View, error) {
	id, err := s.quizzes.LatestID(ctx, "")
	if err != nil {
		return nil, notFound(err, "no quiz yet")
	}
	return s.Render(ctx, id, viewerID, ScopeAll)
}

// FirstAll returns the oldest quiz of any author.
func (s *Service) FirstAll(ctx context.Context, viewerID string) (*View, error) {
	id, err := s.quizzes.FirstID(ctx, "")
	if err != nil {
		return nil, notFound(err, "no quiz yet")
	}
	return s.Render(ctx, id, viewerID, ScopeAll)
}

// Next returns the quiz after currentID by id within scope.
func (s *Service) Next(ctx context.Context, viewerID string, scope Scope, currentID uint) (*View, error) {
	if currentID == 0 {
		return nil, apperr.Invalid("current_id is required")
	}
	id, err := s.quizzes.NextID(ctx, scope.owner(viewerID), currentID)
	if err != nil {
		return nil, notFound(err, "no next quiz")
	}
	return s.Render(ctx, id, viewerID, scope)
}

// Prev returns the quiz before currentID by id within scope.
func (s *Service) Prev(ctx context.Context, viewerID string, scope Scope, currentID uint) (*View, error) {
	if currentID == 0 {
		return nil, apperr.Invalid("current_id is required")
	}
	id, err := s.quizzes.PrevID(ctx, scope.owner(viewerID), currentID)
	if err != nil {
		return nil, notFound(err, "no previous quiz")
	}
	return s.Render(ctx, id, viewerID, scope)
}

// Own renders quizID only when viewerID authored it. Other authors' quizzes
// read as missing.
func (s *Service) Own(ctx context.Context, quizID uint, viewerID string) (*View, error) {
	rec, err := s.quizzes.Get(ctx, quizID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && rec.Quiz.UserID != viewerID) {
		return nil, apperr.NotFound("quiz not found")
	}
	if err != nil {
		return nil, err
	}
	return s.render(ctx, rec, viewerID, ScopeNone)
}

func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(msg)
	}
	return err
}
