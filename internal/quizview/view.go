// Package quizview renders stored quizzes for a viewer and walks between
// them.
package quizview

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/store"
)

// Scope selects which quizzes positions and navigation range over.
type Scope string

const (
	ScopeNone Scope = ""
	ScopeUser Scope = "user"
	ScopeAll  Scope = "all"
)

// ParseScope accepts "user" and "all"; empty defaults to user.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeUser:
		return ScopeUser, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return ScopeNone, apperr.Invalid("scope must be user or all")
}

// owner maps a scope to the user id filter of the quiz repo.
func (s Scope) owner(viewerID string) string {
	if s == ScopeUser {
		return viewerID
	}
	return ""
}

// View is one quiz as shown to a viewer.
type View struct {
	ID                uint       `json:"id"`
	Title             string     `json:"title"`
	Link              string     `json:"link"`
	Question          string     `json:"question"`
	Choices           []string   `json:"choices"`
	Correct           string     `json:"correct"`
	Wrong             []string   `json:"wrong"`
	Explanation       string     `json:"explanation"`
	Reference         string     `json:"reference"`
	CreatedAt         time.Time  `json:"created_at"`
	HasCorrectAttempt bool       `json:"has_correct_attempt"`
	HasWrongAttempt   bool       `json:"has_wrong_attempt"`
	AnswerHistory     []string   `json:"answer_history"`
	TriedAt           *time.Time `json:"tried_at"`
	SolvedAt          *time.Time `json:"solved_at"`
	CurrentIndex      *int64     `json:"current_index"`
	TotalCount        *int64     `json:"total_count"`
}

// AdminView adds the author to a View.
type AdminView struct {
	View
	SourceUserID string `json:"source_user_id"`
}

// QuizReader is the read side of store.QuizRepo used for rendering.
type QuizReader interface {
	Get(ctx context.Context, id uint) (*store.QuizRecord, error)
	ListNewestFirst(ctx context.Context) ([]store.QuizRecord, error)
	LatestID(ctx context.Context, userID string) (uint, error)
	FirstID(ctx context.Context, userID string) (uint, error)
	NextID(ctx context.Context, userID string, afterID uint) (uint, error)
	PrevID(ctx context.Context, userID string, beforeID uint) (uint, error)
	Position(ctx context.Context, userID string, quizID uint) (index, total int64, err error)
}

// HistoryReader returns a viewer's attempts on a question.
type HistoryReader interface {
	History(ctx context.Context, questionID uint, userID string) ([]store.Attempt, error)
}

type Service struct {
	quizzes  QuizReader
	attempts HistoryReader
}

func NewService(quizzes QuizReader, attempts HistoryReader) *Service {
	return &Service{quizzes: quizzes, attempts: attempts}
}

// Render loads a quiz for viewerID. Attempt history is included when a
// viewer is given; the position within scope when a scope is given too.
func (s *Service) Render(ctx context.Context, quizID uint, viewerID string, scope Scope) (*View, error) {
	rec, err := s.quizzes.Get(ctx, quizID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("quiz not found")
	}
	if err != nil {
		return nil, err
	}
	return s.render(ctx, rec, viewerID, scope)
}

func (s *Service) render(ctx context.Context, rec *store.QuizRecord, viewerID string, scope Scope) (*View, error) {
	v := baseView(rec)
	if viewerID == "" {
		return v, nil
	}

	attempts, err := s.attempts.History(ctx, rec.Question.ID, viewerID)
	if err != nil {
		return nil, err
	}
	for _, a := range attempts {
		v.AnswerHistory = append(v.AnswerHistory, a.AnswerText)
		v.HasCorrectAttempt = v.HasCorrectAttempt || a.IsCorrect
		v.HasWrongAttempt = v.HasWrongAttempt || a.IsWrong
	}

	if scope == ScopeNone {
		return v, nil
	}
	index, total, err := s.quizzes.Position(ctx, scope.owner(viewerID), rec.Quiz.ID)
	if err != nil {
		return nil, err
	}
	v.TotalCount = &total
	if total > 0 {
		v.CurrentIndex = &index
	}
	return v, nil
}

func baseView(rec *store.QuizRecord) *View {
	return &View{
		ID:            rec.Quiz.ID,
		Title:         rec.Quiz.Title,
		Link:          rec.Quiz.Link,
		Question:      rec.Question.Text,
		Choices:       nonNil(rec.Question.Choices),
		Correct:       rec.Question.Correct,
		Wrong:         nonNil(rec.Question.Wrong),
		Explanation:   rec.Question.Explanation,
		Reference:     rec.Question.Reference,
		CreatedAt:     rec.Quiz.CreatedAt,
		AnswerHistory: []string{},
		TriedAt:       rec.Quiz.TriedAt,
		SolvedAt:      rec.Quiz.SolvedAt,
	}
}

// Admin renders a quiz with its author and without viewer state.
func (s *Service) Admin(ctx context.Context, quizID uint) (*AdminView, error) {
	rec, err := s.quizzes.Get(ctx, quizID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("quiz not found")
	}
	if err != nil {
		return nil, err
	}
	return &AdminView{View: *baseView(rec), SourceUserID: rec.Quiz.UserID}, nil
}

// AdminList renders every quiz, newest first.
func (s *Service) AdminList(ctx context.Context) ([]AdminView, error) {
	recs, err := s.quizzes.ListNewestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]AdminView, 0, len(recs))
	for i := range recs {
		out = append(out, AdminView{View: *baseView(&recs[i]), SourceUserID: recs[i].Quiz.UserID})
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
