package attempts

import (
	"context"
	"math"
	"time"
)

// Summary counts a solver's first attempts over a quiz scope.
type Summary struct {
	TotalCount   int64   `json:"total_count"`
	CorrectCount int64   `json:"correct_count"`
	WrongCount   int64   `json:"wrong_count"`
	AccuracyRate float64 `json:"accuracy_rate"`
}

// Summary reports first-attempt results of solverID over the quizzes of
// scopeUserID, or over all quizzes when scopeUserID is empty. Accuracy is
// correct/total as a percentage with one decimal.
func (t *Tracker) Summary(ctx context.Context, solverID, scopeUserID string) (*Summary, error) {
	stats, err := t.attempts.FirstAttemptStats(ctx, solverID, scopeUserID)
	if err != nil {
		return nil, err
	}
	s := &Summary{TotalCount: stats.Total, CorrectCount: stats.Correct, WrongCount: stats.Wrong}
	if stats.Total > 0 {
		s.AccuracyRate = math.Round(float64(stats.Correct)/float64(stats.Total)*1000) / 10
	}
	return s, nil
}

// WrongNote is one entry of a solver's wrong-answer ledger.
type WrongNote struct {
	QuizID       uint       `json:"quiz_id"`
	QuestionID   uint       `json:"question_id"`
	Question     string     `json:"question"`
	Choices      []string   `json:"choices"`
	Correct      string     `json:"correct"`
	Wrong        []string   `json:"wrong"`
	Explanation  string     `json:"explanation"`
	Reference    string     `json:"reference"`
	Link         string     `json:"link"`
	Answers      []string   `json:"user_answers"`
	LastSolvedAt *time.Time `json:"last_solved_at"`
}

// WrongNotes lists the solver's ledger, most recently answered first.
func (t *Tracker) WrongNotes(ctx context.Context, solverID string) ([]WrongNote, error) {
	entries, err := t.notes.ListBySolver(ctx, solverID)
	if err != nil {
		return nil, err
	}
	out := make([]WrongNote, 0, len(entries))
	for _, e := range entries {
		out = append(out, WrongNote{
			QuizID:       e.QuizID,
			QuestionID:   e.QuestionID,
			Question:     e.Question,
			Choices:      orEmpty(e.Choices),
			Correct:      e.Correct,
			Wrong:        orEmpty(e.Wrong),
			Explanation:  e.Explanation,
			Reference:    e.Reference,
			Link:         e.Link,
			Answers:      orEmpty(e.Answers),
			LastSolvedAt: e.LastSolvedAt,
		})
	}
	return out, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
