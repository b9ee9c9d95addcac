// Package attempts evaluates answer submissions and reports on them.
package attempts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

// Result is the state of a (question, user) pair after a submission.
type Result struct {
	QuizID            uint       `json:"quiz_id"`
	QuestionID        uint       `json:"question_id"`
	Answer            string     `json:"answer"`
	IsCorrect         bool       `json:"is_correct"`
	IsWrong           bool       `json:"is_wrong"`
	HasCorrectAttempt bool       `json:"has_correct_attempt"`
	HasWrongAttempt   bool       `json:"has_wrong_attempt"`
	AnswerHistory     []string   `json:"answer_history"`
	TriedAt           *time.Time `json:"tried_at"`
	SolvedAt          *time.Time `json:"solved_at"`
}

// QuizGetter loads a quiz with its question.
type QuizGetter interface {
	Get(ctx context.Context, id uint) (*store.QuizRecord, error)
}

// Tracker records submissions against stored quizzes.
type Tracker struct {
	quizzes  QuizGetter
	attempts store.AttemptRepo
	notes    store.WrongNoteRepo
	log      *logger.Logger
	now      func() time.Time
}

func NewTracker(quizzes QuizGetter, attempts store.AttemptRepo, notes store.WrongNoteRepo, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{quizzes: quizzes, attempts: attempts, notes: notes, log: log, now: time.Now}
}

// Submit compares the trimmed answer with the trimmed correct text,
// exactly. Case and inner whitespace matter.
func (t *Tracker) Submit(ctx context.Context, quizID uint, userID, answer string) (*Result, error) {
	if userID == "" {
		return nil, apperr.Invalid("user id is required")
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperr.Invalid("answer is required")
	}

	rec, err := t.quizzes.Get(ctx, quizID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("quiz not found")
	}
	if err != nil {
		return nil, err
	}

	correct := answer == strings.TrimSpace(rec.Question.Correct)
	err = t.attempts.Record(ctx, store.AttemptInput{
		QuizID:        rec.Quiz.ID,
		QuestionID:    rec.Question.ID,
		UserID:        userID,
		CreatorID:     rec.Quiz.UserID,
		Answer:        answer,
		IsCorrect:     correct,
		CorrectAnswer: rec.Question.Correct,
		WrongAnswers:  rec.Question.Wrong,
		Reference:     rec.Question.Reference,
		At:            t.now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	t.log.Debug("answer recorded", "user_id", userID, "quiz_id", quizID, "correct", correct)

	history, err := t.attempts.History(ctx, rec.Question.ID, userID)
	if err != nil {
		return nil, err
	}
	// Reload for the timestamps the submission just wrote.
	rec, err = t.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}

	res := &Result{
		QuizID:        rec.Quiz.ID,
		QuestionID:    rec.Question.ID,
		Answer:        answer,
		IsCorrect:     correct,
		IsWrong:       !correct,
		AnswerHistory: make([]string, 0, len(history)),
		TriedAt:       rec.Quiz.TriedAt,
		SolvedAt:      rec.Quiz.SolvedAt,
	}
	for _, a := range history {
		res.AnswerHistory = append(res.AnswerHistory, a.AnswerText)
		res.HasCorrectAttempt = res.HasCorrectAttempt || a.IsCorrect
		res.HasWrongAttempt = res.HasWrongAttempt || a.IsWrong
	}
	return res, nil
}
