package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type wrongNoteRepo struct {
	db *gorm.DB
}

func (r *wrongNoteRepo) Get(ctx context.Context, questionID uint, solverID string) (*WrongNote, error) {
	var note WrongNote
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND solver_id = ?", questionID, solverID).
		First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get wrong note: %w", err)
	}
	return &note, nil
}

func (r *wrongNoteRepo) ListBySolver(ctx context.Context, solverID string) ([]WrongNoteEntry, error) {
	var notes []WrongNote
	err := r.db.WithContext(ctx).
		Where("solver_id = ?", solverID).
		Order("CASE WHEN last_solved_at IS NULL THEN 1 ELSE 0 END, last_solved_at DESC, id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("list wrong notes: %w", err)
	}

	out := make([]WrongNoteEntry, 0, len(notes))
	for _, n := range notes {
		var question Question
		err := r.db.WithContext(ctx).First(&question, n.QuestionID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load question %d: %w", n.QuestionID, err)
		}

		var link string
		var quiz Quiz
		if err := r.db.WithContext(ctx).First(&quiz, question.QuizID).Error; err == nil {
			link = quiz.Link
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load quiz %d: %w", question.QuizID, err)
		}

		out = append(out, WrongNoteEntry{
			QuizID:       question.QuizID,
			QuestionID:   question.ID,
			Question:     question.Text,
			Choices:      question.Choices,
			Correct:      question.Correct,
			Wrong:        question.Wrong,
			Explanation:  question.Explanation,
			Reference:    question.Reference,
			Link:         link,
			Answers:      n.Answers,
			LastSolvedAt: n.LastSolvedAt,
		})
	}
	return out, nil
}
