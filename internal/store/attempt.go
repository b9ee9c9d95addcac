package store

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type attemptRepo struct {
	db *gorm.DB
}

func (r *attemptRepo) Record(ctx context.Context, in AttemptInput) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		at := in.At
		attempt := Attempt{
			QuestionID: in.QuestionID,
			UserID:     in.UserID,
			AnswerText: in.Answer,
			IsCorrect:  in.IsCorrect,
			IsWrong:    !in.IsCorrect,
			CreatedAt:  at,
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return fmt.Errorf("create attempt: %w", err)
		}

		if err := tx.Model(&Quiz{}).Where("id = ?", in.QuizID).Update("tried_at", at).Error; err != nil {
			return fmt.Errorf("stamp tried_at: %w", err)
		}

		if in.IsCorrect {
			// First solve wins.
			err := tx.Model(&Quiz{}).
				Where("id = ? AND solved_at IS NULL", in.QuizID).
				Update("solved_at", at).Error
			if err != nil {
				return fmt.Errorf("stamp solved_at: %w", err)
			}
			return nil
		}

		return appendWrongNote(tx, in)
	})
}

// appendWrongNote inserts the (question, solver) note or, when it already
// exists, appends to its history under a row lock.
func appendWrongNote(tx *gorm.DB, in AttemptInput) error {
	at := in.At
	note := WrongNote{
		QuestionID:    in.QuestionID,
		SolverID:      in.UserID,
		CreatorID:     in.CreatorID,
		CorrectAnswer: in.CorrectAnswer,
		WrongAnswer:   datatypes.JSONSlice[string](nonNil(in.WrongAnswers)),
		ReferenceLink: in.Reference,
		Answers:       datatypes.JSONSlice[string]{in.Answer},
		LastSolvedAt:  &at,
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "question_id"}, {Name: "solver_id"}},
		DoNothing: true,
	}).Create(&note)
	if res.Error != nil {
		return fmt.Errorf("create wrong note: %w", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var existing WrongNote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("question_id = ? AND solver_id = ?", in.QuestionID, in.UserID).
		First(&existing).Error
	if err != nil {
		return fmt.Errorf("load wrong note: %w", err)
	}

	answers := append(datatypes.JSONSlice[string]{}, existing.Answers...)
	answers = append(answers, in.Answer)
	err = tx.Model(&WrongNote{}).Where("id = ?", existing.ID).Updates(map[string]any{
		"user_answers":   answers,
		"last_solved_at": at,
	}).Error
	if err != nil {
		return fmt.Errorf("update wrong note: %w", err)
	}
	return nil
}

func (r *attemptRepo) History(ctx context.Context, questionID uint, userID string) ([]Attempt, error) {
	var out []Attempt
	err := r.db.WithContext(ctx).
		Where("question_id = ? AND user_id = ?", questionID, userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("attempt history: %w", err)
	}
	return out, nil
}

func (r *attemptRepo) FirstAttemptStats(ctx context.Context, solverID, scopeUserID string) (FirstAttemptStats, error) {
	var stats FirstAttemptStats

	quizzes := r.db.WithContext(ctx).Model(&Quiz{})
	if scopeUserID != "" {
		quizzes = quizzes.Where("user_id = ?", scopeUserID)
	}
	if err := quizzes.Count(&stats.Total).Error; err != nil {
		return stats, fmt.Errorf("count quizzes: %w", err)
	}
	if stats.Total == 0 {
		return stats, nil
	}

	questionIDs := r.db.Model(&Question{}).Select("questions.id").
		Joins("JOIN quizzes ON quizzes.id = questions.quiz_id")
	if scopeUserID != "" {
		questionIDs = questionIDs.Where("quizzes.user_id = ?", scopeUserID)
	}

	// The first attempt per question is the one with the smallest id, since
	// attempts are append-only.
	firstIDs := r.db.Model(&Attempt{}).
		Select("MIN(id)").
		Where("user_id = ? AND question_id IN (?)", solverID, questionIDs).
		Group("question_id")

	var firsts []Attempt
	if err := r.db.WithContext(ctx).Where("id IN (?)", firstIDs).Find(&firsts).Error; err != nil {
		return stats, fmt.Errorf("first attempts: %w", err)
	}
	for _, a := range firsts {
		if a.IsCorrect {
			stats.Correct++
		}
		if a.IsWrong {
			stats.Wrong++
		}
	}
	return stats, nil
}
