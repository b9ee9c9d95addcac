package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type quizRepo struct {
	db *gorm.DB
}

func (r *quizRepo) AllQuestionTexts(ctx context.Context) ([]string, error) {
	var texts []string
	err := r.db.WithContext(ctx).Model(&Question{}).
		Order("id").
		Pluck("question", &texts).Error
	if err != nil {
		return nil, fmt.Errorf("question texts: %w", err)
	}
	return texts, nil
}

func (r *quizRepo) RecentQuestionTexts(ctx context.Context, limit int) ([]string, error) {
	var texts []string
	q := r.db.WithContext(ctx).Model(&Question{}).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("question", &texts).Error; err != nil {
		return nil, fmt.Errorf("recent question texts: %w", err)
	}
	return texts, nil
}

func (r *quizRepo) CreateGenerated(ctx context.Context, set GeneratedSet) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		summary := set.Summary
		summary.UserID = set.UserID
		if err := tx.Create(&summary).Error; err != nil {
			return fmt.Errorf("create chat summary: %w", err)
		}

		for _, nq := range set.Quizzes {
			quiz := Quiz{UserID: set.UserID, Link: nq.Link}
			if err := tx.Create(&quiz).Error; err != nil {
				return fmt.Errorf("create quiz: %w", err)
			}

			question := Question{
				QuizID:      quiz.ID,
				Text:        nq.Question,
				Choices:     datatypes.JSONSlice[string](nonNil(nq.Choices)),
				Correct:     nq.Correct,
				Wrong:       datatypes.JSONSlice[string](nonNil(nq.Wrong)),
				Explanation: nq.Explanation,
				Reference:   nq.Reference,
			}
			if err := tx.Create(&question).Error; err != nil {
				return fmt.Errorf("create question: %w", err)
			}

			title := fmt.Sprintf("quiz%d", quiz.ID)
			if err := tx.Model(&Quiz{}).Where("id = ?", quiz.ID).Update("title", title).Error; err != nil {
				return fmt.Errorf("set quiz title: %w", err)
			}

			if nq.Correct != "" {
				ca := CorrectAnswer{QuizID: quiz.ID, QuestionID: question.ID, AnswerText: nq.Correct}
				if err := tx.Create(&ca).Error; err != nil {
					return fmt.Errorf("create correct answer: %w", err)
				}
			}
			for _, w := range lo.Compact(nq.Wrong) {
				wa := WrongAnswer{QuizID: quiz.ID, QuestionID: question.ID, AnswerText: w}
				if err := tx.Create(&wa).Error; err != nil {
					return fmt.Errorf("create wrong answer: %w", err)
				}
			}
			ids = append(ids, quiz.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *quizRepo) Get(ctx context.Context, id uint) (*QuizRecord, error) {
	var quiz Quiz
	err := r.db.WithContext(ctx).First(&quiz, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	var question Question
	err = r.db.WithContext(ctx).Where("quiz_id = ?", id).Order("id").First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &QuizRecord{Quiz: quiz, Question: question}, nil
}

func (r *quizRepo) ListOldestFirst(ctx context.Context) ([]QuizRecord, error) {
	return r.list(ctx, "created_at ASC, id ASC")
}

func (r *quizRepo) ListNewestFirst(ctx context.Context) ([]QuizRecord, error) {
	return r.list(ctx, "created_at DESC, id DESC")
}

// list loads quizzes in the given order joined with their question. Quizzes
// without a question are left out.
func (r *quizRepo) list(ctx context.Context, order string) ([]QuizRecord, error) {
	var quizzes []Quiz
	if err := r.db.WithContext(ctx).Order(order).Find(&quizzes).Error; err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	if len(quizzes) == 0 {
		return nil, nil
	}

	var questions []Question
	quizIDs := lo.Map(quizzes, func(q Quiz, _ int) uint { return q.ID })
	if err := r.db.WithContext(ctx).Where("quiz_id IN ?", quizIDs).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	byQuiz := lo.KeyBy(questions, func(q Question) uint { return q.QuizID })

	out := make([]QuizRecord, 0, len(quizzes))
	for _, quiz := range quizzes {
		question, ok := byQuiz[quiz.ID]
		if !ok {
			continue
		}
		out = append(out, QuizRecord{Quiz: quiz, Question: question})
	}
	return out, nil
}

func (r *quizRepo) UpdateChoices(ctx context.Context, questionID uint, choices []string) error {
	res := r.db.WithContext(ctx).Model(&Question{}).
		Where("id = ?", questionID).
		Update("choices", datatypes.JSONSlice[string](nonNil(choices)))
	if res.Error != nil {
		return fmt.Errorf("update choices: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *quizRepo) Update(ctx context.Context, id uint, patch QuizPatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var quiz Quiz
		err := tx.First(&quiz, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get quiz: %w", err)
		}

		quizUpdates := map[string]any{}
		if patch.Title != nil {
			quizUpdates["title"] = *patch.Title
		}
		if patch.Link != nil {
			quizUpdates["link"] = *patch.Link
		}
		if len(quizUpdates) > 0 {
			if err := tx.Model(&Quiz{}).Where("id = ?", id).Updates(quizUpdates).Error; err != nil {
				return fmt.Errorf("update quiz: %w", err)
			}
		}

		questionUpdates := map[string]any{}
		if patch.Question != nil {
			questionUpdates["question"] = *patch.Question
		}
		if patch.Choices != nil {
			questionUpdates["choices"] = datatypes.JSONSlice[string](nonNil(*patch.Choices))
		}
		if patch.Correct != nil {
			questionUpdates["correct"] = *patch.Correct
		}
		if patch.Wrong != nil {
			questionUpdates["wrong"] = datatypes.JSONSlice[string](nonNil(*patch.Wrong))
		}
		if patch.Explanation != nil {
			questionUpdates["explanation"] = *patch.Explanation
		}
		if patch.Reference != nil {
			questionUpdates["reference"] = *patch.Reference
		}
		if len(questionUpdates) == 0 {
			return nil
		}
		res := tx.Model(&Question{}).Where("quiz_id = ?", id).Updates(questionUpdates)
		if res.Error != nil {
			return fmt.Errorf("update question: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Delete removes dependents explicitly in dependency order: wrong notes,
// attempts and answer-choice records, the question, then the quiz.
func (r *quizRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var questionIDs []uint
		if err := tx.Model(&Question{}).Where("quiz_id = ?", id).Pluck("id", &questionIDs).Error; err != nil {
			return fmt.Errorf("question ids: %w", err)
		}

		if len(questionIDs) > 0 {
			steps := []struct {
				name  string
				model any
			}{
				{"wrong notes", &WrongNote{}},
				{"attempts", &Attempt{}},
				{"correct answers", &CorrectAnswer{}},
				{"wrong answers", &WrongAnswer{}},
			}
			for _, s := range steps {
				if err := tx.Where("question_id IN ?", questionIDs).Delete(s.model).Error; err != nil {
					return fmt.Errorf("delete %s: %w", s.name, err)
				}
			}
			if err := tx.Where("id IN ?", questionIDs).Delete(&Question{}).Error; err != nil {
				return fmt.Errorf("delete question: %w", err)
			}
		}

		res := tx.Delete(&Quiz{}, id)
		if res.Error != nil {
			return fmt.Errorf("delete quiz: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *quizRepo) scope(ctx context.Context, userID string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&Quiz{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	return q
}

func (r *quizRepo) firstID(q *gorm.DB, order string) (uint, error) {
	var ids []uint
	if err := q.Order(order).Limit(1).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("navigate quizzes: %w", err)
	}
	if len(ids) == 0 {
		return 0, ErrNotFound
	}
	return ids[0], nil
}

func (r *quizRepo) LatestID(ctx context.Context, userID string) (uint, error) {
	return r.firstID(r.scope(ctx, userID), "created_at DESC, id DESC")
}

func (r *quizRepo) FirstID(ctx context.Context, userID string) (uint, error) {
	return r.firstID(r.scope(ctx, userID), "created_at ASC, id ASC")
}

func (r *quizRepo) NextID(ctx context.Context, userID string, afterID uint) (uint, error) {
	return r.firstID(r.scope(ctx, userID).Where("id > ?", afterID), "id ASC")
}

func (r *quizRepo) PrevID(ctx context.Context, userID string, beforeID uint) (uint, error) {
	return r.firstID(r.scope(ctx, userID).Where("id < ?", beforeID), "id DESC")
}

func (r *quizRepo) Position(ctx context.Context, userID string, quizID uint) (int64, int64, error) {
	var total int64
	if err := r.scope(ctx, userID).Count(&total).Error; err != nil {
		return 0, 0, fmt.Errorf("count quizzes: %w", err)
	}
	if total == 0 {
		return 0, 0, nil
	}
	var index int64
	if err := r.scope(ctx, userID).Where("id <= ?", quizID).Count(&index).Error; err != nil {
		return 0, 0, fmt.Errorf("quiz position: %w", err)
	}
	return index, total, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
