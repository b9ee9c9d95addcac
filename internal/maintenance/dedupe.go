// Package maintenance holds admin operations over the stored quiz set.
package maintenance

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/ssai/ssquiz/internal/dedup"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

// QuizSet is the part of store.QuizRepo maintenance works on.
type QuizSet interface {
	Get(ctx context.Context, id uint) (*store.QuizRecord, error)
	ListOldestFirst(ctx context.Context) ([]store.QuizRecord, error)
	UpdateChoices(ctx context.Context, questionID uint, choices []string) error
	Delete(ctx context.Context, id uint) error
}

// DedupeReport summarizes one dedupe pass.
type DedupeReport struct {
	Removed    int    `json:"removed"`
	RemovedIDs []uint `json:"removed_ids"`
	Kept       int    `json:"kept"`
}

type Service struct {
	quizzes QuizSet
	mixer   Mixer
	log     *logger.Logger
}

func NewService(quizzes QuizSet, mixer Mixer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{quizzes: quizzes, mixer: mixer, log: log.With("component", "maintenance")}
}

// Dedupe walks quizzes oldest first and deletes each one whose question is
// similar to an earlier kept question. Questions that normalize to nothing
// are neither kept nor removed.
func (s *Service) Dedupe(ctx context.Context) (*DedupeReport, error) {
	recs, err := s.quizzes.ListOldestFirst(ctx)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}

	var kept []string
	report := &DedupeReport{RemovedIDs: []uint{}}
	for _, rec := range recs {
		text := dedup.Normalize(rec.Question.Text)
		if text == "" {
			continue
		}
		if lo.ContainsBy(kept, func(k string) bool { return dedup.IsSimilar(k, text) }) {
			if err := s.quizzes.Delete(ctx, rec.Quiz.ID); err != nil {
				return nil, fmt.Errorf("delete quiz %d: %w", rec.Quiz.ID, err)
			}
			report.RemovedIDs = append(report.RemovedIDs, rec.Quiz.ID)
			continue
		}
		kept = append(kept, text)
	}
	report.Removed = len(report.RemovedIDs)
	report.Kept = len(kept)
	s.log.Info("dedupe finished", "removed", report.Removed, "kept", report.Kept)
	return report, nil
}
