package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/source"
	"github.com/ssai/ssquiz/internal/store"
)

// RecordDir is the view of the record directory the scheduler needs.
type RecordDir interface {
	Users() ([]string, error)
	Latest(ctx context.Context, userID string) (*source.Content, error)
}

// SummaryLookup returns the newest summary record of a user.
type SummaryLookup interface {
	Latest(ctx context.Context, userID string) (*store.ChatSummary, error)
}

// ScheduleReport summarizes one periodic pass.
type ScheduleReport struct {
	Generated []string
	Skipped   []string
	Failed    []UserFailure
}

// Scheduler generates quizzes for users whose newest record has not been
// summarized yet.
type Scheduler struct {
	records   RecordDir
	users     UserEnsurer
	summaries SummaryLookup
	runner    Runner
	interval  time.Duration
	log       *logger.Logger
}

func NewScheduler(records RecordDir, users UserEnsurer, summaries SummaryLookup, runner Runner, interval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		records:   records,
		users:     users,
		summaries: summaries,
		runner:    runner,
		interval:  interval,
		log:       log,
	}
}

// Start runs a pass every interval until ctx is cancelled. A non-positive
// interval returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rep, err := s.RunOnce(ctx)
			if err != nil {
				s.log.Error("scheduled generation failed", "error", err.Error())
				continue
			}
			s.log.Info("scheduled generation done",
				"generated", len(rep.Generated),
				"skipped", len(rep.Skipped),
				"failed", len(rep.Failed),
			)
		}
	}
}

// RunOnce makes a single pass over the record directories, registering
// each directory's user first. Directories without a record, with a blank
// record or whose record is not newer than the last summary are skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (*ScheduleReport, error) {
	ids, err := s.records.Users()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if err := s.users.Ensure(ctx, id, ""); err != nil {
			return nil, fmt.Errorf("register user %s: %w", id, err)
		}
	}

	rep := &ScheduleReport{}
	for _, id := range ids {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		due, err := s.due(ctx, id)
		if err != nil {
			return rep, err
		}
		if !due {
			rep.Skipped = append(rep.Skipped, id)
			continue
		}
		if _, err := s.runner.Run(ctx, id, nil); err != nil {
			s.log.Warn("scheduled generation failed", "user_id", id, "error", err.Error())
			rep.Failed = append(rep.Failed, UserFailure{UserID: id, Reason: FailureMessage(err)})
			continue
		}
		rep.Generated = append(rep.Generated, id)
	}
	return rep, nil
}

func (s *Scheduler) due(ctx context.Context, userID string) (bool, error) {
	content, err := s.records.Latest(ctx, userID)
	if errors.Is(err, source.ErrNoContent) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	last, err := s.summaries.Latest(ctx, userID)
	if err != nil {
		return false, err
	}
	if last != nil && !last.SummaryDate.Before(content.ModTime) {
		return false, nil
	}
	return strings.TrimSpace(content.Text) != "", nil
}
