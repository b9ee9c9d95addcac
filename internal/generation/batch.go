package generation

import (
	"context"
	"fmt"

	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

// Runner runs the single-user workflow. *Workflow implements it.
type Runner interface {
	Run(ctx context.Context, userID string, progress Progress) (*Outcome, error)
}

// UserRegistry registers users and lists every known one.
type UserRegistry interface {
	Ensure(ctx context.Context, id, name string) error
	List(ctx context.Context) ([]store.User, error)
}

// RecordUsers lists the users that have a record directory.
type RecordUsers interface {
	Users() ([]string, error)
}

// UserFailure is one user the batch could not generate for.
type UserFailure struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of a generate-all run.
type BatchResult struct {
	Created int           `json:"created"`
	Failed  []UserFailure `json:"failed"`
}

// Batch runs the workflow for every user in turn. A failing user is
// recorded and the run moves on.
type Batch struct {
	runner  Runner
	records RecordUsers
	users   UserRegistry
	log     *logger.Logger
}

func NewBatch(runner Runner, records RecordUsers, users UserRegistry, log *logger.Logger) *Batch {
	if log == nil {
		log = logger.Nop()
	}
	return &Batch{runner: runner, records: records, users: users, log: log}
}

// RunAll registers every user with a record directory, then runs the
// workflow for all known users. Progress is the share of users processed.
func (b *Batch) RunAll(ctx context.Context, progress Progress) (*BatchResult, error) {
	if progress == nil {
		progress = func(context.Context, int) {}
	}
	if err := registerRecordUsers(ctx, b.records, b.users); err != nil {
		return nil, err
	}
	users, err := b.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	res := &BatchResult{Failed: []UserFailure{}}
	total := max(len(users), 1)
	for i, u := range users {
		if _, err := b.runner.Run(ctx, u.ID, nil); err != nil {
			b.log.Warn("generation failed", "user_id", u.ID, "error", err.Error())
			res.Failed = append(res.Failed, UserFailure{UserID: u.ID, Reason: FailureMessage(err)})
		} else {
			res.Created++
		}
		progress(ctx, (i+1)*100/total)
	}
	return res, nil
}

// UserEnsurer creates a user row when it is missing.
type UserEnsurer interface {
	Ensure(ctx context.Context, id, name string) error
}

func registerRecordUsers(ctx context.Context, records RecordUsers, users UserEnsurer) error {
	ids, err := records.Users()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := users.Ensure(ctx, id, ""); err != nil {
			return fmt.Errorf("register user %s: %w", id, err)
		}
	}
	return nil
}
