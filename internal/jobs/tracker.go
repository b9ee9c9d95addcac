// Package jobs runs background work that clients enqueue and poll by id.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

// Job kinds.
const (
	KindGenerateOne = "generate-one"
	KindGenerateAll = "generate-all"
	KindLearnCorpus = "learn-corpus"
)

// Snapshot is a job as seen by a poller.
type Snapshot struct {
	ID        string          `json:"job_id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status"`
	Progress  int             `json:"progress"`
	Message   string          `json:"message"`
	Result    json.RawMessage `json:"result"`
	Error     string          `json:"error"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Tracker owns job state. Every read goes to the store so pollers see
// progress as soon as it is written.
type Tracker struct {
	repo store.JobRepo
	log  *logger.Logger
}

func NewTracker(repo store.JobRepo, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{repo: repo, log: log.With("component", "jobs")}
}

// Create stores a pending job with progress 0 and returns its id.
func (t *Tracker) Create(ctx context.Context, kind string, params any) (string, error) {
	var raw datatypes.JSON
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("encode %s params: %w", kind, err)
		}
		raw = b
	}
	job := &store.Job{
		ID:     uuid.NewString(),
		Kind:   kind,
		Status: store.JobPending,
		Params: raw,
	}
	if err := t.repo.Create(ctx, job); err != nil {
		return "", err
	}
	t.log.Info("job enqueued", "job_id", job.ID, "kind", kind)
	return job.ID, nil
}

// MarkRunning moves a pending job to running. Other states are left alone.
func (t *Tracker) MarkRunning(ctx context.Context, id string) error {
	_, err := t.repo.MarkRunning(ctx, id)
	return err
}

// SetProgress clamps p to [0,100]. Lower values than the stored progress
// and updates to terminal jobs are ignored.
func (t *Tracker) SetProgress(ctx context.Context, id string, p int, message string) error {
	p = max(0, min(100, p))
	_, err := t.repo.SetProgress(ctx, id, p, message)
	return err
}

// Complete finishes the job with result encoded as JSON.
func (t *Tracker) Complete(ctx context.Context, id string, result any, message string) error {
	var raw datatypes.JSON
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encode job result: %w", err)
		}
		raw = b
	}
	ok, err := t.repo.Finish(ctx, id, store.JobCompleted, raw, "", message)
	if err != nil {
		return err
	}
	if !ok {
		t.log.Warn("job already terminal", "job_id", id, "status", store.JobCompleted)
	}
	return nil
}

// Fail finishes the job with a user-safe reason.
func (t *Tracker) Fail(ctx context.Context, id, reason string) error {
	ok, err := t.repo.Finish(ctx, id, store.JobFailed, nil, reason, reason)
	if err != nil {
		return err
	}
	if !ok {
		t.log.Warn("job already terminal", "job_id", id, "status", store.JobFailed)
	}
	return nil
}

// Get returns the current state of a job.
func (t *Tracker) Get(ctx context.Context, id string) (*Snapshot, error) {
	job, err := t.repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("job not found")
	}
	if err != nil {
		return nil, err
	}
	return snapshot(job), nil
}

// Latest returns the newest job of kind, or nil when none was ever created.
func (t *Tracker) Latest(ctx context.Context, kind string) (*Snapshot, error) {
	job, err := t.repo.LatestOfKind(ctx, kind)
	if err != nil || job == nil {
		return nil, err
	}
	return snapshot(job), nil
}

func snapshot(job *store.Job) *Snapshot {
	s := &Snapshot{
		ID:        job.ID,
		Kind:      job.Kind,
		Status:    job.Status,
		Progress:  job.Progress,
		Message:   job.Message,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
	}
	if len(job.Result) > 0 {
		s.Result = json.RawMessage(job.Result)
	}
	return s
}
