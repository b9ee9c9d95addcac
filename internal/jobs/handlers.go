package jobs

import (
	"context"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/generation"
	"github.com/ssai/ssquiz/internal/quizview"
	"github.com/ssai/ssquiz/internal/store"
)

// GenerateOneParams is the payload of a generate-one job.
type GenerateOneParams struct {
	UserID string `json:"user_id"`
}

// EnqueueGenerateOne queues quiz generation for one user.
func (t *Tracker) EnqueueGenerateOne(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", apperr.Invalid("user_id is required")
	}
	return t.Create(ctx, KindGenerateOne, GenerateOneParams{UserID: userID})
}

// EnqueueGenerateAll queues quiz generation for every user.
func (t *Tracker) EnqueueGenerateAll(ctx context.Context) (string, error) {
	return t.Create(ctx, KindGenerateAll, nil)
}

// EnqueueLearn queues corpus learning unless a learn job is already
// waiting or running.
func (t *Tracker) EnqueueLearn(ctx context.Context) (string, error) {
	latest, err := t.repo.LatestOfKind(ctx, KindLearnCorpus)
	if err != nil {
		return "", err
	}
	if latest != nil && (latest.Status == store.JobPending || latest.Status == store.JobRunning) {
		return "", apperr.Conflict("learning is already in progress")
	}
	return t.Create(ctx, KindLearnCorpus, nil)
}

// AdminViewer renders a quiz with its author.
type AdminViewer interface {
	Admin(ctx context.Context, quizID uint) (*quizview.AdminView, error)
}

// GeneratedQuiz is the generate-one result: the first created quiz.
type GeneratedQuiz struct {
	*quizview.AdminView
}

func (GeneratedQuiz) CompletionMessage() string { return "quiz generated" }

type generateOneHandler struct {
	runner generation.Runner
	views  AdminViewer
}

func NewGenerateOneHandler(runner generation.Runner, views AdminViewer) Handler {
	return &generateOneHandler{runner: runner, views: views}
}

func (h *generateOneHandler) Kind() string { return KindGenerateOne }

func (h *generateOneHandler) Run(jc *Context) (any, error) {
	var params GenerateOneParams
	if err := jc.DecodeParams(&params); err != nil {
		return nil, fail(genericJobFailure, err)
	}
	if params.UserID == "" {
		return nil, apperr.Invalid("user_id is required")
	}

	out, err := h.runner.Run(jc.Ctx, params.UserID, func(_ context.Context, p int) {
		jc.Progress(p, "")
	})
	if err != nil {
		return nil, fail(generation.FailureMessage(err), err)
	}
	view, err := h.views.Admin(jc.Ctx, out.FirstQuizID())
	if err != nil {
		return nil, fail(genericJobFailure, err)
	}
	return GeneratedQuiz{AdminView: view}, nil
}

// BatchRunner runs the workflow for every user.
type BatchRunner interface {
	RunAll(ctx context.Context, progress generation.Progress) (*generation.BatchResult, error)
}

// GeneratedBatch is the generate-all result.
type GeneratedBatch struct {
	*generation.BatchResult
}

func (GeneratedBatch) CompletionMessage() string { return "generation complete" }

type generateAllHandler struct {
	batch BatchRunner
}

func NewGenerateAllHandler(batch BatchRunner) Handler {
	return &generateAllHandler{batch: batch}
}

func (h *generateAllHandler) Kind() string { return KindGenerateAll }

func (h *generateAllHandler) Run(jc *Context) (any, error) {
	res, err := h.batch.RunAll(jc.Ctx, func(_ context.Context, p int) {
		jc.Progress(p, "")
	})
	if err != nil {
		return nil, fail(generation.FailureMessage(err), err)
	}
	return GeneratedBatch{BatchResult: res}, nil
}
