package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/store"
)

const genericJobFailure = "job failed"

// Failure carries the user-safe reason a handler wants shown to pollers
// alongside the underlying error.
type Failure struct {
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Reason
	}
	return f.Reason + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

func fail(reason string, err error) error { return &Failure{Reason: reason, Err: err} }

// Reason extracts the text a failed job is stored with.
func Reason(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return apperr.UserMessage(err, genericJobFailure)
}

// Pool claims pending jobs and runs them on a fixed number of goroutines.
type Pool struct {
	tracker  *Tracker
	registry *Registry
	workers  int
	poll     time.Duration
	log      *logger.Logger
}

func NewPool(tracker *Tracker, registry *Registry, workers int, poll time.Duration, log *logger.Logger) *Pool {
	if log == nil {
		log = logger.Nop()
	}
	return &Pool{
		tracker:  tracker,
		registry: registry,
		workers:  max(workers, 1),
		poll:     max(poll, 10*time.Millisecond),
		log:      log.With("component", "job_pool"),
	}
}

// Run blocks until ctx is done. A job already running when ctx ends is
// finished first.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("starting job pool", "workers", p.workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := range p.workers {
		workerID := i + 1
		g.Go(func() error {
			p.loop(ctx, workerID)
			return nil
		})
	}
	return g.Wait()
}

func (p *Pool) loop(ctx context.Context, workerID int) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.log.Info("job worker stopped", "worker_id", workerID)
			return
		case <-ticker.C:
			// Drain the queue before waiting for the next tick.
			for ctx.Err() == nil {
				ran, err := p.RunOnce(ctx)
				if err != nil {
					p.log.Warn("claim job failed", "worker_id", workerID, "error", err)
					break
				}
				if !ran {
					break
				}
			}
		}
	}
}

// RunOnce claims the oldest pending job and runs it to completion. It
// reports whether a job was claimed.
func (p *Pool) RunOnce(ctx context.Context) (bool, error) {
	job, err := p.tracker.repo.ClaimNext(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	p.execute(context.WithoutCancel(ctx), job)
	return true, nil
}

func (p *Pool) execute(ctx context.Context, job *store.Job) {
	log := p.log.With("job_id", job.ID, "kind", job.Kind)
	jc := &Context{Ctx: ctx, Job: job, Log: log, tracker: p.tracker}

	h, ok := p.registry.Get(job.Kind)
	if !ok {
		log.Warn("no handler registered for job kind")
		p.finish(ctx, log, job.ID, nil, fmt.Errorf("no handler for kind %q", job.Kind))
		return
	}

	start := time.Now()
	result, err := p.runHandler(h, jc)
	log.Info("job finished", "duration_ms", time.Since(start).Milliseconds(), "ok", err == nil)
	p.finish(ctx, log, job.ID, result, err)
}

func (p *Pool) runHandler(h Handler, jc *Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			jc.Log.Error("job handler panic", "panic", r)
			result, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return h.Run(jc)
}

func (p *Pool) finish(ctx context.Context, log *logger.Logger, id string, result any, runErr error) {
	var err error
	if runErr != nil {
		log.Warn("job failed", "error", runErr)
		err = p.tracker.Fail(ctx, id, Reason(runErr))
	} else {
		err = p.tracker.Complete(ctx, id, result, completeMessage(result))
	}
	if err != nil {
		log.Error("record job outcome failed", "error", err)
	}
}

// messenger lets a result pick the completion message.
type messenger interface {
	CompletionMessage() string
}

func completeMessage(result any) string {
	if m, ok := result.(messenger); ok {
		return m.CompletionMessage()
	}
	return "completed"
}
