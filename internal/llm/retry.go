package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ssai/ssquiz/internal/logger"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ResilientGenerator wraps a Provider with the retry policy for the
// external call: exponential backoff on rate limits and transient errors
// and an early stop on quota exhaustion. Parsing the reply is the caller's
// concern, so a well-formed call that returns junk is never retried here.
type ResilientGenerator struct {
	inner  Provider
	config RetryConfig
	sleep  Sleeper
	diag   *logger.Logger
}

// Option customizes a ResilientGenerator.
type Option func(*ResilientGenerator)

// WithSleeper replaces the real timer, mainly for tests.
func WithSleeper(s Sleeper) Option {
	return func(g *ResilientGenerator) { g.sleep = s }
}

// WithDiagnostics sends each failed attempt to the diagnostic side log.
func WithDiagnostics(l *logger.Logger) Option {
	return func(g *ResilientGenerator) {
		if l != nil {
			g.diag = l
		}
	}
}

// NewResilientGenerator wraps p with the given retry policy.
func NewResilientGenerator(p Provider, cfg RetryConfig, opts ...Option) *ResilientGenerator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().Retry.MaxRetries
	}
	g := &ResilientGenerator{inner: p, config: cfg, sleep: sleepCtx, diag: logger.Nop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Result is the outcome of a retried call.
type Result struct {
	Response *Response
	Attempts int
	Delays   []time.Duration
}

type verdict int

const (
	verdictRetry verdict = iota
	verdictGiveUp
)

// Do runs the call loop. The returned error is a *ProviderError or the
// context error.
func (g *ResilientGenerator) Do(ctx context.Context, req Request) (Result, error) {
	var res Result

	for attempt := 0; ; attempt++ {
		resp, err := g.attempt(ctx, req)
		res.Attempts = attempt + 1
		if err == nil {
			res.Response = resp
			return res, nil
		}

		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		perr := classify(err)
		v, delay := g.next(attempt, perr.Kind)
		g.diag.Warn("llm call failed",
			"purpose", string(PurposeFrom(ctx)),
			"model", g.inner.ModelID(),
			"attempt", attempt+1,
			"kind", string(perr.Kind),
			"next_delay", delay.String(),
			"give_up", v == verdictGiveUp,
			"messages", transcript(req),
			"error", err.Error(),
		)
		if v == verdictGiveUp {
			return res, perr
		}

		res.Delays = append(res.Delays, delay)
		if err := g.sleep(ctx, delay); err != nil {
			return res, err
		}
	}
}

// next decides what follows a failed attempt (0-based) of the given kind.
func (g *ResilientGenerator) next(attempt int, kind ErrorKind) (verdict, time.Duration) {
	limit := g.config.MaxRetries
	if kind == KindQuotaExhausted {
		// Waiting does not refill a quota.
		limit = max(1, g.config.MaxRetries-2)
	}
	if attempt+1 >= limit {
		return verdictGiveUp, 0
	}
	return verdictRetry, g.backoff(attempt)
}

func (g *ResilientGenerator) backoff(attempt int) time.Duration {
	d := g.config.BaseDelay << attempt
	if g.config.MaxDelay > 0 && d > g.config.MaxDelay {
		d = g.config.MaxDelay
	}
	return d
}

func (g *ResilientGenerator) attempt(ctx context.Context, req Request) (*Response, error) {
	if g.config.AttemptTimeout <= 0 {
		return g.inner.Generate(ctx, req)
	}
	actx, cancel := context.WithTimeout(ctx, g.config.AttemptTimeout)
	defer cancel()
	return g.inner.Generate(actx, req)
}

// classify maps any call error onto a ProviderError. Unknown errors,
// including a per-attempt timeout, count as transient.
func classify(err error) *ProviderError {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	if isContextErr(err) {
		return &ProviderError{Kind: KindTransient, Err: fmt.Errorf("attempt timed out: %w", err)}
	}
	return &ProviderError{Kind: KindTransient, Err: err}
}

// Generate implements Provider.
func (g *ResilientGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	res, err := g.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Response, nil
}

// Call returns the response text of a retried call.
func (g *ResilientGenerator) Call(ctx context.Context, req Request) (string, error) {
	resp, err := g.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func (g *ResilientGenerator) ModelID() string {
	return g.inner.ModelID()
}
