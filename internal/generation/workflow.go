// Package generation runs quiz generation for one user, for all users and
// on a schedule.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ssai/ssquiz/internal/apperr"
	"github.com/ssai/ssquiz/internal/dedup"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/quizgen"
	"github.com/ssai/ssquiz/internal/source"
	"github.com/ssai/ssquiz/internal/store"
)

// Progress receives completion percentages as the workflow advances.
type Progress func(ctx context.Context, pct int)

// ContentSource yields the newest conversation record of a user.
type ContentSource interface {
	Latest(ctx context.Context, userID string) (*source.Content, error)
}

// SummarySink stores summary text and returns where it went.
type SummarySink interface {
	Write(userID, summary string, at time.Time) (string, error)
}

// QuizStore is the part of store.QuizRepo the workflow writes through.
type QuizStore interface {
	AllQuestionTexts(ctx context.Context) ([]string, error)
	RecentQuestionTexts(ctx context.Context, limit int) ([]string, error)
	CreateGenerated(ctx context.Context, set store.GeneratedSet) ([]uint, error)
}

// Config bounds one generation run.
type Config struct {
	// MaxAttempts is the number of batch requests before giving up.
	MaxAttempts int

	// MinAccepted stops the attempt loop once reached.
	MinAccepted int

	// MaxAccepted caps how many candidates one run persists.
	MaxAccepted int

	// MaxAvoid is how many recent questions go into the prompt.
	MaxAvoid int
}

func DefaultConfig() Config {
	return Config{MaxAttempts: 5, MinAccepted: 3, MaxAccepted: 5, MaxAvoid: 20}
}

// Outcome describes a successful run.
type Outcome struct {
	QuizIDs     []uint
	SummaryPath string
	Attempts    int
	Duplicates  int
	Invalid     int
}

// FirstQuizID is the quiz a single-user job reports back.
func (o *Outcome) FirstQuizID() uint {
	if o == nil || len(o.QuizIDs) == 0 {
		return 0
	}
	return o.QuizIDs[0]
}

// Workflow generates and persists a quiz set for one user.
type Workflow struct {
	source     ContentSource
	summarizer quizgen.Summarizer
	generator  quizgen.Generator
	summaries  SummarySink
	quizzes    QuizStore
	config     Config
	log        *logger.Logger
	now        func() time.Time
}

// Deps are the collaborators of a Workflow.
type Deps struct {
	Source     ContentSource
	Summarizer quizgen.Summarizer
	Generator  quizgen.Generator
	Summaries  SummarySink
	Quizzes    QuizStore
	Logger     *logger.Logger
	Now        func() time.Time
}

func NewWorkflow(d Deps, cfg Config) *Workflow {
	w := &Workflow{
		source:     d.Source,
		summarizer: d.Summarizer,
		generator:  d.Generator,
		summaries:  d.Summaries,
		quizzes:    d.Quizzes,
		config:     cfg,
		log:        d.Logger,
		now:        d.Now,
	}
	if w.log == nil {
		w.log = logger.Nop()
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Run fetches the user's latest record, summarizes it, collects
// non-duplicate candidates over up to MaxAttempts batches and persists them
// with the summary in one transaction. Nothing is written unless at least
// one candidate was accepted.
func (w *Workflow) Run(ctx context.Context, userID string, progress Progress) (*Outcome, error) {
	if progress == nil {
		progress = func(context.Context, int) {}
	}
	log := w.log.With("user_id", userID)

	content, err := w.source.Latest(ctx, userID)
	if errors.Is(err, source.ErrNoContent) {
		return nil, apperr.NotFound("no conversation record")
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation record: %w", err)
	}
	progress(ctx, 5)

	summaryDate := w.now()
	summary, err := w.summarizer.Summarize(ctx, content.Text, summaryDate)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	progress(ctx, 20)

	known, err := w.quizzes.AllQuestionTexts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load known questions: %w", err)
	}
	guard := dedup.NewGuard()
	guard.Seed(known)

	avoid, err := w.quizzes.RecentQuestionTexts(ctx, w.config.MaxAvoid)
	if err != nil {
		return nil, fmt.Errorf("load recent questions: %w", err)
	}

	out := &Outcome{}
	var accepted []quizgen.Candidate
	rejected := 0

	for attempt := 0; attempt < w.config.MaxAttempts; attempt++ {
		out.Attempts = attempt + 1
		batch, err := w.generator.Generate(ctx, quizgen.GenerateInput{Summary: summary, Avoid: avoid})
		if err != nil {
			return nil, fmt.Errorf("generate attempt %d: %w", attempt+1, err)
		}
		rejected += len(batch.Rejected)
		for _, r := range batch.Rejected {
			log.Debug("candidate rejected", "attempt", attempt+1, "reason", r.Error())
		}

		for _, c := range batch.Candidates {
			if len(accepted) >= w.config.MaxAccepted {
				break
			}
			if guard.Accept(c.Question) != dedup.Accepted {
				continue
			}
			accepted = append(accepted, c)
			avoid = append([]string{c.Question}, avoid...)
		}

		if len(accepted) >= w.config.MinAccepted {
			break
		}
		progress(ctx, 20+(attempt+1)*40/w.config.MaxAttempts)
	}
	out.Duplicates = guard.Duplicates()
	out.Invalid = guard.Invalid() + rejected

	if len(accepted) == 0 {
		log.Warn("no quiz accepted", "attempts", out.Attempts, "duplicates", out.Duplicates, "invalid", out.Invalid)
		if out.Duplicates > 0 && out.Invalid == 0 {
			return nil, apperr.Conflict("a near-duplicate question set already exists")
		}
		return nil, apperr.Internal("quiz generation failed", errors.New("no usable candidates"))
	}

	path, err := w.summaries.Write(userID, summary, summaryDate)
	if err != nil {
		return nil, fmt.Errorf("save summary: %w", err)
	}
	out.SummaryPath = path

	set := store.GeneratedSet{
		UserID:  userID,
		Summary: store.ChatSummary{UserID: userID, FilePath: path, SummaryDate: summaryDate},
		Quizzes: make([]store.NewQuiz, 0, len(accepted)),
	}
	for _, c := range accepted {
		set.Quizzes = append(set.Quizzes, store.NewQuiz{
			Link:        c.Link,
			Question:    c.Question,
			Choices:     c.Choices,
			Correct:     c.Correct(),
			Wrong:       c.Wrong(),
			Explanation: c.Explanation,
			Reference:   c.Reference,
		})
	}
	ids, err := w.quizzes.CreateGenerated(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("persist quizzes: %w", err)
	}
	out.QuizIDs = ids
	progress(ctx, 90)

	log.Info("quizzes generated",
		"created", len(ids),
		"attempts", out.Attempts,
		"duplicates", out.Duplicates,
		"invalid", out.Invalid,
	)
	progress(ctx, 100)
	return out, nil
}
