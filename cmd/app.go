package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssai/ssquiz/internal/attempts"
	"github.com/ssai/ssquiz/internal/config"
	"github.com/ssai/ssquiz/internal/generation"
	"github.com/ssai/ssquiz/internal/jobs"
	"github.com/ssai/ssquiz/internal/llm"
	"github.com/ssai/ssquiz/internal/logger"
	"github.com/ssai/ssquiz/internal/maintenance"
	"github.com/ssai/ssquiz/internal/quizgen"
	"github.com/ssai/ssquiz/internal/quizview"
	"github.com/ssai/ssquiz/internal/source"
	"github.com/ssai/ssquiz/internal/store"
)

// app holds everything a command may need. Generation pieces are only set
// when the command asked for a provider.
type app struct {
	cfg  config.Config
	log  *logger.Logger
	diag *logger.Logger
	st   *store.Store

	views       *quizview.Service
	attempts    *attempts.Tracker
	jobs        *jobs.Tracker
	maintenance *maintenance.Service
	registry    *jobs.Registry

	records   *source.Dir
	workflow  *generation.Workflow
	batch     *generation.Batch
	scheduler *generation.Scheduler
}

// loadConfig reads the environment and applies the persistent flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.DB = p
	}
	if m, _ := cmd.Flags().GetString("log-mode"); m != "" {
		cfg.LogMode = m
	}
	return cfg, nil
}

// openStore opens only the database, for read-mostly commands.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := ensureDBDir(cfg.DB); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

func ensureDBDir(dsn string) error {
	if isPostgresDSN(dsn) {
		return nil
	}
	return store.EnsureDir(dsn)
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// newApp wires the services. withLLM also builds the provider and the
// generation workflow, and registers the job handlers.
func newApp(cmd *cobra.Command, withLLM bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode, logger.Options{HashUserIDs: cfg.LogHashUserIDs, HashSalt: cfg.LogHashSalt})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	if err := ensureDBDir(cfg.DB); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		diag:     logger.Nop(),
		st:       st,
		views:    quizview.NewService(st.QuizRepo(), st.AttemptRepo()),
		attempts: attempts.NewTracker(st.QuizRepo(), st.AttemptRepo(), st.WrongNoteRepo(), log),
		jobs:     jobs.NewTracker(st.JobRepo(), log),
		maintenance: maintenance.NewService(
			st.QuizRepo(), quizgen.NewChoiceNormalizer(nil), log),
		registry: jobs.NewRegistry(),
		records:  source.NewDir(cfg.RecordDir),
	}
	if !withLLM {
		return a, nil
	}

	if err := cfg.Validate(); err != nil {
		a.close()
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.DiagnosticLog != "" {
		if a.diag, err = logger.NewDiagnostic(cfg.DiagnosticLog); err != nil {
			a.close()
			return nil, err
		}
	}
	provider, err := llm.NewProvider(cmd.Context(), cfg.LLM, st.EventRepo(), log, a.diag)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("LLM provider: %w", err)
	}

	gen := quizgen.New(provider, quizgen.DefaultConfig(), quizgen.WithDiagnostics(a.diag))
	a.workflow = generation.NewWorkflow(generation.Deps{
		Source:     a.records,
		Summarizer: gen,
		Generator:  gen,
		Summaries:  source.NewSummaryWriter(cfg.SummaryDir),
		Quizzes:    st.QuizRepo(),
		Logger:     log,
	}, generation.DefaultConfig())
	a.batch = generation.NewBatch(a.workflow, a.records, st.UserRepo(), log)
	a.scheduler = generation.NewScheduler(a.records, st.UserRepo(), st.SummaryRepo(), a.workflow, cfg.ScheduleInterval, log)

	handlers := []jobs.Handler{
		jobs.NewGenerateOneHandler(a.workflow, a.views),
		jobs.NewGenerateAllHandler(a.batch),
		jobs.NewLearnHandler(
			jobs.Corpus{Root: cfg.DocsDir},
			jobs.CommandIndexer{Command: cfg.IndexerCommand, OutputDir: cfg.IndexDir},
		),
	}
	for _, h := range handlers {
		if err := a.registry.Register(h); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

// registerUser makes sure userID has a user row. A user without one is
// registered when a record file exists for them.
func (a *app) registerUser(ctx context.Context, userID string) error {
	users := a.st.UserRepo()
	_, err := users.Get(ctx, userID)
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := a.records.Latest(ctx, userID); err != nil {
		if errors.Is(err, source.ErrNoContent) {
			return fmt.Errorf("user %q: %w", userID, store.ErrNotFound)
		}
		return err
	}
	return users.Ensure(ctx, userID, "")
}

func (a *app) pool() *jobs.Pool {
	return jobs.NewPool(a.jobs, a.registry, a.cfg.Workers, a.cfg.PollInterval, a.log)
}

func (a *app) close() {
	a.log.Sync()
	a.diag.Sync()
	a.st.Close()
}

// waitFor runs queued jobs in-process until jobID is terminal.
func (a *app) waitFor(cmd *cobra.Command, jobID string) (*jobs.Snapshot, error) {
	ctx := cmd.Context()
	p := a.pool()
	for {
		snap, err := a.jobs.Get(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if snap.Status == store.JobCompleted || snap.Status == store.JobFailed {
			return snap, nil
		}
		ran, err := p.RunOnce(ctx)
		if err != nil {
			return nil, err
		}
		if !ran {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.cfg.PollInterval):
			}
		}
	}
}
