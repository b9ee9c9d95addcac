// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ssai/ssquiz/internal/llm"
	"github.com/ssai/ssquiz/internal/store"
)

type Config struct {
	// DB is a SQLite path or a postgres:// URL.
	DB string

	HTTPAddr    string
	CORSOrigins []string

	LogMode        string
	LogHashUserIDs bool
	LogHashSalt    string
	DiagnosticLog  string

	// RecordDir holds <user>/<user>-*.txt conversation records.
	RecordDir string
	// SummaryDir receives <user>/<user>-YYYY-MM-DD-HHMM_sum.txt files.
	SummaryDir string
	// DocsDir is the corpus the learn job indexes; IndexDir its output.
	DocsDir  string
	IndexDir string
	// IndexerCommand is run by the learn job, split on whitespace.
	IndexerCommand []string

	Workers          int
	PollInterval     time.Duration
	ScheduleInterval time.Duration // zero disables the periodic run

	LLM llm.Config
}

// Load reads envFile (if present) into the process environment and builds
// a Config. Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from SSQUIZ_* variables.
func FromEnv() (Config, error) {
	cfg := Config{
		DB:               os.Getenv("SSQUIZ_DB"),
		HTTPAddr:         getEnv("SSQUIZ_HTTP_ADDR", ":8080"),
		CORSOrigins:      splitList(getEnv("SSQUIZ_CORS_ORIGINS", "*")),
		LogMode:          getEnv("SSQUIZ_LOG_MODE", "production"),
		LogHashUserIDs:   getBool("LOG_HASH_USER_IDS", false),
		LogHashSalt:      os.Getenv("LOG_HASH_SALT"),
		DiagnosticLog:    getEnv("SSQUIZ_DIAGNOSTIC_LOG", "logs/diagnostic.jsonl"),
		RecordDir:        getEnv("SSQUIZ_RECORD_DIR", "data/records"),
		SummaryDir:       getEnv("SSQUIZ_SUMMARY_DIR", "data/summaries"),
		DocsDir:          getEnv("SSQUIZ_DOCS_DIR", "ai/docs"),
		IndexDir:         getEnv("SSQUIZ_INDEX_DIR", "ai/index"),
		IndexerCommand:   strings.Fields(getEnv("SSQUIZ_INDEXER_CMD", "python3 ai/ingest.py")),
		Workers:          2,
		PollInterval:     time.Second,
		ScheduleInterval: 0,
		LLM:              llm.ConfigFromEnv(),
	}

	var err error
	if cfg.Workers, err = getInt("SSQUIZ_WORKERS", cfg.Workers); err != nil {
		return Config{}, err
	}
	if cfg.PollInterval, err = getDuration("SSQUIZ_POLL_INTERVAL", cfg.PollInterval); err != nil {
		return Config{}, err
	}
	if cfg.ScheduleInterval, err = getDuration("SSQUIZ_SCHEDULE_INTERVAL", cfg.ScheduleInterval); err != nil {
		return Config{}, err
	}

	if cfg.DB == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return Config{}, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DB = p
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("SSQUIZ_WORKERS must be at least 1, got %d", c.Workers))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("SSQUIZ_POLL_INTERVAL must be positive"))
	}
	if c.ScheduleInterval < 0 {
		errs = append(errs, fmt.Errorf("SSQUIZ_SCHEDULE_INTERVAL must not be negative"))
	}
	if c.RecordDir == "" || c.SummaryDir == "" {
		errs = append(errs, fmt.Errorf("record and summary directories are required"))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
