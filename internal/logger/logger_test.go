package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedactsSecrets(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))

	l.Info("calling provider", "api_key", "sk-123", "input_tokens", 42, "purpose", "quiz-gen")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["api_key"] != "[REDACTED]" {
		t.Errorf("api_key = %v, want [REDACTED]", fields["api_key"])
	}
	if fields["input_tokens"] != int64(42) {
		t.Errorf("input_tokens = %v, want 42", fields["input_tokens"])
	}
	if fields["purpose"] != "quiz-gen" {
		t.Errorf("purpose = %v", fields["purpose"])
	}
}

func TestHashUserIDs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := FromZap(zap.New(core))
	l.hashUserIDs = true

	l.With("user_id", "alice").Info("generating")

	got, _ := logs.All()[0].ContextMap()["user_id"].(string)
	if !strings.HasPrefix(got, "hash:") || strings.Contains(got, "alice") {
		t.Errorf("user_id = %q, want hashed value", got)
	}
}

func TestNewDiagnosticWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag", "diagnostics.log")
	d, err := NewDiagnostic(path)
	if err != nil {
		t.Fatalf("NewDiagnostic: %v", err)
	}
	d.Warn("unparseable response", "raw", "not json")
	d.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "unparseable response") {
		t.Errorf("diagnostic log missing entry: %s", data)
	}
}
