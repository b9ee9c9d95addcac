package source

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SummaryWriter stores summary text as <root>/<user>/<user>-YYYY-MM-DD-HHMM_sum.txt.
type SummaryWriter struct {
	root string
}

func NewSummaryWriter(root string) *SummaryWriter {
	return &SummaryWriter{root: root}
}

// Write saves summary and returns the file path. A summary written in the
// same minute replaces the earlier one.
func (w *SummaryWriter) Write(userID, summary string, at time.Time) (string, error) {
	if userID == "" || filepath.Base(userID) != userID {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	dir := filepath.Join(w.root, userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create summary dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s_sum.txt", userID, at.Format("2006-01-02-1504")))
	if err := os.WriteFile(path, []byte(summary), 0o644); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return path, nil
}
