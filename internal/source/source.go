// Package source reads the per-user conversation records quizzes are drawn
// from and writes the summaries produced from them.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoContent is returned when a user has no record file.
var ErrNoContent = errors.New("no conversation record")

// Content is the newest record of one user.
type Content struct {
	Path    string
	Text    string
	ModTime time.Time
}

// Dir is a SourceContentStore backed by <root>/<user>/<user>-*.txt files.
type Dir struct {
	root string
}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Latest returns the most recently modified record file of userID.
func (d *Dir) Latest(ctx context.Context, userID string) (*Content, error) {
	path, mod, err := d.newest(userID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return &Content{Path: path, Text: string(data), ModTime: mod}, nil
}

func (d *Dir) newest(userID string) (string, time.Time, error) {
	if userID == "" || filepath.Base(userID) != userID {
		return "", time.Time{}, ErrNoContent
	}
	matches, err := filepath.Glob(filepath.Join(d.root, userID, userID+"-*.txt"))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("list records: %w", err)
	}

	var (
		best    string
		bestMod time.Time
	)
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = m, info.ModTime()
		}
	}
	if best == "" {
		return "", time.Time{}, ErrNoContent
	}
	return best, bestMod, nil
}

// Users lists the user ids that have a record directory, sorted.
func (d *Dir) Users() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list record dirs: %w", err)
	}
	var users []string
	for _, e := range entries {
		if e.IsDir() {
			users = append(users, e.Name())
		}
	}
	sort.Strings(users)
	return users, nil
}
