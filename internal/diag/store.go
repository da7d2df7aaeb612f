// Package diag persists failure evidence (screenshots) for later inspection.
package diag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Store saves diagnostic artifacts.
type Store interface {
	// Save writes data under name and returns where it was stored.
	Save(ctx context.Context, data []byte, name string) (string, error)
}

// DirStore writes artifacts into a local directory, created on first use.
type DirStore struct {
	Dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

func (s *DirStore) Save(ctx context.Context, data []byte, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return "", fmt.Errorf("creating diagnostics dir: %w", err)
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ScreenshotName builds "<env>_<step>_<20060102T150405.000>.png" with unsafe
// characters replaced.
func ScreenshotName(env, step string, at time.Time) string {
	clean := func(s string) string {
		s = unsafeChars.ReplaceAllString(s, "-")
		return strings.Trim(s, "-")
	}
	ts := at.UTC().Format("20060102T150405.000")
	return fmt.Sprintf("%s_%s_%s.png", clean(env), clean(step), strings.ReplaceAll(ts, ".", ""))
}
