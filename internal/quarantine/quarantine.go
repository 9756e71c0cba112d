// Package quarantine parks rejected and superseded files for a retention
// window instead of deleting them outright, and sweeps the window on each
// run.
package quarantine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"reelsort/internal/fileutil"
	"reelsort/internal/logging"
)

// Move parks path under dir, in a tv/ or movie/ subtree. The file's mtime is
// reset to now so the retention clock starts at quarantine time, not at the
// file's original creation.
func Move(path, dir string, tvLike bool, logger *slog.Logger) (string, error) {
	kind := "movie"
	if tvLike {
		kind = "tv"
	}
	destDir := filepath.Join(dir, kind)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}
	dest := filepath.Join(destDir, filepath.Base(path))
	if err := fileutil.MoveFile(path, dest); err != nil {
		return "", fmt.Errorf("quarantine move: %w", err)
	}
	now := time.Now()
	if err := os.Chtimes(dest, now, now); err != nil && logger != nil {
		logger.Warn("failed to reset quarantine mtime",
			logging.String("path", dest),
			logging.Error(err))
	}
	return dest, nil
}
