// Package workarea manages the per-process scratch directory encodes write
// into. Each run owns <work_dir>/<pid>; siblings left behind by crashed runs
// are pruned once they age past the configured threshold.
package workarea

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"reelsort/internal/logging"
)

// Area is one process's scratch directory under the shared work root.
type Area struct {
	base     string
	dir      string
	staleAge time.Duration
	logger   *slog.Logger
}

// New builds an area rooted at base for the current process.
func New(base string, staleAge time.Duration, logger *slog.Logger) *Area {
	if logger == nil {
		logger = slog.Default()
	}
	return &Area{
		base:     base,
		dir:      filepath.Join(base, strconv.Itoa(os.Getpid())),
		staleAge: staleAge,
		logger:   logger,
	}
}

// Dir returns this process's scratch directory path.
func (a *Area) Dir() string {
	return a.dir
}

// Ensure creates the scratch directory and prunes stale siblings left by
// runs that never reached Cleanup.
func (a *Area) Ensure() error {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("create work area: %w", err)
	}
	a.pruneStale()
	return nil
}

// Cleanup removes the scratch directory. Safe to call unconditionally.
func (a *Area) Cleanup() {
	if err := os.RemoveAll(a.dir); err != nil {
		a.logger.Warn("failed to remove work area",
			logging.String("path", a.dir),
			logging.Error(err))
	}
}

func (a *Area) pruneStale() {
	entries, err := os.ReadDir(a.base)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-a.staleAge)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == filepath.Base(a.dir) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(a.base, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			a.logger.Warn("failed to remove stale work dir",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		a.logger.Info("removed stale work dir",
			logging.String("path", path),
			logging.String("age", humanize.Time(info.ModTime())))
	}
}
