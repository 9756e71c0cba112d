package quarantine

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"

	"reelsort/internal/logging"
)

// sweepLockName guards the quarantine tree against concurrent sweeps. Unlike
// the claim markers, this can be an advisory lock: a crashed sweeper must not
// leave the tree permanently unsweepable.
const sweepLockName = ".sweep.lock"

// Sweeper deletes quarantined files whose whole-day age has reached the
// retention window, and warns about files approaching it.
type Sweeper struct {
	Dir      string
	Days     int
	WarnDays []int
	Logger   *slog.Logger
	Now      func() time.Time
}

// Run walks the quarantine tree once. When another process holds the sweep
// lock the pass is skipped entirely; the next run picks it up.
func (s *Sweeper) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if _, err := os.Stat(s.Dir); os.IsNotExist(err) {
		logger.Debug("quarantine dir absent, nothing to sweep", logging.String("path", s.Dir))
		return nil
	}

	lock := flock.New(filepath.Join(s.Dir, sweepLockName))
	locked, err := lock.TryLock()
	if err != nil {
		return err
	}
	if !locked {
		logger.Debug("another sweep is in progress, skipping")
		return nil
	}
	defer lock.Unlock()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	current := now()
	warnWindow := inFirstMinuteAfterMidnight(current)
	warnSet := make(map[int]bool, len(s.WarnDays))
	for _, d := range s.WarnDays {
		warnSet[d] = true
	}

	return filepath.WalkDir(s.Dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("retention check failed",
				logging.String("path", path),
				logging.Error(err))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || entry.Name() == sweepLockName {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			logger.Warn("retention check failed",
				logging.String("path", path),
				logging.Error(err))
			return nil
		}

		ageDays := int(current.Sub(info.ModTime()).Hours() / 24)
		daysUntil := s.Days - ageDays
		switch {
		case ageDays >= s.Days:
			if err := os.Remove(path); err != nil {
				logger.Warn("failed to delete stale quarantine file",
					logging.String("path", path),
					logging.Error(err))
				return nil
			}
			logger.Info("deleted stale quarantine file",
				logging.String("path", path),
				logging.Int("age_days", ageDays),
				logging.String("size", humanize.Bytes(uint64(info.Size()))))
		case warnWindow && warnSet[daysUntil]:
			logger.Warn("quarantine file nearing deletion",
				logging.String("path", path),
				logging.Int("days_remaining", daysUntil))
		}
		return nil
	})
}

// inFirstMinuteAfterMidnight gates the approaching-deletion warnings so a
// cron schedule denser than daily does not repeat them all day.
func inFirstMinuteAfterMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0
}
