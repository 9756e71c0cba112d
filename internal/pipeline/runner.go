// Package pipeline drives one full conversion pass: retention sweep, movie
// inbox passes, the TV root pass, and the per-file claim/convert/commit
// workflow.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"reelsort/internal/archive"
	"reelsort/internal/classify"
	"reelsort/internal/config"
	"reelsort/internal/lockfile"
	"reelsort/internal/logging"
	"reelsort/internal/metadata"
	"reelsort/internal/quality"
	"reelsort/internal/quarantine"
	"reelsort/internal/rules"
	"reelsort/internal/services"
	"reelsort/internal/services/ffmpeg"
	"reelsort/internal/services/ffprobe"
	"reelsort/internal/services/plex"
	"reelsort/internal/workarea"
)

// Runner wires the collaborators for one pipeline pass. Every external
// surface is an interface or small struct so tests can substitute fakes.
type Runner struct {
	Config        *config.Config
	Prober        ffprobe.Prober
	Encoder       ffmpeg.Encoder
	Quality       *quality.Resolver
	Metadata      *metadata.Resolver
	Plex          plex.Service
	Workarea      *workarea.Area
	Sweeper       *quarantine.Sweeper
	Logger        *slog.Logger
	ForceReencode bool
}

// Run executes one full pass and reports the outcome counters. Only
// configuration problems (missing rules, unusable work area) abort the pass;
// per-file failures are counted and logged.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	summary := Summary{}
	logger := r.logger()

	if r.Sweeper != nil {
		if err := r.Sweeper.Run(ctx); err != nil {
			logger.Warn("retention sweep failed", logging.Error(err))
		}
	}

	if err := r.Workarea.Ensure(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "pipeline", "workarea", "unusable work area", err)
	}
	defer r.Workarea.Cleanup()

	table, err := rules.Load(r.Config.Paths.RulesCSV)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "pipeline", "rules", "rule table unavailable", err)
	}
	classifier := classify.New(table, r.Prober, r.Config.Encode.VideoExtensions, logger)

	for _, inbox := range r.Config.Paths.MovieInboxes {
		dir := filepath.Join(r.Config.Paths.RootDir, inbox.Name)
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		r.movieInboxPass(ctx, dir, inbox.AdultOnly, classifier, &summary)
	}

	r.tvRootPass(ctx, classifier, &summary)

	if summary.DidWork() {
		logger.Info("run complete",
			logging.Int("tv_success", summary.TVSuccess),
			logging.Int("tv_failure", summary.TVFailure),
			logging.Int("movie_success", summary.MovieSuccess),
			logging.Int("movie_failure", summary.MovieFailure),
			logging.Int("archive_success", summary.ArchiveSuccess),
			logging.Int("archive_failure", summary.ArchiveFailure))
	}
	return summary, nil
}

// movieInboxPass handles one movie-only subdirectory: everything with a
// video extension is processed as a movie under the subdir slot.
func (r *Runner) movieInboxPass(ctx context.Context, dir string, adult bool, classifier *classify.Classifier, summary *Summary) {
	logger := r.logger()
	for _, name := range sortedFiles(dir, logger) {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(dir, name)

		switch classifier.ClassifyMovieInbox(name).Kind {
		case classify.Archive:
			r.extractArchive(ctx, path, dir, lockfile.SubdirSlotName, summary)
			continue
		case classify.Reject:
			if _, err := quarantine.Move(path, r.Config.Paths.QuarantineDir, false, logger); err != nil {
				logger.Error("failed to quarantine unsupported file",
					logging.String("file", name),
					logging.Error(err))
			}
			summary.MovieFailure++
			continue
		}

		claim := lockfile.Sidecar(path)
		held, err := claim.TryAcquire()
		if err != nil {
			logger.Warn("claim failed", logging.String("file", name), logging.Error(err))
			continue
		}
		if !held {
			logger.Debug("file claimed by another run", logging.String("file", name))
			continue
		}

		rule := rules.MovieDefault(adult)
		err = r.withSlot(lockfile.SubdirSlotName, func() error {
			return r.processFile(ctx, path, rule, false)
		})
		claim.Release()
		r.count(err, false, summary, name)
	}
}

// tvRootPass handles the shared TV inbox root: archives under the root slot,
// rule matches as TV, unmatched files through movie inference, the rest to
// quarantine.
func (r *Runner) tvRootPass(ctx context.Context, classifier *classify.Classifier, summary *Summary) {
	logger := r.logger()
	dir := r.Config.Paths.RootDir
	for _, name := range sortedFiles(dir, logger) {
		if ctx.Err() != nil {
			return
		}
		path := filepath.Join(dir, name)

		result := classifier.ClassifyInbox(ctx, name, path)
		if result.Kind == classify.Archive {
			r.extractArchive(ctx, path, dir, lockfile.RootSlotName, summary)
			continue
		}

		claim := lockfile.Sidecar(path)
		held, err := claim.TryAcquire()
		if err != nil {
			logger.Warn("claim failed", logging.String("file", name), logging.Error(err))
			continue
		}
		if !held {
			logger.Debug("file claimed by another run", logging.String("file", name))
			continue
		}

		switch result.Kind {
		case classify.TV:
			err = r.withSlot(lockfile.RootSlotName, func() error {
				return r.processFile(ctx, path, *result.Rule, true)
			})
			claim.Release()
			r.count(err, true, summary, name)

		case classify.Movie:
			logger.Info("unmatched inbox file classified as movie", logging.String("file", name))
			err = r.withSlot(lockfile.SubdirSlotName, func() error {
				return r.processFile(ctx, path, rules.MovieDefault(false), false)
			})
			claim.Release()
			r.count(err, false, summary, name)

		default:
			err = r.withSlot(lockfile.RootSlotName, func() error {
				if _, statErr := os.Stat(path); statErr != nil {
					return services.Wrap(services.ErrContention, "pipeline", "reject", "source gone", statErr)
				}
				if _, qErr := quarantine.Move(path, r.Config.Paths.QuarantineDir, true, logger); qErr != nil {
					return qErr
				}
				logger.Info("quarantined unrecognized file", logging.String("file", name))
				return nil
			})
			claim.Release()
			if err == nil {
				summary.TVFailure++
			} else if !errors.Is(err, services.ErrContention) {
				logger.Error("failed to quarantine unrecognized file",
					logging.String("file", name),
					logging.Error(err))
				summary.TVFailure++
			}
		}
	}
}

// extractArchive unrolls a tar drop under the given slot and parks the
// consumed archive in quarantine.
func (r *Runner) extractArchive(ctx context.Context, path, destDir, slotName string, summary *Summary) {
	logger := r.logger()
	err := r.withSlot(slotName, func() error {
		if _, err := archive.ExtractVideos(ctx, path, destDir, logger); err != nil {
			return err
		}
		_, err := quarantine.Move(path, r.Config.Paths.QuarantineDir, true, logger)
		return err
	})
	switch {
	case err == nil:
		summary.ArchiveSuccess++
	case errors.Is(err, services.ErrContention):
		logger.Debug("slot busy, archive deferred", logging.String("file", filepath.Base(path)))
	default:
		logger.Error("archive extraction failed",
			logging.String("file", filepath.Base(path)),
			logging.Error(err))
		summary.ArchiveFailure++
	}
}

// withSlot runs fn while holding the named slot lock in the root directory.
// A busy slot yields ErrContention, never an outcome.
func (r *Runner) withSlot(name string, fn func() error) error {
	slot := lockfile.Slot(r.Config.Paths.RootDir, name)
	held, err := slot.TryAcquire()
	if err != nil {
		return services.Wrap(services.ErrContention, "pipeline", "slot", name, err)
	}
	if !held {
		return services.Wrap(services.ErrContention, "pipeline", "slot", name+" busy", nil)
	}
	defer slot.Release()
	return fn()
}

// count books a processFile outcome. Contention is a skip, not a failure;
// supersession counts as a failure but was already reported where the
// version gate fired.
func (r *Runner) count(err error, tv bool, summary *Summary, name string) {
	logger := r.logger()
	switch {
	case err == nil:
		if tv {
			summary.TVSuccess++
		} else {
			summary.MovieSuccess++
		}
	case errors.Is(err, services.ErrContention):
		logger.Debug("skipped under contention", logging.String("file", name))
	case errors.Is(err, services.ErrSuperseded):
		if tv {
			summary.TVFailure++
		} else {
			summary.MovieFailure++
		}
	default:
		logger.Error("processing failed",
			logging.String("file", name),
			logging.Error(err))
		if tv {
			summary.TVFailure++
		} else {
			summary.MovieFailure++
		}
	}
}

// sortedFiles lists regular files in dir in name order, skipping lock
// markers and NFS remnants.
func sortedFiles(dir string, logger *slog.Logger) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("cannot list directory",
			logging.String("path", dir),
			logging.Error(err))
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if lockfile.IsLockArtifact(name) || lockfile.IsNFSArtifact(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
