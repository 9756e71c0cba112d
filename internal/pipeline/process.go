package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"reelsort/internal/fileutil"
	"reelsort/internal/logging"
	"reelsort/internal/naming"
	"reelsort/internal/quarantine"
	"reelsort/internal/rules"
	"reelsort/internal/services"
	"reelsort/internal/services/ffmpeg"
)

// processFile carries one claimed file to a terminal state: committed to the
// library or quarantined. A nil return is a commit; ErrContention means the
// file was skipped and stays in place for a later run.
func (r *Runner) processFile(ctx context.Context, path string, rule rules.Rule, tv bool) error {
	logger := r.logger()
	name := filepath.Base(path)

	// The claim may have been granted for a file another run just consumed.
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return services.Wrap(services.ErrContention, "process", "stat", "source vanished before processing", nil)
		}
		return services.Wrap(services.ErrTransient, "process", "stat", name, err)
	}

	show := strings.TrimSpace(rule.Show)
	if tv && show == "" && r.Metadata != nil {
		title, year := r.Metadata.ResolveTitle(ctx, name)
		if title != "" {
			show = title
			if year > 0 {
				show = fmt.Sprintf("%s (%d)", title, year)
			}
		}
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))
	base := r.Config.LibraryRoot(!tv, rule.AdultOnly)
	var destDir string
	if tv {
		destDir = naming.TVDir(base, show, rule.Season)
	} else {
		destDir = naming.MovieDir(base, stem)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return services.Wrap(services.ErrTransient, "process", "mkdir", destDir, err)
	}

	// Version gate: a candidate that does not beat what the library already
	// holds goes to quarantine without touching the destination.
	episode, version := 0, 0
	if tv && rule.Season > 0 {
		if rawEpisode, rawVersion, ok := naming.ExtractEpisode(name); ok {
			episode = correctEpisode(rawEpisode, rule.Offset)
			version = rawVersion
			existing, err := naming.MaxExistingVersion(destDir, rule.Season, episode)
			if err != nil {
				return services.Wrap(services.ErrTransient, "process", "version scan", destDir, err)
			}
			if existing > 0 && version <= existing {
				if _, err := quarantine.Move(path, r.Config.Paths.QuarantineDir, true, logger); err != nil {
					return services.Wrap(services.ErrTransient, "process", "quarantine", name, err)
				}
				logger.Info("superseded by existing version",
					logging.String("file", name),
					logging.Int("candidate", version),
					logging.Int("existing", existing))
				return services.Wrap(services.ErrSuperseded, "process", "version gate",
					fmt.Sprintf("v%d does not beat v%d", version, existing), nil)
			}
		}
	}

	probe, err := r.Prober.Inspect(ctx, path)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "process", "probe", name, err)
	}
	codec := probe.CodecName()

	if rule.MoveOnly || ((codec == "hevc" || codec == "av1") && !r.ForceReencode) {
		dest := filepath.Join(destDir, name)
		if err := fileutil.MoveFile(path, dest); err != nil {
			return services.Wrap(services.ErrTransient, "process", "move", name, err)
		}
		logger.Info("moved without re-encode",
			logging.String("file", name),
			logging.String("codec", codec),
			logging.String("dest", destDir))
		r.finishCommit(ctx, destDir, rule.Season, episode, version)
		return nil
	}

	crf, err := r.Quality.Resolve(ctx, rule.Quality, path, show, r.Workarea.Dir(), tv)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "process", "quality", name, err)
	}

	outStem := naming.BuildOutputName(stem, crf, probe.BitDepth())
	if tv && rule.Season > 0 {
		outStem = naming.TagEpisode(name, outStem, rule.Season, rule.Offset)
	}
	workOutput := filepath.Join(r.Workarea.Dir(), outStem+".mkv")

	logger.Info("encoding",
		logging.String("file", name),
		logging.Int("crf", crf),
		logging.Int("bit_depth", probe.BitDepth()),
		logging.String("output", filepath.Base(workOutput)))

	encodeErr := r.Encoder.Encode(ctx, ffmpeg.Request{
		Input:              path,
		Output:             workOutput,
		CRF:                crf,
		Preset:             r.Config.Encode.Preset,
		BitDepth:           probe.BitDepth(),
		AttachedPicIndices: probe.AttachedPicIndices(),
	})
	if encodeErr != nil {
		os.Remove(workOutput)
		if ffmpeg.IsSourceVanished(encodeErr) {
			logger.Warn("source vanished during encode",
				logging.String("file", name))
		}
		return services.Wrap(services.ErrExternalTool, "process", "encode", name, encodeErr)
	}

	dest := filepath.Join(destDir, filepath.Base(workOutput))
	if err := fileutil.MoveFile(workOutput, dest); err != nil {
		os.Remove(workOutput)
		return services.Wrap(services.ErrTransient, "process", "commit", name, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove converted source",
			logging.String("file", name),
			logging.Error(err))
	}
	logger.Info("converted",
		logging.String("file", name),
		logging.String("dest", dest))

	r.finishCommit(ctx, destDir, rule.Season, episode, version)
	return nil
}

// finishCommit deletes now-superseded lower versions at the destination and
// pokes Plex. Both are best effort: the commit already happened.
func (r *Runner) finishCommit(ctx context.Context, destDir string, season, episode, version int) {
	logger := r.logger()
	if season > 0 && episode > 0 && version > 1 {
		stale, err := naming.SupersededFiles(destDir, season, episode, version)
		if err != nil {
			logger.Warn("superseded scan failed",
				logging.String("dir", destDir),
				logging.Error(err))
		}
		for _, name := range stale {
			if err := os.Remove(filepath.Join(destDir, name)); err != nil {
				logger.Warn("failed to delete superseded version",
					logging.String("file", name),
					logging.Error(err))
				continue
			}
			logger.Info("deleted superseded version", logging.String("file", name))
		}
	}
	if r.Plex != nil {
		if err := r.Plex.Refresh(ctx); err != nil {
			logger.Warn("plex refresh failed", logging.Error(err))
		}
	}
}

// correctEpisode applies a rule's numbering offset, falling back to the raw
// number when the correction goes out of range.
func correctEpisode(episode, offset int) int {
	if offset > 0 {
		if corrected := episode - offset; corrected >= 1 {
			return corrected
		}
	}
	return episode
}
