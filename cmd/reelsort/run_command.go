package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reelsort/internal/config"
	"reelsort/internal/logging"
	"reelsort/internal/metadata"
	"reelsort/internal/pipeline"
	"reelsort/internal/quality"
	"reelsort/internal/quarantine"
	"reelsort/internal/services/abav1"
	"reelsort/internal/services/anilist"
	"reelsort/internal/services/ffmpeg"
	"reelsort/internal/services/ffprobe"
	"reelsort/internal/services/jikan"
	"reelsort/internal/services/plex"
	"reelsort/internal/workarea"
)

const logFilePattern = "reelsort-*.log"

func newRunCommand(ctx *commandContext) *cobra.Command {
	var forceReencode bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one conversion pass over the inbox tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := buildRunLogger(cfg)
			if err != nil {
				return err
			}
			logging.CleanupOldLogs(logger, cfg.Paths.LogDir, logFilePattern, cfg.Logging.RetentionDays)

			runner := newRunner(cfg, logger, forceReencode)
			summary, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}
			if summary.DidWork() {
				if logging.ConsoleIsTerminal() {
					fmt.Fprintln(cmd.OutOrStdout(), summary.Render())
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "tv %d/%d movie %d/%d archive %d/%d (ok/failed)\n",
						summary.TVSuccess, summary.TVFailure,
						summary.MovieSuccess, summary.MovieFailure,
						summary.ArchiveSuccess, summary.ArchiveFailure)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&forceReencode, "force-reencode", "r", false, "Re-encode even sources already in an efficient codec")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run only the quarantine retention sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := buildRunLogger(cfg)
			if err != nil {
				return err
			}
			return newSweeper(cfg, logger).Run(cmd.Context())
		},
	}
}

func buildRunLogger(cfg *config.Config) (*slog.Logger, error) {
	logFile := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("reelsort-%s.log", time.Now().Format("2006-01-02")))
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logFile},
	})
	if err != nil {
		return nil, err
	}
	return logger.With(logging.String("run_id", uuid.NewString())), nil
}

func newRunner(cfg *config.Config, logger *slog.Logger, forceReencode bool) *pipeline.Runner {
	prober := ffprobe.Client{Binary: cfg.FFprobeBinary()}
	encoder := ffmpeg.Client{
		Binary:  cfg.FFmpegBinary(),
		Timeout: time.Duration(cfg.Encode.TimeoutSeconds) * time.Second,
	}
	searcher := abav1.Client{
		Binary:  cfg.ABAV1Binary(),
		MinCRF:  cfg.Quality.MinCRF,
		MaxCRF:  cfg.Quality.MaxCRF,
		MinVMAF: float64(cfg.Quality.MinVMAF),
		Preset:  cfg.Encode.Preset,
		FFmpeg:  cfg.FFmpegBinary(),
		Timeout: time.Duration(cfg.Quality.TimeoutSeconds) * time.Second,
	}

	return &pipeline.Runner{
		Config:  cfg,
		Prober:  prober,
		Encoder: encoder,
		Quality: &quality.Resolver{
			Searcher:      searcher,
			Cache:         quality.NewCache(),
			Preset:        cfg.Encode.Preset,
			CRFOffset:     cfg.Quality.CRFOffset,
			TVFallback:    cfg.Encode.TVCRFFallback,
			MovieDefaults: cfg.Encode.MovieCRFDefaults,
			Logger:        logger,
		},
		Metadata: &metadata.Resolver{
			Clients: []metadata.Client{&anilist.Client{}, &jikan.Client{}},
			Cache:   metadata.OpenCache(cfg.TitleCachePath(), logger),
			Logger:  logger,
		},
		Plex:          plex.NewService(cfg),
		Workarea:      workarea.New(cfg.Paths.WorkDir, time.Duration(cfg.Workarea.StaleAgeSeconds)*time.Second, logger),
		Sweeper:       newSweeper(cfg, logger),
		Logger:        logger,
		ForceReencode: forceReencode,
	}
}

func newSweeper(cfg *config.Config, logger *slog.Logger) *quarantine.Sweeper {
	return &quarantine.Sweeper{
		Dir:      cfg.Paths.QuarantineDir,
		Days:     cfg.Retention.QuarantineDays,
		WarnDays: cfg.Retention.WarnDaysBefore,
		Logger:   logger,
	}
}
