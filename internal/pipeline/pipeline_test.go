package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelsort/internal/config"
	"reelsort/internal/lockfile"
	"reelsort/internal/logging"
	"reelsort/internal/quality"
	"reelsort/internal/services/ffmpeg"
	"reelsort/internal/services/ffprobe"
	"reelsort/internal/workarea"
)

const rulesCSV = `FileSearchTerm,RegexSearch,Show,Season,Offset,AdultOnly,CRF,MoveOnly
Some Show,0,Some Show,2,0,0,30,0
Keeper,0,Keeper,1,0,0,,1
`

type fakeProber struct {
	codec string
	pix   string
}

func (f *fakeProber) Inspect(_ context.Context, _ string) (ffprobe.Result, error) {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{CodecType: "video", CodecName: f.codec, PixFmt: f.pix}},
		Format:  ffprobe.Format{Duration: "1200"},
	}, nil
}

type fakeEncoder struct {
	requests []ffmpeg.Request
	err      error
}

func (f *fakeEncoder) Encode(_ context.Context, req ffmpeg.Request) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(req.Output, []byte("encoded"), 0o644)
}

type fakePlex struct {
	refreshes int
}

func (f *fakePlex) Refresh(context.Context) error {
	f.refreshes++
	return nil
}

type harness struct {
	runner  *Runner
	cfg     *config.Config
	encoder *fakeEncoder
	plex    *fakePlex
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.RootDir = filepath.Join(base, "inbox")
	cfg.Paths.RulesCSV = filepath.Join(base, "rules.csv")
	cfg.Paths.QuarantineDir = filepath.Join(base, "quarantine")
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MovieInboxes = []config.MovieInbox{{Name: "movies", AdultOnly: false}}
	cfg.Library.TVDir = filepath.Join(base, "lib", "tv")
	cfg.Library.AdultTVDir = filepath.Join(base, "lib", "tv-adult")
	cfg.Library.MoviesDir = filepath.Join(base, "lib", "movies")
	cfg.Library.AdultMoviesDir = filepath.Join(base, "lib", "movies-adult")

	for _, dir := range []string{
		cfg.Paths.RootDir,
		filepath.Join(cfg.Paths.RootDir, "movies"),
		cfg.Paths.QuarantineDir,
		cfg.Paths.WorkDir,
		cfg.Library.TVDir,
		cfg.Library.MoviesDir,
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(cfg.Paths.RulesCSV, []byte(rulesCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	logger := logging.NewNop()
	encoder := &fakeEncoder{}
	plexSvc := &fakePlex{}
	runner := &Runner{
		Config:  &cfg,
		Prober:  &fakeProber{codec: "h264", pix: "yuv420p10le"},
		Encoder: encoder,
		Quality: &quality.Resolver{
			Cache:         quality.NewCache(),
			Preset:        6,
			TVFallback:    32,
			MovieDefaults: map[string]int{"2160p": 26, "1080p": 30, "default": 32},
			Logger:        logger,
		},
		Plex:     plexSvc,
		Workarea: workarea.New(cfg.Paths.WorkDir, time.Hour, logger),
		Logger:   logger,
	}
	return &harness{runner: runner, cfg: &cfg, encoder: encoder, plex: plexSvc}
}

func (h *harness) dropTV(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.cfg.Paths.RootDir, name)
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (h *harness) dropMovie(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(h.cfg.Paths.RootDir, "movies", name)
	if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunCommitsTVEpisode(t *testing.T) {
	h := newHarness(t)
	src := h.dropTV(t, "Some Show - 05 [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVSuccess != 1 || summary.TVFailure != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	dest := filepath.Join(h.cfg.Library.TVDir, "Some Show", "Season 02",
		"Some Show - S02E05 [1080p_AV1_10Bit_C30].mkv")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected committed episode at %s: %v", dest, err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source must be removed after commit")
	}
	if len(h.encoder.requests) != 1 {
		t.Fatalf("expected one encode, got %d", len(h.encoder.requests))
	}
	if got := h.encoder.requests[0].CRF; got != 30 {
		t.Fatalf("rule crf must be used, got %d", got)
	}
	if h.plex.refreshes == 0 {
		t.Fatal("commit must trigger a plex refresh")
	}
}

func TestRunMovesMoveOnlyRuleWithoutEncoding(t *testing.T) {
	h := newHarness(t)
	h.dropTV(t, "Keeper - 03 [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVSuccess != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(h.encoder.requests) != 0 {
		t.Fatal("move-only rule must not encode")
	}
	dest := filepath.Join(h.cfg.Library.TVDir, "Keeper", "Season 01", "Keeper - 03 [1080p].mkv")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected plain move to %s: %v", dest, err)
	}
}

func TestRunMovesEfficientCodecWithoutEncoding(t *testing.T) {
	h := newHarness(t)
	h.runner.Prober = &fakeProber{codec: "hevc", pix: "yuv420p10le"}
	h.dropTV(t, "Some Show - 06 [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVSuccess != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(h.encoder.requests) != 0 {
		t.Fatal("hevc source must move, not encode")
	}
}

func TestRunForceReencodeOverridesCodecSkip(t *testing.T) {
	h := newHarness(t)
	h.runner.Prober = &fakeProber{codec: "hevc", pix: "yuv420p10le"}
	h.runner.ForceReencode = true
	h.dropTV(t, "Some Show - 07 [1080p].mkv")

	if _, err := h.runner.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(h.encoder.requests) != 1 {
		t.Fatal("force-reencode must encode even efficient codecs")
	}
}

// errorCounter counts Error-level log records, ignoring everything else.
type errorCounter struct{ count int }

func (h *errorCounter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelError
}
func (h *errorCounter) Handle(context.Context, slog.Record) error { h.count++; return nil }
func (h *errorCounter) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *errorCounter) WithGroup(string) slog.Handler { return h }

func TestRunQuarantinesSupersededCandidate(t *testing.T) {
	h := newHarness(t)
	errorLog := &errorCounter{}
	h.runner.Logger = slog.New(errorLog)
	destDir := filepath.Join(h.cfg.Library.TVDir, "Some Show", "Season 02")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(destDir, "Some Show - S02E05v2 [1080p].mkv")
	if err := os.WriteFile(existing, []byte("v2"), 0o644); err != nil {
		t.Fatal(err)
	}
	src := h.dropTV(t, "Some Show - 05 [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVFailure != 1 || summary.TVSuccess != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(existing); err != nil {
		t.Fatal("existing version must be untouched")
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("candidate must leave the inbox")
	}
	quarantined := filepath.Join(h.cfg.Paths.QuarantineDir, "tv", "Some Show - 05 [1080p].mkv")
	if _, err := os.Stat(quarantined); err != nil {
		t.Fatalf("candidate must land in quarantine: %v", err)
	}
	if errorLog.count != 0 {
		t.Fatalf("supersession is a normal outcome, got %d error log records", errorLog.count)
	}
}

func TestRunCommitsNewerVersionAndDeletesOld(t *testing.T) {
	h := newHarness(t)
	destDir := filepath.Join(h.cfg.Library.TVDir, "Some Show", "Season 02")
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		t.Fatal(err)
	}
	old := filepath.Join(destDir, "Some Show - S02E05 [1080p_AV1_10Bit_C30].mkv")
	if err := os.WriteFile(old, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	h.dropTV(t, "Some Show - 05v2 [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVSuccess != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	newFile := filepath.Join(destDir, "Some Show - S02E05v2 [1080p_AV1_10Bit_C30].mkv")
	if _, err := os.Stat(newFile); err != nil {
		t.Fatalf("expected committed v2: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("strictly lower version must be deleted after commit")
	}
}

func TestRunSkipsClaimedFile(t *testing.T) {
	h := newHarness(t)
	src := h.dropTV(t, "Some Show - 08 [1080p].mkv")

	claim := lockfile.Sidecar(src)
	held, err := claim.TryAcquire()
	if err != nil || !held {
		t.Fatalf("test claim failed: %v", err)
	}
	defer claim.Release()

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.DidWork() {
		t.Fatalf("claimed file must be skipped entirely, got %+v", summary)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("claimed file must stay in place")
	}
}

func TestRunQuarantinesUnrecognizedFile(t *testing.T) {
	h := newHarness(t)
	h.dropTV(t, "mystery_short_clip.mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVFailure != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	quarantined := filepath.Join(h.cfg.Paths.QuarantineDir, "tv", "mystery_short_clip.mkv")
	if _, err := os.Stat(quarantined); err != nil {
		t.Fatalf("reject must land in quarantine: %v", err)
	}
}

func TestRunProcessesMovieInbox(t *testing.T) {
	h := newHarness(t)
	h.dropMovie(t, "Big Feature (2019) [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.MovieSuccess != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	dest := filepath.Join(h.cfg.Library.MoviesDir, "Big Feature (2019)",
		"Big Feature (2019) [1080p_AV1_10Bit_C30].mkv")
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected committed movie at %s: %v", dest, err)
	}
}

func TestRunLeavesSourceOnEncodeFailure(t *testing.T) {
	h := newHarness(t)
	h.encoder.err = errors.New("encoder exploded")
	src := h.dropTV(t, "Some Show - 09 [1080p].mkv")

	summary, err := h.runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.TVFailure != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatal("failed encode must leave the source in place")
	}
}

func TestRunMissingRulesIsFatal(t *testing.T) {
	h := newHarness(t)
	if err := os.Remove(h.cfg.Paths.RulesCSV); err != nil {
		t.Fatal(err)
	}
	if _, err := h.runner.Run(context.Background()); err == nil {
		t.Fatal("missing rule table must abort the run")
	}
}
