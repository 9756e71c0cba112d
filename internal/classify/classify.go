// Package classify decides what kind of media a dropped inbox file is and,
// for TV, which rule governs it. Rule order is priority: the first matching
// row wins.
package classify

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"reelsort/internal/naming"
	"reelsort/internal/rules"
	"reelsort/internal/services/ffprobe"
)

// Kind is the classification outcome for an inbox file.
type Kind int

const (
	// Reject means the file matched nothing and is not plausibly a movie.
	Reject Kind = iota
	// Archive means the file is a tar archive to be extracted in place.
	Archive
	// TV means an ordered rule matched; Result.Rule carries it.
	TV
	// Movie means the file was inferred (or designated) as a feature film.
	Movie
)

func (k Kind) String() string {
	switch k {
	case Archive:
		return "archive"
	case TV:
		return "tv"
	case Movie:
		return "movie"
	default:
		return "reject"
	}
}

// Result pairs the kind with the matched rule for TV files.
type Result struct {
	Kind Kind
	Rule *rules.Rule
}

// movieDurationSeconds is the probe-duration floor for movie inference:
// anything at least 65 minutes long that is not episode-like is a movie.
const movieDurationSeconds = 3900

var archiveExts = map[string]bool{
	".tar": true,
	".tgz": true,
}

// Classifier applies the ordered rule table and movie inference to inbox
// names. It never touches the filesystem itself; probing goes through the
// injected Prober.
type Classifier struct {
	rules     []rules.Rule
	prober    ffprobe.Prober
	videoExts map[string]bool
	logger    *slog.Logger
}

// New builds a classifier over an ordered rule table.
func New(ruleTable []rules.Rule, prober ffprobe.Prober, videoExts []string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	exts := make(map[string]bool, len(videoExts))
	for _, ext := range videoExts {
		exts[strings.ToLower(strings.TrimSpace(ext))] = true
	}
	return &Classifier{rules: ruleTable, prober: prober, videoExts: exts, logger: logger}
}

// IsArchive reports whether name looks like a tar archive (.tar, .tar.gz, .tgz).
func IsArchive(name string) bool {
	lowered := strings.ToLower(name)
	if strings.HasSuffix(lowered, ".tar.gz") {
		return true
	}
	return archiveExts[filepath.Ext(lowered)]
}

// hasVideoExt reports whether name carries one of the configured extensions.
func (c *Classifier) hasVideoExt(name string) bool {
	return c.videoExts[strings.ToLower(filepath.Ext(name))]
}

// ClassifyInbox classifies a file found in the shared TV inbox root:
// archives first, then the extension gate, then the ordered rule table, then
// movie inference. path is probed only when inference needs a duration.
func (c *Classifier) ClassifyInbox(ctx context.Context, name, path string) Result {
	if IsArchive(name) {
		return Result{Kind: Archive}
	}
	if !c.hasVideoExt(name) {
		return Result{Kind: Reject}
	}
	if rule := c.matchRule(name); rule != nil {
		return Result{Kind: TV, Rule: rule}
	}
	if c.inferMovie(ctx, name, path) {
		return Result{Kind: Movie}
	}
	return Result{Kind: Reject}
}

// ClassifyMovieInbox classifies a file found inside a movie-only inbox.
// Everything with a video extension is a movie; rules never apply.
func (c *Classifier) ClassifyMovieInbox(name string) Result {
	if IsArchive(name) {
		return Result{Kind: Archive}
	}
	if !c.hasVideoExt(name) {
		return Result{Kind: Reject}
	}
	return Result{Kind: Movie}
}

// matchRule walks the table in order. Regex rows compile case-insensitively;
// a row whose pattern does not compile is skipped, not fatal.
func (c *Classifier) matchRule(name string) *rules.Rule {
	for i := range c.rules {
		rule := &c.rules[i]
		if rule.SearchTerm == "" {
			continue
		}
		if rule.Regex {
			pattern, err := regexp.Compile("(?i)" + rule.SearchTerm)
			if err != nil {
				c.logger.Warn("skipping rule with invalid regex",
					slog.String("pattern", rule.SearchTerm),
					slog.String("error", err.Error()))
				continue
			}
			if pattern.MatchString(name) {
				return rule
			}
			continue
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(rule.SearchTerm)) {
			return rule
		}
	}
	return nil
}

// inferMovie applies the movie heuristic: the name must not look like an
// episode, and the file must either run long enough or carry a plausible
// release year. Probe failures degrade to the year check alone.
func (c *Classifier) inferMovie(ctx context.Context, name, path string) bool {
	if naming.IsEpisodeLike(name) {
		return false
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if naming.HasMovieYear(stem) {
		return true
	}
	if c.prober == nil {
		return false
	}
	result, err := c.prober.Inspect(ctx, path)
	if err != nil {
		c.logger.Debug("probe failed during movie inference",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return false
	}
	return result.DurationSeconds() >= movieDurationSeconds
}
