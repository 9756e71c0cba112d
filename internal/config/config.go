package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// MovieInbox names a movie-only subdirectory of the shared root.
type MovieInbox struct {
	Name      string `toml:"name"`
	AdultOnly bool   `toml:"adult_only"`
}

// Paths contains the directory tree the pipeline operates on.
type Paths struct {
	RootDir       string       `toml:"root_dir"`
	RulesCSV      string       `toml:"rules_csv"`
	QuarantineDir string       `toml:"quarantine_dir"`
	WorkDir       string       `toml:"work_dir"`
	LogDir        string       `toml:"log_dir"`
	MovieInboxes  []MovieInbox `toml:"movie_inbox"`
}

// Library contains the four destination roots.
type Library struct {
	TVDir          string `toml:"tv_dir"`
	AdultTVDir     string `toml:"adult_tv_dir"`
	MoviesDir      string `toml:"movies_dir"`
	AdultMoviesDir string `toml:"adult_movies_dir"`
}

// Plex contains library refresh notification settings.
type Plex struct {
	Scheme         string `toml:"scheme"`
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	Token          string `toml:"token"`
	Sections       []int  `toml:"sections"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Encode contains transcode behavior knobs.
type Encode struct {
	Preset           int            `toml:"preset"`
	TimeoutSeconds   int            `toml:"timeout_seconds"`
	TVCRFFallback    int            `toml:"tv_crf_fallback"`
	MovieCRFDefaults map[string]int `toml:"movie_crf_defaults"`
	VideoExtensions  []string       `toml:"video_extensions"`
}

// Quality contains adaptive CRF search settings.
type Quality struct {
	MinCRF         int `toml:"min_crf"`
	MaxCRF         int `toml:"max_crf"`
	MinVMAF        int `toml:"min_vmaf"`
	CRFOffset      int `toml:"crf_offset"`
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Retention contains quarantine eviction settings.
type Retention struct {
	QuarantineDays int   `toml:"quarantine_days"`
	WarnDaysBefore []int `toml:"warn_days_before"`
}

// Workarea contains local scratch directory settings.
type Workarea struct {
	StaleAgeSeconds int `toml:"stale_age_seconds"`
}

// Logging contains log output settings.
type Logging struct {
	Level         string `toml:"level"`
	Format        string `toml:"format"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all settings for one pipeline run.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Library   Library   `toml:"library"`
	Plex      Plex      `toml:"plex"`
	Encode    Encode    `toml:"encode"`
	Quality   Quality   `toml:"quality"`
	Retention Retention `toml:"retention"`
	Workarea  Workarea  `toml:"workarea"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/reelsort/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("reelsort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes to. The
// library roots are created best-effort so a run can start while external
// storage is temporarily offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.QuarantineDir, c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range []string{c.Library.TVDir, c.Library.AdultTVDir, c.Library.MoviesDir, c.Library.AdultMoviesDir} {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	return nil
}

// LibraryRoot selects one of the four destination roots.
func (c *Config) LibraryRoot(movie, adult bool) string {
	switch {
	case movie && adult:
		return c.Library.AdultMoviesDir
	case movie:
		return c.Library.MoviesDir
	case adult:
		return c.Library.AdultTVDir
	default:
		return c.Library.TVDir
	}
}

// RefreshURLs builds the Plex section refresh endpoints. Empty when Plex is
// not configured.
func (c *Config) RefreshURLs() []string {
	host := strings.TrimSpace(c.Plex.Host)
	token := strings.TrimSpace(c.Plex.Token)
	if host == "" || token == "" || len(c.Plex.Sections) == 0 {
		return nil
	}
	scheme := strings.TrimSpace(c.Plex.Scheme)
	if scheme == "" {
		scheme = "http"
	}
	urls := make([]string, 0, len(c.Plex.Sections))
	for _, section := range c.Plex.Sections {
		urls = append(urls, fmt.Sprintf("%s://%s:%d/library/sections/%d/refresh?X-Plex-Token=%s",
			scheme, host, c.Plex.Port, section, token))
	}
	return urls
}

// TitleCachePath is the persistent title-lookup cache location.
func (c *Config) TitleCachePath() string {
	return filepath.Join(c.Paths.LogDir, "title_cache.json")
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// ABAV1Binary returns the ab-av1 executable name used for CRF search.
func (c *Config) ABAV1Binary() string {
	return "ab-av1"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
