package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Any error here aborts the
// run before a single file is touched.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateEncode(); err != nil {
		return err
	}
	if err := c.validateQuality(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.root_dir":       c.Paths.RootDir,
		"paths.rules_csv":      c.Paths.RulesCSV,
		"paths.quarantine_dir": c.Paths.QuarantineDir,
		"paths.work_dir":       c.Paths.WorkDir,
		"paths.log_dir":        c.Paths.LogDir,
	}
	for _, key := range []string{"paths.root_dir", "paths.rules_csv", "paths.quarantine_dir", "paths.work_dir", "paths.log_dir"} {
		if strings.TrimSpace(required[key]) == "" {
			return fmt.Errorf("%s must be set (create a config with 'reelsort config init')", key)
		}
	}
	for i, inbox := range c.Paths.MovieInboxes {
		if inbox.Name == "" {
			return fmt.Errorf("paths.movie_inbox[%d].name must not be empty", i)
		}
		if strings.ContainsAny(inbox.Name, `/\`) {
			return fmt.Errorf("paths.movie_inbox[%d].name must be a plain directory name, got %q", i, inbox.Name)
		}
	}
	return nil
}

func (c *Config) validateLibrary() error {
	required := []struct {
		key   string
		value string
	}{
		{"library.tv_dir", c.Library.TVDir},
		{"library.adult_tv_dir", c.Library.AdultTVDir},
		{"library.movies_dir", c.Library.MoviesDir},
		{"library.adult_movies_dir", c.Library.AdultMoviesDir},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s must be set", field.key)
		}
	}
	return nil
}

func (c *Config) validateEncode() error {
	if c.Encode.Preset < 0 || c.Encode.Preset > 13 {
		return errors.New("encode.preset must be between 0 and 13")
	}
	if c.Encode.TimeoutSeconds <= 0 {
		return errors.New("encode.timeout_seconds must be positive")
	}
	if c.Encode.TVCRFFallback <= 0 || c.Encode.TVCRFFallback > 63 {
		return errors.New("encode.tv_crf_fallback must be within 1..63")
	}
	for profile, crf := range c.Encode.MovieCRFDefaults {
		if crf <= 0 || crf > 63 {
			return fmt.Errorf("encode.movie_crf_defaults[%q] must be within 1..63", profile)
		}
	}
	if len(c.Encode.VideoExtensions) == 0 {
		return errors.New("encode.video_extensions must not be empty")
	}
	return nil
}

func (c *Config) validateQuality() error {
	if c.Quality.MinCRF <= 0 || c.Quality.MaxCRF <= 0 {
		return errors.New("quality.min_crf and quality.max_crf must be positive")
	}
	if c.Quality.MinCRF > c.Quality.MaxCRF {
		return errors.New("quality.min_crf must not exceed quality.max_crf")
	}
	if c.Quality.MinVMAF <= 0 || c.Quality.MinVMAF > 100 {
		return errors.New("quality.min_vmaf must be within 1..100")
	}
	if c.Quality.CRFOffset < 0 {
		return errors.New("quality.crf_offset must not be negative")
	}
	if c.Quality.TimeoutSeconds <= 0 {
		return errors.New("quality.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if c.Retention.QuarantineDays <= 0 {
		return errors.New("retention.quarantine_days must be positive")
	}
	for _, days := range c.Retention.WarnDaysBefore {
		if days <= 0 || days >= c.Retention.QuarantineDays {
			return fmt.Errorf("retention.warn_days_before entries must be within 1..%d", c.Retention.QuarantineDays-1)
		}
	}
	return nil
}
