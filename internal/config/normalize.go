package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtensions()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.root_dir", &c.Paths.RootDir},
		{"paths.rules_csv", &c.Paths.RulesCSV},
		{"paths.quarantine_dir", &c.Paths.QuarantineDir},
		{"paths.work_dir", &c.Paths.WorkDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"library.tv_dir", &c.Library.TVDir},
		{"library.adult_tv_dir", &c.Library.AdultTVDir},
		{"library.movies_dir", &c.Library.MoviesDir},
		{"library.adult_movies_dir", &c.Library.AdultMoviesDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			continue
		}
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	for i := range c.Paths.MovieInboxes {
		c.Paths.MovieInboxes[i].Name = strings.TrimSpace(c.Paths.MovieInboxes[i].Name)
	}
	return nil
}

func (c *Config) normalizeExtensions() {
	normalized := make([]string, 0, len(c.Encode.VideoExtensions))
	for _, ext := range c.Encode.VideoExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	if len(normalized) > 0 {
		c.Encode.VideoExtensions = normalized
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
}
