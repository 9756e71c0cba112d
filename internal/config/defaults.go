package config

const (
	defaultQuarantineDir        = "~/.local/share/reelsort/quarantine"
	defaultWorkDir              = "~/.local/share/reelsort/work"
	defaultLogDir               = "~/.local/share/reelsort/logs"
	defaultLogRetentionDays     = 14
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultEncodePreset         = 6
	defaultEncodeTimeoutSeconds = 14400
	defaultTVCRFFallback        = 32
	defaultQualityMinCRF        = 26
	defaultQualityMaxCRF        = 40
	defaultQualityMinVMAF       = 92
	defaultQualityCRFOffset     = 4
	defaultQualityTimeout       = 3600
	defaultQuarantineDays       = 30
	defaultStaleAgeSeconds      = 86400
	defaultPlexScheme           = "http"
	defaultPlexRequestTimeout   = 5
)

// Default returns a Config populated with repository defaults. Path fields
// without sensible defaults (root_dir, rules_csv, library roots) stay empty
// and are caught by Validate.
func Default() Config {
	return Config{
		Paths: Paths{
			QuarantineDir: defaultQuarantineDir,
			WorkDir:       defaultWorkDir,
			LogDir:        defaultLogDir,
		},
		Plex: Plex{
			Scheme:         defaultPlexScheme,
			Port:           32400,
			RequestTimeout: defaultPlexRequestTimeout,
		},
		Encode: Encode{
			Preset:         defaultEncodePreset,
			TimeoutSeconds: defaultEncodeTimeoutSeconds,
			TVCRFFallback:  defaultTVCRFFallback,
			MovieCRFDefaults: map[string]int{
				"2160p":   26,
				"1080p":   30,
				"720p":    32,
				"default": 32,
			},
			VideoExtensions: []string{".mkv", ".mp4"},
		},
		Quality: Quality{
			MinCRF:         defaultQualityMinCRF,
			MaxCRF:         defaultQualityMaxCRF,
			MinVMAF:        defaultQualityMinVMAF,
			CRFOffset:      defaultQualityCRFOffset,
			TimeoutSeconds: defaultQualityTimeout,
		},
		Retention: Retention{
			QuarantineDays: defaultQuarantineDays,
			WarnDaysBefore: []int{7, 3, 1},
		},
		Workarea: Workarea{
			StaleAgeSeconds: defaultStaleAgeSeconds,
		},
		Logging: Logging{
			Level:         defaultLogLevel,
			Format:        defaultLogFormat,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
