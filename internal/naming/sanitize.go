package naming

import (
	"fmt"
	"path/filepath"
	"strings"
)

// reservedNameChars are stripped for cross-platform safety (Windows/Linux).
const reservedNameChars = `<>:"/\|?*`

// SanitizeName removes reserved characters and trailing dots/spaces from a
// single path segment.
func SanitizeName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedNameChars, r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	return strings.TrimRight(cleaned, " .")
}

// TVDir resolves the destination directory for a TV show: the sanitized
// show name, plus a "Season NN" level when season is positive.
func TVDir(base, show string, season int) string {
	dir := filepath.Join(base, SanitizeName(show))
	if season > 0 {
		dir = filepath.Join(dir, fmt.Sprintf("Season %02d", season))
	}
	return dir
}

// MovieDir resolves the destination directory for a movie file stem:
// base/"Title (Year)".
func MovieDir(base, stem string) string {
	return filepath.Join(base, SanitizeName(MovieFolderName(stem)))
}

// DetectResolution returns the resolution tier token found in a filename
// (2160p, 1080p, 720p, 480p) or "unknown".
func DetectResolution(name string) string {
	lowered := strings.ToLower(name)
	for _, tag := range []string{"2160p", "1080p", "720p", "480p"} {
		if strings.Contains(lowered, tag) {
			return tag
		}
	}
	return "unknown"
}
