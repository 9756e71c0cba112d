package metadata

import (
	"regexp"
	"strings"
)

var (
	leadingGroupPattern   = regexp.MustCompile(`^\[[^\]]+\]\s*`)
	extensionPattern      = regexp.MustCompile(`\.[a-zA-Z0-9]{2,4}$`)
	parenGroupPattern     = regexp.MustCompile(`\([^)]*\)`)
	bracketGroupPattern   = regexp.MustCompile(`\[[^\]]*\]`)
	episodeMarkerPattern  = regexp.MustCompile(`\s+-\s+\d{1,4}(?:v\d+)?`)
	seasonTokenPattern    = regexp.MustCompile(`(?i)\b(S(?:eason)?\s*\d{1,2})\b`)
	qualityTokenPattern   = regexp.MustCompile(`(?i)\b(480p|720p|1080p|2160p|4k|x264|x265|hevc|avc|h\.?264|h\.?265|webrip|web[- ]?dl|bluray|brrip|repack)\b`)
	trailingNumberPattern = regexp.MustCompile(`\b\d{1,4}\b$`)
	whitespacePattern     = regexp.MustCompile(`\s+`)
)

// GuessFromFilename reduces a release filename to a bare title suitable as a
// lookup query: release-group brackets, extension, parenthesized and
// bracketed groups, episode markers, season and quality tokens all go.
func GuessFromFilename(name string) string {
	guess := leadingGroupPattern.ReplaceAllString(name, "")
	guess = extensionPattern.ReplaceAllString(guess, "")
	guess = parenGroupPattern.ReplaceAllString(guess, "")
	guess = bracketGroupPattern.ReplaceAllString(guess, "")
	guess = strings.NewReplacer("_", " ", ".", " ").Replace(guess)
	if loc := episodeMarkerPattern.FindStringIndex(guess); loc != nil {
		guess = guess[:loc[0]]
	}
	guess = seasonTokenPattern.ReplaceAllString(guess, "")
	guess = qualityTokenPattern.ReplaceAllString(guess, "")
	guess = trailingNumberPattern.ReplaceAllString(guess, "")
	guess = whitespacePattern.ReplaceAllString(guess, " ")
	return strings.Trim(guess, " .-_")
}
