package naming

import (
	"regexp"
	"strconv"
)

// episodePatterns is tried in order; the first match wins. When a pattern
// carries a second capture group, a numeric value there is the explicit
// release version.
var episodePatterns = []*regexp.Regexp{
	// "E03", "e3", "E03v2" — not glued to other alphanumerics.
	regexp.MustCompile(`(?i)(?:^|[^a-z0-9])e(\d{1,3})(?:v(\d+))?(?:[^0-9]|$)`),

	// "x03", "2x03" — the x may sit on a word boundary or right after the
	// season digit.
	regexp.MustCompile(`(?i)(?:\b|\d)x(\d{1,3})(?:[^0-9]|$)`),

	// A dash (any glyph) followed by the episode number before a bracket,
	// parenthesis, period, or end: "Part 2 - 03 [1080p]", "Show - 12.mkv",
	// "Show - 12v2.mkv".
	regexp.MustCompile(`[-–—]\s*(\d{1,3})(?:v(\d+))?\s*(?:\[|\(|\.|$)`),

	// "Episode 03", "Ep 03", "Ep.03", "Ep-03".
	regexp.MustCompile(`(?i)\b(?:episode|ep|ep\.)[\s.\-:]*?(\d{1,3})\b`),
}

var sxxExxPattern = regexp.MustCompile(`(?i)s\d{1,2}e\d{1,3}`)

// ExtractEpisode pulls the episode number and release version out of a raw
// filename. Version defaults to 1 when the winning pattern has no version
// marker.
func ExtractEpisode(name string) (episode, version int, ok bool) {
	for _, pattern := range episodePatterns {
		m := pattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		episode, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		version = 1
		if len(m) > 2 && m[2] != "" {
			if v, err := strconv.Atoi(m[2]); err == nil {
				version = v
			}
		}
		return episode, version, true
	}
	return 0, 0, false
}

// IsEpisodeLike reports whether a filename carries an SxxExx token or
// matches any of the loose episode patterns.
func IsEpisodeLike(name string) bool {
	if sxxExxPattern.MatchString(name) {
		return true
	}
	for _, pattern := range episodePatterns {
		if pattern.MatchString(name) {
			return true
		}
	}
	return false
}

// HasEpisodeTag reports whether a name already carries an SxxExx token.
func HasEpisodeTag(name string) bool {
	return sxxExxPattern.MatchString(name)
}
