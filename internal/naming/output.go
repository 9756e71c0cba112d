package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// substitutions rewrite resolution and legacy codec tokens in the output
// stem. Applied in order, before any episode tag is inserted. The
// {bit}/{crf} placeholders are filled from the probed source bit depth and
// the resolved encode quality.
var substitutions = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)\b2160p\b`), "2160p_AV1_{bit}Bit_C{crf}"},
	{regexp.MustCompile(`(?i)\b1080p\b`), "1080p_AV1_{bit}Bit_C{crf}"},
	{regexp.MustCompile(`(?i)\b720p\b`), "720p_AV1_{bit}Bit_C{crf}"},
	{regexp.MustCompile(`(?i)\b(hevc|x265|x264|h\.265|h\.264|avc)\b`), "AV1"},
}

var preTagEpisodeMarker = regexp.MustCompile(` - \d{1,3}(?:v\d+)?`)

// BuildOutputName applies the token substitutions to a filename stem,
// e.g. "Show 1080p x265" with crf 30 on a 10-bit source becomes
// "Show 1080p_AV1_10Bit_C30 AV1".
func BuildOutputName(stem string, crf, bit int) string {
	filler := strings.NewReplacer("{crf}", fmt.Sprintf("%d", crf), "{bit}", fmt.Sprintf("%d", bit))
	name := stem
	for _, sub := range substitutions {
		name = sub.pattern.ReplaceAllString(name, filler.Replace(sub.replace))
	}
	return name
}

// EpisodeTag formats the canonical SxxExx tag. The offset is subtracted from
// the extracted episode; when the correction would drop below 1 it is
// discarded and the raw episode number used instead. A version suffix is
// appended only for versions above 1.
func EpisodeTag(season, episode, offset, version int) string {
	corrected := episode
	if offset > 0 {
		corrected = episode - offset
	}
	if corrected < 1 {
		corrected = episode
	}
	tag := fmt.Sprintf("S%02dE%02d", season, corrected)
	if version > 1 {
		tag += fmt.Sprintf("v%d", version)
	}
	return tag
}

// TagEpisode inserts the canonical episode tag into baseName, extracting the
// episode from originalName (the untouched source filename). A baseName that
// already carries an SxxExx token is returned unchanged, so re-runs are
// no-ops. When no episode can be extracted, baseName is returned unchanged.
func TagEpisode(originalName, baseName string, season, offset int) string {
	if HasEpisodeTag(baseName) {
		return baseName
	}
	episode, version, ok := ExtractEpisode(originalName)
	if !ok {
		return baseName
	}
	tag := EpisodeTag(season, episode, offset, version)
	return preTagEpisodeMarker.ReplaceAllString(baseName, " - "+tag)
}
