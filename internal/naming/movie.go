package naming

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// movieYearPattern finds a plausible release year (1900–2099) that is not
// glued to surrounding digits. Group 1 captures the year.
var movieYearPattern = regexp.MustCompile(`(?:^|[^0-9])((?:19|20)\d{2})(?:[^0-9]|$)`)

// qualityTokenPattern clips titles at the first quality/source tag when no
// year is present.
var qualityTokenPattern = regexp.MustCompile(`(?i)\b(1080p|2160p|720p|480p|web[- ]?dl|webrip|bluray|brrip|repack)\b`)

var (
	titleSeparators = regexp.MustCompile(`[._]+`)
	multiSpace      = regexp.MustCompile(`\s+`)
	wordCaser       = cases.Title(language.English)
)

// smallWords stay lowercase inside a title (never first or last word).
var smallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "into": {}, "nor": {}, "of": {}, "on": {},
	"or": {}, "over": {}, "per": {}, "the": {}, "to": {}, "via": {}, "with": {},
}

// CleanTitleSegment normalizes a raw title fragment: separators to spaces,
// collapsed whitespace, and headline-style capitalization that preserves
// all-caps acronyms.
func CleanTitleSegment(segment string) string {
	segment = titleSeparators.ReplaceAllString(segment, " ")
	segment = strings.TrimSpace(multiSpace.ReplaceAllString(segment, " "))
	words := strings.Fields(segment)
	out := make([]string, 0, len(words))
	for i, word := range words {
		lower := strings.ToLower(word)
		if _, small := smallWords[lower]; small && i != 0 && i != len(words)-1 {
			out = append(out, lower)
			continue
		}
		if word == strings.ToUpper(word) && len(word) > 1 && strings.ContainsFunc(word, isLetter) {
			out = append(out, word)
			continue
		}
		out = append(out, wordCaser.String(lower))
	}
	return strings.Join(out, " ")
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ParseMovieTitleYear extracts the movie title and release year from a
// filename stem. Without a year the title is clipped at the first
// quality/source token and year 0 is returned.
func ParseMovieTitleYear(stem string) (title string, year int) {
	loc := movieYearPattern.FindStringSubmatchIndex(stem)
	if loc == nil {
		clip := stem
		if tokenLoc := qualityTokenPattern.FindStringIndex(stem); tokenLoc != nil {
			clip = stem[:tokenLoc[0]]
		}
		return CleanTitleSegment(trimTitleTail(clip)), 0
	}
	yearStart, yearEnd := loc[2], loc[3]
	year = parseFourDigits(stem[yearStart:yearEnd])
	title = CleanTitleSegment(trimTitleTail(stem[:yearStart]))
	if title == "" {
		title = CleanTitleSegment(stem[:yearEnd])
	}
	return title, year
}

// trimTitleTail drops the separator punctuation a year or quality token
// leaves dangling after the clip, such as the opening bracket of "(2019)".
func trimTitleTail(s string) string {
	return strings.TrimRight(s, " ([-._")
}

func parseFourDigits(s string) int {
	year := 0
	for _, r := range s {
		year = year*10 + int(r-'0')
	}
	return year
}

// MovieFolderName derives "Title (Year)" (or just "Title") for a movie file
// stem.
func MovieFolderName(stem string) string {
	title, year := ParseMovieTitleYear(stem)
	if year > 0 {
		return fmt.Sprintf("%s (%d)", title, year)
	}
	return title
}

// HasMovieYear reports whether a stem contains a plausible release year.
func HasMovieYear(stem string) bool {
	return movieYearPattern.MatchString(stem)
}
