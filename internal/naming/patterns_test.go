package naming

import "testing"

func TestExtractEpisodePriorityTable(t *testing.T) {
	cases := []struct {
		name    string
		episode int
		version int
		ok      bool
	}{
		// Pattern 1: explicit E token.
		{"[Group] Show - E03 [1080p].mkv", 3, 1, true},
		{"show.e7.mkv", 7, 1, true},
		{"Show E03v2.mkv", 3, 2, true},
		// E glued to digits must not match as pattern 1; the dash rule
		// doesn't apply either, so the Ep-word rule decides.
		{"Show E1234 something", 0, 0, false},
		// Pattern 2: x token.
		{"Show 2x03 [720p].mkv", 3, 1, true},
		{"show x12.mkv", 12, 1, true},
		// Pattern 3: dash before bracket/paren/period/end.
		{"Show - 03 [1080p].mkv", 3, 1, true},
		{"Show - 12.mkv", 12, 1, true},
		{"Show - 12v2.mkv", 12, 2, true},
		{"S3 - 03 (1080p).mkv", 3, 1, true},
		{"Show – 45 [x]", 45, 1, true},
		// Pattern 4: Episode word.
		{"Show Episode 09.mkv", 9, 1, true},
		{"Show Ep.04.mkv", 4, 1, true},
		{"Show Ep-11.mkv", 11, 1, true},
		// No signal.
		{"Some Movie (2019) 1080p.mkv", 0, 0, false},
		{"README.txt", 0, 0, false},
	}
	for _, tc := range cases {
		episode, version, ok := ExtractEpisode(tc.name)
		if ok != tc.ok {
			t.Errorf("%q: ok=%v, want %v", tc.name, ok, tc.ok)
			continue
		}
		if !ok {
			continue
		}
		if episode != tc.episode || version != tc.version {
			t.Errorf("%q: got (ep=%d, v=%d), want (ep=%d, v=%d)", tc.name, episode, version, tc.episode, tc.version)
		}
	}
}

func TestExtractEpisodeOrderIsTieBreak(t *testing.T) {
	// Both an E token and a dash-number are present; the E token wins
	// because its pattern comes first.
	episode, _, ok := ExtractEpisode("Show E05 - 99 [1080p].mkv")
	if !ok || episode != 5 {
		t.Fatalf("expected E-token priority (episode 5), got %d ok=%v", episode, ok)
	}
}

func TestIsEpisodeLike(t *testing.T) {
	likes := []string{
		"Show S01E03.mkv",
		"Show - 03 [1080p].mkv",
		"Show 2x03.mkv",
		"Show Episode 4.mkv",
	}
	for _, name := range likes {
		if !IsEpisodeLike(name) {
			t.Errorf("%q should be episode-like", name)
		}
	}
	dislikes := []string{
		"Some Movie (2019) 1080p.mkv",
		"Holiday Footage.mkv",
	}
	for _, name := range dislikes {
		if IsEpisodeLike(name) {
			t.Errorf("%q should not be episode-like", name)
		}
	}
}
