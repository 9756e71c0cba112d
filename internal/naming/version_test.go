package naming

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("touch %s: %v", name, err)
	}
}

func TestParseTagged(t *testing.T) {
	cases := []struct {
		name                      string
		season, episode, version  int
		ok                        bool
	}{
		{"Show - S02E05 [1080p].mkv", 2, 5, 1, true},
		{"Show - S02E05v2 [1080p].mkv", 2, 5, 2, true},
		{"show - s2e5v3.mkv", 2, 5, 3, true},
		{"Show - 05.mkv", 0, 0, 0, false},
	}
	for _, tc := range cases {
		s, e, v, ok := ParseTagged(tc.name)
		if ok != tc.ok {
			t.Errorf("%q: ok=%v want %v", tc.name, ok, tc.ok)
			continue
		}
		if ok && (s != tc.season || e != tc.episode || v != tc.version) {
			t.Errorf("%q: got (%d,%d,%d)", tc.name, s, e, v)
		}
	}
}

func TestMaxExistingVersion(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Show - S02E05 [1080p].mkv")
	touch(t, dir, "Show - S02E05v2 [1080p].mkv")
	touch(t, dir, "Show - S02E06 [1080p].mkv")
	touch(t, dir, "Unrelated.mkv")

	max, err := MaxExistingVersion(dir, 2, 5)
	if err != nil {
		t.Fatalf("MaxExistingVersion: %v", err)
	}
	if max != 2 {
		t.Fatalf("expected max version 2, got %d", max)
	}

	max, err = MaxExistingVersion(dir, 2, 7)
	if err != nil || max != 0 {
		t.Fatalf("absent pair should yield 0, got %d err=%v", max, err)
	}
}

func TestMaxExistingVersionMissingDir(t *testing.T) {
	max, err := MaxExistingVersion(filepath.Join(t.TempDir(), "nope"), 1, 1)
	if err != nil || max != 0 {
		t.Fatalf("missing dir should count as empty, got %d err=%v", max, err)
	}
}

func TestSupersededFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Show - S02E05 [1080p].mkv")
	touch(t, dir, "Show - S02E05v2 [1080p].mkv")
	touch(t, dir, "Show - S02E05v3 [1080p].mkv")
	touch(t, dir, "Show - S02E06 [1080p].mkv")

	stale, err := SupersededFiles(dir, 2, 5, 3)
	if err != nil {
		t.Fatalf("SupersededFiles: %v", err)
	}
	if len(stale) != 2 {
		t.Fatalf("expected 2 superseded files, got %v", stale)
	}
	for _, name := range stale {
		if name == "Show - S02E05v3 [1080p].mkv" || name == "Show - S02E06 [1080p].mkv" {
			t.Fatalf("%q must not be superseded", name)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	cases := []struct{ in, want string }{
		{`Show: The "Return"?`, "Show The Return"},
		{"Trailing dots...", "Trailing dots"},
		{"  padded  ", "padded"},
		{`a/b\c`, "abc"},
	}
	for _, tc := range cases {
		if got := SanitizeName(tc.in); got != tc.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTVDir(t *testing.T) {
	if got := TVDir("/lib/tv", "Show: Redux", 3); got != filepath.Join("/lib/tv", "Show Redux", "Season 03") {
		t.Fatalf("got %q", got)
	}
	if got := TVDir("/lib/tv", "Special", 0); got != filepath.Join("/lib/tv", "Special") {
		t.Fatalf("season 0 should omit the season level, got %q", got)
	}
}

func TestMovieDir(t *testing.T) {
	want := filepath.Join("/lib/movies", "The Big Heist (2019)")
	if got := MovieDir("/lib/movies", "The.Big.Heist.2019.1080p"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
