package ffmpeg

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	args := BuildArgs(Request{
		Input:    "/in/show.mkv",
		Output:   "/out/show.mkv",
		CRF:      30,
		Preset:   6,
		BitDepth: 10,
	})
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-i /in/show.mkv",
		"-map 0",
		"-map_metadata 0",
		"-map_chapters 0",
		"-c copy",
		"-c:v libsvtav1",
		"-preset 6",
		"-crf 30",
		"-pix_fmt yuv420p10le",
		"-g 240",
		"-svtav1-params tune=0",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "/out/show.mkv" {
		t.Fatalf("output must be the final argument, got %q", args[len(args)-1])
	}
}

func TestBuildArgsEightBitAndAttachedPics(t *testing.T) {
	args := BuildArgs(Request{
		Input:              "in.mkv",
		Output:             "out.mkv",
		CRF:                26,
		Preset:             4,
		BitDepth:           8,
		AttachedPicIndices: []int{2, 4},
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-pix_fmt yuv420p -g") {
		t.Errorf("expected 8-bit pixel format: %s", joined)
	}
	if !strings.Contains(joined, "-c:2 copy") || !strings.Contains(joined, "-c:4 copy") {
		t.Errorf("attached pic streams must be forced to copy: %s", joined)
	}
}

func TestIsSourceVanished(t *testing.T) {
	vanished := errors.New("ffmpeg: /inbox/show.mkv: No such file or directory")
	if !IsSourceVanished(vanished) {
		t.Fatal("expected vanish detection")
	}
	if IsSourceVanished(errors.New("invalid data found when processing input")) {
		t.Fatal("ordinary encode errors must not read as vanished")
	}
	if IsSourceVanished(nil) {
		t.Fatal("nil error must not read as vanished")
	}
}
