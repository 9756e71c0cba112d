// Package abav1 wraps the ab-av1 binary's crf-search mode, which finds the
// highest CRF that still clears a VMAF floor.
package abav1

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"reelsort/internal/services"
)

// Searcher is the quality-search surface consumed by the resolver. The CLI
// client implements it; tests substitute fakes.
type Searcher interface {
	Search(ctx context.Context, input, workDir string) (int, error)
}

// Client runs a real ab-av1 binary.
type Client struct {
	Binary  string
	MinCRF  int
	MaxCRF  int
	MinVMAF float64
	Preset  int
	FFmpeg  string
	Timeout time.Duration
}

var crfLine = regexp.MustCompile(`(?m)^crf (\d+)`)

// Search runs crf-search against input. The probe input is first remuxed
// video-only into workDir so ab-av1 samples without audio overhead; when the
// remux or the search over it fails, the search retries once on the original.
func (c Client) Search(ctx context.Context, input, workDir string) (int, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	probe := input
	remux := c.remuxVideoOnly(ctx, input, workDir)
	if remux != "" {
		probe = remux
		defer os.Remove(remux)
	}

	crf, err := c.runSearch(ctx, probe)
	if err != nil && probe != input && ctx.Err() == nil {
		crf, err = c.runSearch(ctx, input)
	}
	return crf, err
}

func (c Client) runSearch(ctx context.Context, input string) (int, error) {
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		binary = "ab-av1"
	}
	args := []string{
		"crf-search",
		"-i", input,
		"--min-crf", strconv.Itoa(c.MinCRF),
		"--max-crf", strconv.Itoa(c.MaxCRF),
		"--min-vmaf", strconv.FormatFloat(c.MinVMAF, 'f', -1, 64),
		"--preset", strconv.Itoa(c.Preset),
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "crf-search failed"
		}
		return 0, services.Wrap(services.ErrExternalTool, "quality", "ab-av1", detail, err)
	}

	match := crfLine.FindStringSubmatch(stdout.String())
	if match == nil {
		return 0, services.Wrap(services.ErrExternalTool, "quality", "ab-av1", "no crf in output", nil)
	}
	crf, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "quality", "ab-av1", "unparsable crf", err)
	}
	return crf, nil
}

// remuxVideoOnly strips everything but the video stream into a work-dir
// sample. Best effort: any failure falls back to probing the original.
func (c Client) remuxVideoOnly(ctx context.Context, input, workDir string) string {
	if workDir == "" {
		return ""
	}
	ffmpeg := strings.TrimSpace(c.FFmpeg)
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	sample := filepath.Join(workDir, fmt.Sprintf("probe_%s", filepath.Base(input)))
	cmd := exec.CommandContext(ctx, ffmpeg,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", input,
		"-map", "0:v:0",
		"-c", "copy",
		sample)
	if err := cmd.Run(); err != nil {
		os.Remove(sample)
		return ""
	}
	return sample
}
