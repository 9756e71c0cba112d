// Package ffmpeg drives the ffmpeg binary for AV1 transcodes.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"reelsort/internal/services"
)

// Request describes one transcode invocation.
type Request struct {
	Input              string
	Output             string
	CRF                int
	Preset             int
	BitDepth           int
	AttachedPicIndices []int
}

// Encoder is the transcode surface consumed by the pipeline. The CLI client
// implements it; tests substitute fakes.
type Encoder interface {
	Encode(ctx context.Context, req Request) error
}

// Client runs a real ffmpeg binary with a per-invocation timeout.
type Client struct {
	Binary  string
	Timeout time.Duration
}

// stderrExcerptLimit caps how much ffmpeg chatter is carried in errors.
const stderrExcerptLimit = 2048

// Encode transcodes req.Input into req.Output. Failures carry a trimmed
// stderr excerpt; callers use IsSourceVanished to distinguish the benign
// source-removed race from real encode errors.
func (c Client) Encode(ctx context.Context, req Request) error {
	binary := strings.TrimSpace(c.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	if req.Input == "" || req.Output == "" {
		return services.Wrap(services.ErrConfiguration, "encode", "ffmpeg", "input and output are required", nil)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := BuildArgs(req)
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		excerpt := excerptStderr(stderr.String())
		if ctx.Err() == context.DeadlineExceeded {
			return services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "timed out", ctx.Err())
		}
		return services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", excerpt, err)
	}
	return nil
}

// BuildArgs assembles the ffmpeg argument list: every stream, chapter and
// metadata entry is mapped and copied, only the video is re-encoded with
// libsvtav1. Attached-pic streams stay copied since libsvtav1 rejects stills.
func BuildArgs(req Request) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-y",
		"-i", req.Input,
		"-map", "0",
		"-map_metadata", "0",
		"-map_chapters", "0",
		"-c", "copy",
		"-c:v", "libsvtav1",
		"-preset", strconv.Itoa(req.Preset),
		"-crf", strconv.Itoa(req.CRF),
		"-pix_fmt", pixFmt(req.BitDepth),
		"-g", "240",
		"-svtav1-params", "tune=0",
	}
	for _, index := range req.AttachedPicIndices {
		args = append(args, fmt.Sprintf("-c:%d", index), "copy")
	}
	args = append(args, req.Output)
	return args
}

func pixFmt(bitDepth int) string {
	if bitDepth >= 10 {
		return "yuv420p10le"
	}
	return "yuv420p"
}

// IsSourceVanished reports whether err looks like ffmpeg losing its input
// mid-run: another process moved or deleted the source while we encoded.
func IsSourceVanished(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "No such file or directory")
}

func excerptStderr(output string) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "ffmpeg failed without diagnostics"
	}
	if len(trimmed) > stderrExcerptLimit {
		trimmed = trimmed[len(trimmed)-stderrExcerptLimit:]
	}
	return trimmed
}
