// Package ffprobe inspects media containers through the ffprobe binary.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index            int         `json:"index"`
	CodecName        string      `json:"codec_name"`
	CodecType        string      `json:"codec_type"`
	PixFmt           string      `json:"pix_fmt"`
	BitsPerRawSample string      `json:"bits_per_raw_sample"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	Disposition      Disposition `json:"disposition"`
}

// Disposition carries the stream flags the encode mapper cares about.
type Disposition struct {
	AttachedPic int `json:"attached_pic"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Prober is the inspection surface consumed by the classifier and the
// pipeline. The CLI client implements it; tests substitute fakes.
type Prober interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// Client runs a real ffprobe binary.
type Client struct {
	Binary string
}

// Inspect probes path with the configured binary.
func (c Client) Inspect(ctx context.Context, path string) (Result, error) {
	return Inspect(ctx, c.Binary, path)
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w: %s", err, strings.TrimSpace(string(output)))
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// firstVideo returns the primary (non attached-pic) video stream.
func (r Result) firstVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Disposition.AttachedPic == 0 {
			return stream, true
		}
	}
	return Stream{}, false
}

// HasVideoStream reports whether the container holds a playable video stream.
func (r Result) HasVideoStream() bool {
	_, ok := r.firstVideo()
	return ok
}

// CodecName returns the codec of the primary video stream, lowercased, or "".
func (r Result) CodecName() string {
	stream, ok := r.firstVideo()
	if !ok {
		return ""
	}
	return strings.ToLower(stream.CodecName)
}

// BitDepth returns 10 when the primary video stream carries 10-bit samples
// and 8 otherwise.
func (r Result) BitDepth() int {
	stream, ok := r.firstVideo()
	if !ok {
		return 8
	}
	if n, err := strconv.Atoi(strings.TrimSpace(stream.BitsPerRawSample)); err == nil && n >= 10 {
		return 10
	}
	if strings.Contains(strings.ToLower(stream.PixFmt), "10") {
		return 10
	}
	return 8
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	cleaned := strings.TrimSpace(r.Format.Duration)
	if cleaned == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// AttachedPicIndices lists the indices of cover-art video streams. The
// encoder forces these to stream copy since libsvtav1 cannot encode stills.
func (r Result) AttachedPicIndices() []int {
	var indices []int
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Disposition.AttachedPic != 0 {
			indices = append(indices, stream.Index)
		}
	}
	return indices
}
