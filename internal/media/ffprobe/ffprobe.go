package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
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
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspector probes a media file.
type Inspector interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// Binary probes files with an ffprobe executable.
type Binary string

// Inspect implements Inspector.
func (b Binary) Inspect(ctx context.Context, path string) (Result, error) {
	return Inspect(ctx, string(b), path)
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
	return Parse(output)
}

// Parse decodes ffprobe's JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// HasVideo reports whether any video stream is present. Attached cover art
// is reported by ffprobe as a video stream too.
func (r Result) HasVideo() bool {
	return r.count("video") > 0
}

// HasAudio reports whether any audio stream is present.
func (r Result) HasAudio() bool {
	return r.count("audio") > 0
}

func (r Result) count(kind string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, kind) {
			count++
		}
	}
	return count
}

// Duration returns the playable duration in seconds. The container duration
// wins; otherwise the longest stream duration is used. ok is false when no
// finite duration is reported (still images, live sources).
func (r Result) Duration() (seconds float64, ok bool) {
	if d := parseFloat(r.Format.Duration); isUsable(d) {
		return d, true
	}
	best := -1.0
	for _, stream := range r.Streams {
		if d := parseFloat(stream.Duration); isUsable(d) && d > best {
			best = d
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// Dimensions returns the frame size of the first video stream.
func (r Result) Dimensions() (width, height int) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") && stream.Width > 0 {
			return stream.Width, stream.Height
		}
	}
	return 0, 0
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func isUsable(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return math.NaN()
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
