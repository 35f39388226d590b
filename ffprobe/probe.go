// Package ffprobe extracts media metadata by running the ffprobe command-line
// tool and converting its JSON report into models.MediaInfo.
package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"splitter/internal/log"
	"splitter/internal/metrics"
	"splitter/internal/tailbuf"
	"splitter/models"
)

// DefaultBinary is the executable used when Prober.Binary is empty.
const DefaultBinary = "ffprobe"

// detailLimit bounds the diagnostic output carried by ProbeError.
const detailLimit = 200

// ProbeError reports that a file could not be probed.
//
// Detail holds the tail of the tool's diagnostic output, or the reason the
// JSON could not be used.
type ProbeError struct {
	Path   string
	Detail string
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("probe %s failed", e.Path)
	}
	return fmt.Sprintf("probe %s failed: %s", e.Path, e.Detail)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Stream represents a media stream (audio, video, subtitle, etc.)
type Stream struct {
	Index         int    `json:"index"`
	CodecName     string `json:"codec_name"`
	CodecType     string `json:"codec_type"`
	CodecLongName string `json:"codec_long_name"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	PixFmt        string `json:"pix_fmt,omitempty"`
	RFrameRate    string `json:"r_frame_rate,omitempty"`
	SampleRate    string `json:"sample_rate,omitempty"`
	Channels      int    `json:"channels,omitempty"`
	ChannelLayout string `json:"channel_layout,omitempty"`
	Duration      string `json:"duration,omitempty"`
	BitRate       string `json:"bit_rate,omitempty"`
}

// Format represents the container format information.
type Format struct {
	Filename       string `json:"filename"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
}

// ffprobeOutput represents the raw JSON output from ffprobe.
type ffprobeOutput struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Prober runs ffprobe against media files.
//
// The zero value uses "ffprobe" from PATH. Metrics is optional.
type Prober struct {
	Binary  string
	Metrics *metrics.Metrics
}

// NewProber returns a Prober for the given executable.
func NewProber(binary string) *Prober {
	return &Prober{Binary: binary}
}

func (p *Prober) binary() string {
	if p == nil || p.Binary == "" {
		return DefaultBinary
	}
	return p.Binary
}

// Probe analyzes a media file and returns its metadata.
//
// Any failure (missing executable, non-zero exit, unusable JSON) is returned as
// *ProbeError. There are no retries.
//
// Example:
//
//	info, err := ffprobe.NewProber("ffprobe").Probe(ctx, "/path/to/video.mp4")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Duration: %.2f seconds\n", info.Duration)
func (p *Prober) Probe(ctx context.Context, path string) (*models.MediaInfo, error) {
	info, err := p.probe(ctx, path)
	if p != nil {
		p.Metrics.ObserveProbe(err == nil)
	}
	return info, err
}

func (p *Prober) probe(ctx context.Context, path string) (*models.MediaInfo, error) {
	if path == "" {
		return nil, &ProbeError{Path: path, Detail: "source path cannot be empty"}
	}

	logger := log.WithComponent("ffprobe")

	// -v quiet keeps stderr limited to fatal diagnostics
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.binary(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug().Str("binary", p.binary()).Str("path", path).Msg("probing")

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logger.Debug().Int("exit_code", exitErr.ExitCode()).Str("path", path).Msg("ffprobe exited with error")
		}
		return nil, &ProbeError{Path: path, Detail: tailbuf.Last(detail, detailLimit), Err: err}
	}

	info, err := Parse(stdout.Bytes())
	if err != nil {
		return nil, &ProbeError{Path: path, Detail: tailbuf.Last(err.Error(), detailLimit), Err: err}
	}
	info.Path = path
	return info, nil
}

// Parse converts an ffprobe JSON report into MediaInfo.
//
// Duration is taken from the container, falling back to the first video
// stream, else 0. Numeric fields ffprobe omits are left at zero.
func Parse(data []byte) (*models.MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}

	info := &models.MediaInfo{
		Path:       raw.Format.Filename,
		FormatName: raw.Format.FormatName,
		Duration:   parseFloat(raw.Format.Duration),
		BitRate:    parseInt(raw.Format.BitRate),
		Size:       parseInt(raw.Format.Size),
		Streams:    make([]models.StreamInfo, 0, len(raw.Streams)),
	}

	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			v := models.VideoStreamInfo{
				CodecName:   s.CodecName,
				Width:       s.Width,
				Height:      s.Height,
				FrameRate:   parseRational(s.RFrameRate),
				PixelFormat: s.PixFmt,
			}
			if info.Duration == 0 && !info.HasVideo() {
				info.Duration = parseFloat(s.Duration)
			}
			info.Streams = append(info.Streams, v)
		case "audio":
			info.Streams = append(info.Streams, models.AudioStreamInfo{
				CodecName:     s.CodecName,
				SampleRate:    int(parseInt(s.SampleRate)),
				Channels:      s.Channels,
				ChannelLayout: s.ChannelLayout,
			})
		default:
			info.Streams = append(info.Streams, models.OtherStreamInfo{
				CodecName: s.CodecName,
				RawType:   s.CodecType,
			})
		}
	}

	return info, nil
}

func parseFloat(s string) float64 {
	if s == "" || s == "N/A" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	if s == "" || s == "N/A" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseRational parses "num/den". A plain number is treated as num/1.
func parseRational(s string) models.Rational {
	num, den, found := strings.Cut(s, "/")
	if !found {
		den = "1"
	}
	n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
	if err != nil {
		return models.Rational{}
	}
	d, err := strconv.ParseInt(strings.TrimSpace(den), 10, 64)
	if err != nil {
		return models.Rational{}
	}
	return models.Rational{Num: n, Den: d}
}
