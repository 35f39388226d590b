package models

import (
	"fmt"
	"strings"

	"splitter/internal/sizefmt"
)

// ClipEntry records one successfully produced clip.
//
// Entries are created exactly once per successful segment, after the output
// file has been probed, and are never mutated afterwards. Use NewClipEntry to
// build one from the probe of the output file.
type ClipEntry struct {
	Filename    string      `json:"filename"`
	StartLabel  string      `json:"start_label"`
	EndLabel    string      `json:"end_label"`
	DurationSec float64     `json:"duration_sec"`
	Resolution  *Resolution `json:"resolution,omitempty"` // nil when the clip has no video stream
	FPS         float64     `json:"fps"`
	VideoCodec  string      `json:"codec_video"`
	AudioCodec  string      `json:"codec_audio"`
	BitRate     int64       `json:"bit_rate"` // bits per second
	SizeBytes   int64       `json:"size_bytes"`
}

// NewClipEntry builds a ClipEntry from the segment it covers and the
// verification probe of its output file.
//
// Returns an error if filename is empty or the size is negative.
func NewClipEntry(filename string, seg Segment, startLabel, endLabel string, info *MediaInfo, sizeBytes int64) (ClipEntry, error) {
	if strings.TrimSpace(filename) == "" {
		return ClipEntry{}, fmt.Errorf("invalid clip entry: filename cannot be empty")
	}
	if sizeBytes < 0 {
		return ClipEntry{}, fmt.Errorf("invalid clip entry: size cannot be negative")
	}

	vs := info.FirstVideo()
	as := info.FirstAudio()

	var bitRate int64
	if info != nil {
		bitRate = info.BitRate
	}

	return ClipEntry{
		Filename:    filename,
		StartLabel:  startLabel,
		EndLabel:    endLabel,
		DurationSec: seg.Duration(),
		Resolution:  vs.Resolution(),
		FPS:         vs.FrameRate.Float(),
		VideoCodec:  upperOrPlaceholder(vs.CodecName),
		AudioCodec:  upperOrPlaceholder(as.CodecName),
		BitRate:     bitRate,
		SizeBytes:   sizeBytes,
	}, nil
}

// BitRateKbps returns the clip bitrate in kilobits per second.
func (c ClipEntry) BitRateKbps() int64 {
	return c.BitRate / 1000
}

// SizeString returns the clip size formatted for display (e.g. "512.3 MB").
func (c ClipEntry) SizeString() string {
	return sizefmt.FormatSize(c.SizeBytes)
}

func upperOrPlaceholder(s string) string {
	if s == "" {
		return "?"
	}
	return strings.ToUpper(s)
}
