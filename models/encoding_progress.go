package models

import (
	"fmt"
	"time"
)

// EncodingProgress holds the live encoder statistics for the segment that is
// currently running. It is parsed from ffmpeg's -stats output and is only
// used for logging and interactive display; batch-level progress travels as
// ProgressEvent values.
type EncodingProgress struct {
	SegmentIndex int // 0-based index of the segment being encoded

	Frame       int64   // Current frame number
	FPS         float64 // Frames per second being processed
	CurrentTime string  // Output position (HH:MM:SS.MS)
	OutSeconds  float64 // Output position in seconds

	Bitrate string  // e.g. "128.0kbits/s"
	Speed   float64 // realtime multiplier, 2.34 means 2.34x
	Size    string  // e.g. "1024kB"

	TotalDuration float64 // Segment duration in seconds
	Percent       float64 // 0-100

	StartTime time.Time
	UpdatedAt time.Time
}

// ProgressCallback receives encoder statistics while a segment runs.
type ProgressCallback func(progress *EncodingProgress)

// NewEncodingProgress creates a tracker for a segment of the given duration.
func NewEncodingProgress(segmentIndex int, totalDuration float64) *EncodingProgress {
	now := time.Now()
	return &EncodingProgress{
		SegmentIndex:  segmentIndex,
		TotalDuration: totalDuration,
		StartTime:     now,
		UpdatedAt:     now,
	}
}

// CalculateProgress updates the completion percentage from the output
// position, capped at 100.
func (ep *EncodingProgress) CalculateProgress(currentSeconds float64) {
	ep.OutSeconds = currentSeconds
	if ep.TotalDuration > 0 {
		ep.Percent = (currentSeconds / ep.TotalDuration) * 100
		if ep.Percent > 100 {
			ep.Percent = 100
		}
	}
	ep.UpdatedAt = time.Now()
}

// EstimatedTimeRemaining extrapolates the wall-clock time left from the
// elapsed time and the completion percentage.
func (ep *EncodingProgress) EstimatedTimeRemaining() time.Duration {
	if ep.Speed <= 0 || ep.Percent <= 0 {
		return 0
	}

	elapsed := time.Since(ep.StartTime)
	totalEstimated := time.Duration(float64(elapsed) / (ep.Percent / 100))
	remaining := totalEstimated - elapsed

	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatSummary returns a one-line summary suitable for a terminal status line.
func (ep *EncodingProgress) FormatSummary() string {
	return fmt.Sprintf(
		"segment=%d %.1f%% time=%s speed=%.2fx bitrate=%s size=%s eta=%s",
		ep.SegmentIndex+1,
		ep.Percent,
		ep.CurrentTime,
		ep.Speed,
		ep.Bitrate,
		ep.Size,
		formatDuration(ep.EstimatedTimeRemaining()),
	)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "calculating..."
	}

	seconds := int(d.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	seconds = seconds % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}
