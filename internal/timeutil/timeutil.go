// Package timeutil provides time formatting utilities for FFmpeg commands,
// clip labels and reports.
package timeutil

import (
	"fmt"
	"strings"
)

// FormatHMS converts seconds to HH:MM:SS, truncating fractional seconds.
//
// This is the seek format passed to ffmpeg's -ss option.
//
// Example:
//
//	FormatHMS(3661.9) // "01:01:01"
func FormatHMS(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatHM converts seconds to an HH:MM clip label, truncating seconds.
//
// Example:
//
//	FormatHM(3661) // "01:01"
func FormatHM(seconds float64) string {
	total := wholeSeconds(seconds)
	return fmt.Sprintf("%02d:%02d", total/3600, (total%3600)/60)
}

// DurationLabel renders a compact human duration such as "1h 2m 3s".
// Zero components are omitted; a zero duration renders as "0s".
func DurationLabel(seconds float64) string {
	total := wholeSeconds(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}

func wholeSeconds(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(seconds)
}
