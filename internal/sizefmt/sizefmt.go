// Package sizefmt formats byte counts and bitrates for clip summaries.
package sizefmt

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

const (
	mebibyte = 1024 * 1024
	gibibyte = 1024 * mebibyte
)

// FormatSize renders a file size the way clip summaries show it: gigabytes
// with two decimals from 1 GiB upwards, megabytes with one decimal below.
//
// Example:
//
//	FormatSize(157286400)  // "150.0 MB"
//	FormatSize(2147483648) // "2.00 GB"
func FormatSize(bytes int64) string {
	if bytes >= gibibyte {
		return fmt.Sprintf("%.2f GB", float64(bytes)/gibibyte)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/mebibyte)
}

// FormatKbps renders a bitrate in bits per second as grouped kilobits, e.g.
// "4,523 kbps".
func FormatKbps(bitsPerSecond int64) string {
	return humanize.Comma(bitsPerSecond/1000) + " kbps"
}

// Human renders a byte count with binary prefixes for log fields, e.g.
// "150 MiB".
func Human(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}
