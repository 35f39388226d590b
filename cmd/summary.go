package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"splitter/internal/sizefmt"
	"splitter/internal/timeutil"
	"splitter/models"
)

// sourceSummary is the display view of a probed source.
type sourceSummary struct {
	Path        string  `json:"path"`
	Format      string  `json:"format"`
	VideoCodec  string  `json:"video_codec"`
	AudioCodec  string  `json:"audio_codec"`
	Resolution  string  `json:"resolution"`
	FPS         float64 `json:"fps"`
	Duration    float64 `json:"duration_sec"`
	DurationHMS string  `json:"duration"`
	BitRate     int64   `json:"bit_rate"`
	SizeBytes   int64   `json:"size_bytes"`
	NeedsConv   bool    `json:"needs_conversion"`
}

func summarize(info *models.MediaInfo, flagged []string) sourceSummary {
	vs := info.FirstVideo()
	resolution := "?x?"
	if r := vs.Resolution(); r != nil {
		resolution = r.String()
	}

	size := info.Size
	if size <= 0 {
		if st, err := os.Stat(info.Path); err == nil {
			size = st.Size()
		}
	}

	return sourceSummary{
		Path:        info.Path,
		Format:      info.FormatName,
		VideoCodec:  info.VideoCodec(),
		AudioCodec:  info.AudioCodec(),
		Resolution:  resolution,
		FPS:         vs.FrameRate.Float(),
		Duration:    info.Duration,
		DurationHMS: timeutil.FormatHMS(info.Duration),
		BitRate:     info.BitRate,
		SizeBytes:   size,
		NeedsConv:   info.NeedsConversion(flagged),
	}
}

func printSummary(c *console, s sourceSummary) {
	c.Printf("   File       : %s\n", filepath.Base(s.Path))
	c.Printf("   Codec      : %s / %s\n", strings.ToUpper(s.VideoCodec), strings.ToUpper(s.AudioCodec))
	c.Printf("   Resolution : %s @ %s fps\n", s.Resolution, humanize.Ftoa(s.FPS))
	c.Printf("   Duration   : %s  (%.1f min)\n", s.DurationHMS, s.Duration/60)
	if s.BitRate > 0 {
		c.Printf("   Bitrate    : %s\n", sizefmt.FormatKbps(s.BitRate))
	}
	if s.SizeBytes > 0 {
		c.Printf("   Size       : %s (%s bytes)\n", sizefmt.FormatSize(s.SizeBytes), humanize.Comma(s.SizeBytes))
	}
}

func banner(c *console, title string) {
	line := strings.Repeat("═", 59)
	c.Println(line)
	c.Println("  " + title)
	c.Println(line)
}

func section(c *console, title string) {
	c.Println()
	c.Println(title)
	c.Println(strings.Repeat("━", 61))
}
