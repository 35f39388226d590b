// Package report writes the human-readable README.txt that accompanies a
// split batch.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/renameio/v2"

	"splitter/command/segment"
	"splitter/internal/log"
	"splitter/internal/sizefmt"
	"splitter/internal/timeutil"
	"splitter/models"
)

// FileName is the name of the report inside the output directory.
const FileName = "README.txt"

const (
	divider    = "================================================================="
	subDivider = "-----------------------------------------------------------------"
)

// Column widths of the clip summary table.
var columns = [6]int{4, 36, 14, 13, 9, 9}

// Input is everything the report describes.
type Input struct {
	OutputDir      string
	SourcePath     string
	Source         *models.MediaInfo
	Clips          []models.ClipEntry
	SegmentMinutes float64
	Transcode      bool
	Video          segment.VideoSettings
	Audio          segment.AudioSettings
}

// Generator renders and writes reports. The zero value is ready to use.
type Generator struct {
	// Now returns the creation timestamp; defaults to time.Now.
	Now func() time.Time
}

// NewGenerator returns a Generator using the wall clock.
func NewGenerator() *Generator {
	return &Generator{Now: time.Now}
}

func (g *Generator) now() time.Time {
	if g == nil || g.Now == nil {
		return time.Now()
	}
	return g.Now()
}

// Generate writes README.txt into in.OutputDir, atomically replacing any
// previous report, and returns its path.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	logger := log.WithComponent("report")

	sourceSize := sourceFileSize(in)
	text := Render(in, g.now(), sourceSize)

	path := filepath.Join(in.OutputDir, FileName)

	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return "", fmt.Errorf("create pending report file: %w", err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug().Err(err).Msg("cleanup pending report file")
		}
	}()

	if _, err := pendingFile.WriteString(text); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("atomically replace report: %w", err)
	}

	logger.Debug().Str("path", path).Int("clips", len(in.Clips)).Msg("report written")
	return path, nil
}

func sourceFileSize(in Input) int64 {
	if in.Source != nil && in.Source.Size > 0 {
		return in.Source.Size
	}
	if fi, err := os.Stat(in.SourcePath); err == nil && fi.Mode().IsRegular() {
		return fi.Size()
	}
	return 0
}

// Render produces the report text.
func Render(in Input, now time.Time, sourceSize int64) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	outDir := in.OutputDir
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}

	src := in.Source
	vs := src.FirstVideo()
	as := src.FirstAudio()
	var duration float64
	if src != nil {
		duration = src.Duration
	}

	line(divider)
	line("  VIDEO SPLITTER - README")
	line("  Created  : %s", now.Format("2006-01-02 15:04:05"))
	line("  Output   : %s", outDir)
	line(divider)
	line("")

	line("[ SOURCE VIDEO ]")
	line(subDivider)
	line("  File             : %s", filepath.Base(in.SourcePath))
	line("  Path             : %s", in.SourcePath)
	line("  File Size        : %s", sizefmt.FormatSize(sourceSize))
	line("  Total Duration   : %s  (%s)", timeutil.DurationLabel(duration), timeutil.FormatHMS(duration))
	line("  Resolution       : %s x %s", orPlaceholder(vs.Width), orPlaceholder(vs.Height))
	line("  Frame Rate       : %s fps", formatFPS(vs.FrameRate.Float()))
	line("  Pixel Format     : %s", stringOr(vs.PixelFormat, "?"))
	line("  Video Codec      : %s", strings.ToUpper(src.VideoCodec()))
	line("  Audio Codec      : %s", strings.ToUpper(src.AudioCodec()))
	line("  Sample Rate      : %s Hz", orPlaceholder(as.SampleRate))
	line("  Audio Channel    : %s ch  (%s)", orPlaceholder(as.Channels), as.ChannelLayout)
	line("  Total Bitrate    : %s", sizefmt.FormatKbps(bitRate(src)))
	line("")

	line("[ SPLIT SETTINGS ]")
	line(subDivider)
	line("  Duration per clip    : %s min", formatMinutes(in.SegmentMinutes))
	line("  Number of clips      : %d files", len(in.Clips))
	if in.Transcode {
		line("  Conversion           : %s -> %s (re-encode)", strings.ToUpper(src.VideoCodec()), codecFamily(in.Video.Codec))
		line("  Output Video Codec   : %s (%s)", codecFamily(in.Video.Codec), in.Video.Codec)
		line("  Output Audio Codec   : %s %s", strings.ToUpper(in.Audio.Codec), bitrateLabel(in.Audio.Bitrate))
		line("  Quality              : %d  (scale 0-51, lower = better quality)", in.Video.Quality)
		line("  Encode Preset        : %s", in.Video.Preset)
	} else {
		line("  Conversion           : None (stream copy, faster)")
		line("  Output Video Codec   : %s", strings.ToUpper(src.VideoCodec()))
		line("  Output Audio Codec   : %s", strings.ToUpper(src.AudioCodec()))
	}
	line("")

	line("[ CLIP SUMMARY ]")
	line(subDivider)

	w := columns
	line("  %-*s %-*s %-*s %-*s %-*s %-*s",
		w[0], "No", w[1], "Filename", w[2], "Duration", w[3], "Resolution", w[4], "FPS", w[5], "Size")
	rule := "  " + strings.Repeat("-", tableWidth())
	line(rule)

	var totalSize int64
	for i, c := range in.Clips {
		res := "?"
		if c.Resolution != nil {
			res = c.Resolution.String()
		}
		line("  %-*s %-*s %-*s %-*s %-*s %-*s",
			w[0], fmt.Sprintf("%d.", i+1),
			w[1], truncate(c.Filename, w[1]),
			w[2], timeutil.DurationLabel(c.DurationSec),
			w[3], res,
			w[4], formatFPS(c.FPS)+" fps",
			w[5], c.SizeString(),
		)
		totalSize += c.SizeBytes
	}

	line(rule)
	pad := w[0] + w[1] + w[2] + w[3] + w[4] + 5
	line("  %-*s Total : %s (%s bytes)", pad, "", sizefmt.FormatSize(totalSize), humanize.Comma(totalSize))
	line("")

	line("[ DETAILED CLIP INFO ]")
	line(subDivider)

	for i, c := range in.Clips {
		line("  Clip #%02d  --  %s -> %s", i+1, c.StartLabel, c.EndLabel)
		line("    Filename       : %s", c.Filename)
		line("    Timestamp      : %s -> %s", c.StartLabel, c.EndLabel)
		line("    Duration       : %s  (%s)", timeutil.DurationLabel(c.DurationSec), timeutil.FormatHMS(c.DurationSec))
		if c.Resolution != nil {
			line("    Resolution     : %d x %d", c.Resolution.Width, c.Resolution.Height)
		}
		line("    Frame Rate     : %s fps", formatFPS(c.FPS))
		line("    Video Codec    : %s", c.VideoCodec)
		line("    Audio Codec    : %s", c.AudioCodec)
		line("    Bitrate        : %s", sizefmt.FormatKbps(c.BitRate))
		line("    File Size      : %s", c.SizeString())
		line("")
	}

	line(divider)
	line("  Generated by splitter  |  Powered by FFmpeg")
	b.WriteString(divider)

	return b.String()
}

func tableWidth() int {
	total := len(columns) - 1
	for _, w := range columns {
		total += w
	}
	return total
}

// truncate shortens s to max runes, ending with "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func bitRate(m *models.MediaInfo) int64 {
	if m == nil {
		return 0
	}
	return m.BitRate
}

func orPlaceholder(n int) string {
	if n <= 0 {
		return "?"
	}
	return fmt.Sprintf("%d", n)
}

func stringOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// formatFPS prints 30 as "30" and 29.97 as "29.97".
func formatFPS(fps float64) string {
	return humanize.Ftoa(fps)
}

func formatMinutes(m float64) string {
	return humanize.Ftoa(m)
}

func codecFamily(codec string) string {
	switch {
	case codec == "libx264" || strings.HasPrefix(codec, "h264"):
		return "H.264"
	case codec == "libx265" || strings.HasPrefix(codec, "hevc"):
		return "H.265"
	default:
		return strings.ToUpper(codec)
	}
}

// bitrateLabel turns ffmpeg's "192k" into "192kbps".
func bitrateLabel(b string) string {
	if strings.HasSuffix(b, "k") {
		return b + "bps"
	}
	return b
}
