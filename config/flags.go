package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
)

// BindFlags registers the per-run settings on fs. Defaults shown in help
// come from DefaultConfig; a flag only overrides the file when it is set.
func BindFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()

	fs.StringP("output", "o", "", "Output directory (default: <input dir>/"+DefaultOutputDirName+")")
	fs.Float64P("segment-minutes", "m", d.SegmentMinutes, "Length of each segment in minutes")
	fs.String("convert", d.Convert, "Re-encode flagged sources: "+strings.Join(ConvertValues(), ", "))
	fs.StringSlice("convert-codecs", d.ConvertCodecs, "Source video codecs that trigger the convert policy")

	fs.String("ffmpeg", d.Tools.FFmpeg, "Path to the ffmpeg executable")
	fs.String("ffprobe", d.Tools.FFprobe, "Path to the ffprobe executable")

	fs.String("video-codec", d.Video.Codec, "Video codec used when converting")
	fs.Int("video-quality", d.Video.Quality, "Video quality (CRF/CQ/QP, 0-51, lower = better)")
	fs.String("video-preset", d.Video.Preset, "Encoder preset: ultrafast, fast, medium, slow, veryslow")
	fs.String("audio-codec", d.Audio.Codec, "Audio codec used when converting")
	fs.String("audio-bitrate", d.Audio.Bitrate, "Audio bitrate, e.g., 128k, 192k")

	fs.Duration("poll-interval", d.Execution.PollInterval, "How often a running segment checks for cancellation")
	fs.Duration("grace-period", d.Execution.GracePeriod, "Wait after SIGTERM before killing the encoder")

	fs.String("history-db", d.HistoryDB, "SQLite file recording finished batches (empty = disabled)")
	fs.String("metrics-file", d.MetricsFile, "Write Prometheus metrics to this file after the run")
	fs.Bool("dry-run", d.DryRun, "Print the ffmpeg commands without running them")
}

// MergeFromFlags overrides config values with every flag in fs that was set
// on the command line. Flags that are not registered on fs are ignored.
func (c *Config) MergeFromFlags(fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}

	var err error
	set := func(name string, apply func() error) {
		if err != nil {
			return
		}
		if f := fs.Lookup(name); f != nil && f.Changed {
			if applyErr := apply(); applyErr != nil {
				err = fmt.Errorf("flag --%s: %w", name, applyErr)
			}
		}
	}
	str := func(name string, dst *string) {
		set(name, func() (e error) { *dst, e = fs.GetString(name); return })
	}

	str("output", &c.OutputDir)
	set("segment-minutes", func() (e error) { c.SegmentMinutes, e = fs.GetFloat64("segment-minutes"); return })
	str("convert", &c.Convert)
	set("convert-codecs", func() (e error) { c.ConvertCodecs, e = fs.GetStringSlice("convert-codecs"); return })

	str("ffmpeg", &c.Tools.FFmpeg)
	str("ffprobe", &c.Tools.FFprobe)

	str("video-codec", &c.Video.Codec)
	set("video-quality", func() (e error) { c.Video.Quality, e = fs.GetInt("video-quality"); return })
	str("video-preset", &c.Video.Preset)
	str("audio-codec", &c.Audio.Codec)
	str("audio-bitrate", &c.Audio.Bitrate)

	set("poll-interval", func() (e error) { c.Execution.PollInterval, e = fs.GetDuration("poll-interval"); return })
	set("grace-period", func() (e error) { c.Execution.GracePeriod, e = fs.GetDuration("grace-period"); return })

	str("log-level", &c.LogLevel)
	str("history-db", &c.HistoryDB)
	str("metrics-file", &c.MetricsFile)
	set("dry-run", func() (e error) { c.DryRun, e = fs.GetBool("dry-run"); return })

	return err
}

// PrintConfig writes the effective configuration
func (c *Config) PrintConfig(w io.Writer) {
	line := strings.Repeat("═", 59)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "                 Effective Configuration                  ")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Input:           %s\n", orDash(c.Input))
	fmt.Fprintf(w, "Output Dir:      %s\n", orDash(c.OutputDir))
	fmt.Fprintf(w, "Segment Length:  %s minutes\n", humanize.Ftoa(c.SegmentMinutes))
	fmt.Fprintf(w, "Convert:         %s (%s)\n", c.Convert, strings.Join(c.ConvertCodecs, ", "))

	fmt.Fprintln(w, "\nTools:")
	fmt.Fprintf(w, "  ffmpeg:        %s\n", c.Tools.FFmpeg)
	fmt.Fprintf(w, "  ffprobe:       %s\n", c.Tools.FFprobe)

	fmt.Fprintln(w, "\nVideo Settings:")
	fmt.Fprintf(w, "  Codec:         %s\n", c.Video.Codec)
	fmt.Fprintf(w, "  Quality:       %d\n", c.Video.Quality)
	fmt.Fprintf(w, "  Preset:        %s\n", c.Video.Preset)

	fmt.Fprintln(w, "\nAudio Settings:")
	fmt.Fprintf(w, "  Codec:         %s\n", c.Audio.Codec)
	fmt.Fprintf(w, "  Bitrate:       %s\n", c.Audio.Bitrate)

	fmt.Fprintln(w, "\nExecution:")
	fmt.Fprintf(w, "  Poll Interval: %s\n", c.Execution.PollInterval)
	fmt.Fprintf(w, "  Grace Period:  %s\n", c.Execution.GracePeriod)

	fmt.Fprintln(w, "\nAmbient:")
	fmt.Fprintf(w, "  Log Level:     %s\n", c.LogLevel)
	fmt.Fprintf(w, "  History DB:    %s\n", orDash(c.HistoryDB))
	fmt.Fprintf(w, "  Metrics File:  %s\n", orDash(c.MetricsFile))
	fmt.Fprintf(w, "  Dry Run:       %v\n", c.DryRun)
	fmt.Fprintln(w, line)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
