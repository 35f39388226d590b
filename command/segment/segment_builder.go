// Package segment builds the encoder invocation that extracts one time slice
// of a source video into its own file.
package segment

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"splitter/command"
	"splitter/internal/timeutil"
	"splitter/models"
)

const (
	// DefaultBinary is the encoder executable used when none is set.
	DefaultBinary = "ffmpeg"

	// ContainerExtension is used for every output file regardless of mode.
	ContainerExtension = "mp4"

	DefaultVideoCodec   = "libx264"
	DefaultVideoPreset  = "medium"
	DefaultVideoQuality = 23
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "192k"
)

// VideoSettings controls re-encoding of the video stream.
type VideoSettings struct {
	Codec   string // e.g. "libx264", "h264_nvenc"
	Quality int    // CRF for software encoders, CQ for NVENC
	Preset  string
}

// AudioSettings controls re-encoding of the audio stream.
type AudioSettings struct {
	Codec   string
	Bitrate string
}

// DefaultVideo returns the H.264 software encoding defaults.
func DefaultVideo() VideoSettings {
	return VideoSettings{Codec: DefaultVideoCodec, Quality: DefaultVideoQuality, Preset: DefaultVideoPreset}
}

// DefaultAudio returns the AAC encoding defaults.
func DefaultAudio() AudioSettings {
	return AudioSettings{Codec: DefaultAudioCodec, Bitrate: DefaultAudioBitrate}
}

// Options fully describes one segment extraction.
type Options struct {
	Binary    string
	Input     string
	Output    string
	Segment   models.Segment
	Transcode bool
	Video     VideoSettings
	Audio     AudioSettings
}

// Builder constructs encoder arguments for a single segment.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder that stream-copies seg from input to output.
func NewBuilder(input, output string, seg models.Segment) *Builder {
	return &Builder{opts: Options{
		Binary:  DefaultBinary,
		Input:   input,
		Output:  output,
		Segment: seg,
		Video:   DefaultVideo(),
		Audio:   DefaultAudio(),
	}}
}

// FromOptions creates a Builder from opts. An empty Binary selects
// DefaultBinary, and a zero VideoSettings or AudioSettings selects the
// matching defaults. Settings that are set are used as given, including a
// quality of 0.
func FromOptions(opts Options) *Builder {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Video == (VideoSettings{}) {
		opts.Video = DefaultVideo()
	}
	if opts.Audio == (AudioSettings{}) {
		opts.Audio = DefaultAudio()
	}
	return &Builder{opts: opts}
}

// Build returns the invocation for opts. It is pure: equal options always
// produce equal invocations.
func Build(opts Options) command.Invocation {
	b := FromOptions(opts)
	return b.invocation()
}

// SetTranscode switches between stream copy and re-encoding.
func (b *Builder) SetTranscode(transcode bool) *Builder {
	b.opts.Transcode = transcode
	return b
}

// SetVideo sets the video re-encoding settings.
func (b *Builder) SetVideo(v VideoSettings) *Builder {
	b.opts.Video = v
	return b
}

// Validate checks that the builder describes a runnable extraction.
func (b *Builder) Validate() error {
	if b.opts.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if b.opts.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if err := b.opts.Segment.Validate(); err != nil {
		return fmt.Errorf("invalid segment: %w", err)
	}
	if b.opts.Transcode && b.opts.Video.Codec == "" {
		return fmt.Errorf("video codec is required when transcoding")
	}
	if b.opts.Transcode && b.opts.Audio.Codec == "" {
		return fmt.Errorf("audio codec is required when transcoding")
	}
	return nil
}

// BuildArgs constructs the encoder arguments.
//
// The seek is placed before -i so the encoder jumps to the start position
// instead of decoding from the beginning of the file.
func (b *Builder) BuildArgs() []string {
	seg := b.opts.Segment

	args := []string{
		"-y",
		"-hide_banner",
		"-nostdin",
		"-ss", timeutil.FormatHMS(seg.Start),
		"-i", b.opts.Input,
		"-t", formatDuration(seg.Duration()),
	}

	if b.opts.Transcode {
		v := b.opts.Video
		args = append(args, "-c:v", v.Codec)
		if v.Preset != "" {
			args = append(args, "-preset", v.Preset)
		}
		args = append(args, qualityFlag(v.Codec), strconv.Itoa(v.Quality))

		a := b.opts.Audio
		args = append(args, "-c:a", a.Codec)
		if a.Bitrate != "" {
			args = append(args, "-b:a", a.Bitrate)
		}
	} else {
		args = append(args, "-c:v", "copy", "-c:a", "copy")
	}

	args = append(args, b.opts.Output)
	return args
}

// Invocation returns the process description for the executor.
func (b *Builder) Invocation() (command.Invocation, error) {
	if err := b.Validate(); err != nil {
		return command.Invocation{}, err
	}
	return b.invocation(), nil
}

func (b *Builder) invocation() command.Invocation {
	return command.Invocation{
		Index:      b.opts.Segment.Index,
		Binary:     b.opts.Binary,
		Args:       b.BuildArgs(),
		InputPath:  b.opts.Input,
		OutputPath: b.opts.Output,
		Duration:   b.opts.Segment.Duration(),
		Mode:       b.GetMode(),
	}
}

// DryRun returns the command that would be executed without running it.
func (b *Builder) DryRun() (string, error) {
	inv, err := b.Invocation()
	if err != nil {
		return "", err
	}
	return inv.String(), nil
}

// GetMode reports whether streams are copied or re-encoded.
func (b *Builder) GetMode() command.Mode {
	return command.ModeFor(b.opts.Transcode)
}

// GetInputPath returns the source file.
func (b *Builder) GetInputPath() string {
	return b.opts.Input
}

// GetOutputPath returns the segment file.
func (b *Builder) GetOutputPath() string {
	return b.opts.Output
}

// qualityFlag picks the constant-quality option understood by the encoder.
// Hardware encoders do not accept -crf.
func qualityFlag(codec string) string {
	switch {
	case strings.HasSuffix(codec, "_nvenc"):
		return "-cq"
	case strings.HasSuffix(codec, "_qsv"):
		return "-global_quality"
	case strings.HasSuffix(codec, "_vaapi"):
		return "-qp"
	default:
		return "-crf"
	}
}

// formatDuration renders seconds without trailing zeros, e.g. 600 or 34.56.
func formatDuration(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// Label returns the HH:MM label of a position in seconds.
func Label(seconds float64) string {
	return timeutil.FormatHM(seconds)
}

// OutputFilename returns "{base}_{start} - {end}.mp4" with HH:MM labels whose
// colons are replaced by dashes.
func OutputFilename(base string, seg models.Segment) string {
	return fmt.Sprintf("%s_%s - %s.%s",
		base,
		sanitize(Label(seg.Start)),
		sanitize(Label(seg.End)),
		ContainerExtension,
	)
}

// BaseName returns the source file name without directory or extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func sanitize(label string) string {
	return strings.ReplaceAll(label, ":", "-")
}
