package config

import (
	"time"

	"splitter/command/segment"
	"splitter/ffmpeg"
	"splitter/planner"
)

// Convert policies for sources whose video codec is in ConvertCodecs.
const (
	ConvertAsk    = "ask"
	ConvertAlways = "always"
	ConvertNever  = "never"
)

// DefaultOutputDirName is the directory created next to the input when no
// output directory is configured.
const DefaultOutputDirName = "output_split"

// Config holds all configuration for the splitter
type Config struct {
	// Input/Output
	Input     string `yaml:"input,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`

	// Splitting
	SegmentMinutes float64  `yaml:"segment_minutes"`
	Convert        string   `yaml:"convert"`
	ConvertCodecs  []string `yaml:"convert_codecs"`

	Tools     ToolsConfig     `yaml:"tools"`
	Video     VideoConfig     `yaml:"video"`
	Audio     AudioConfig     `yaml:"audio"`
	Execution ExecutionConfig `yaml:"execution"`

	// Ambient
	LogLevel    string `yaml:"log_level"`
	HistoryDB   string `yaml:"history_db,omitempty"`
	MetricsFile string `yaml:"metrics_file,omitempty"`
	DryRun      bool   `yaml:"dry_run"`
}

// ToolsConfig points at the external executables.
type ToolsConfig struct {
	FFmpeg  string `yaml:"ffmpeg"`
	FFprobe string `yaml:"ffprobe"`
}

// VideoConfig holds video re-encoding settings
type VideoConfig struct {
	Codec   string `yaml:"codec"`
	Quality int    `yaml:"quality"` // CRF, CQ or QP depending on the encoder
	Preset  string `yaml:"preset"`
}

// AudioConfig holds audio re-encoding settings
type AudioConfig struct {
	Codec   string `yaml:"codec"`
	Bitrate string `yaml:"bitrate"` // e.g., "192k"
}

// ExecutionConfig controls how encoder processes are supervised.
type ExecutionConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	GracePeriod  time.Duration `yaml:"grace_period"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	video := segment.DefaultVideo()
	audio := segment.DefaultAudio()
	return &Config{
		SegmentMinutes: planner.DefaultSegmentMinutes,
		Convert:        ConvertAsk,
		ConvertCodecs:  []string{"av1"},
		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Video: VideoConfig{
			Codec:   video.Codec,
			Quality: video.Quality,
			Preset:  video.Preset,
		},
		Audio: AudioConfig{
			Codec:   audio.Codec,
			Bitrate: audio.Bitrate,
		},
		Execution: ExecutionConfig{
			PollInterval: ffmpeg.DefaultPollInterval,
			GracePeriod:  ffmpeg.DefaultGracePeriod,
		},
		LogLevel: "info",
	}
}

// Copy creates a deep copy of the config
func (c *Config) Copy() *Config {
	copied := *c
	copied.ConvertCodecs = append([]string(nil), c.ConvertCodecs...)
	return &copied
}

// ConvertValues returns all valid convert policies
func ConvertValues() []string {
	return []string{ConvertAsk, ConvertAlways, ConvertNever}
}

// IsValidConvert checks if the convert policy is valid
func IsValidConvert(policy string) bool {
	for _, valid := range ConvertValues() {
		if policy == valid {
			return true
		}
	}
	return false
}

// VideoSettings converts the video section for the command builder.
func (c *Config) VideoSettings() segment.VideoSettings {
	return segment.VideoSettings{Codec: c.Video.Codec, Quality: c.Video.Quality, Preset: c.Video.Preset}
}

// AudioSettings converts the audio section for the command builder.
func (c *Config) AudioSettings() segment.AudioSettings {
	return segment.AudioSettings{Codec: c.Audio.Codec, Bitrate: c.Audio.Bitrate}
}
