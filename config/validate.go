package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"splitter/ffmpeg"
	"splitter/planner"
)

// Validate checks the settings shared by every command. The input file is
// not required here; use ValidateInput before splitting.
func (c *Config) Validate() error {
	return joinErrors(c.settingsErrors())
}

// ValidateInput runs Validate and additionally requires an existing input
// file.
func (c *Config) ValidateInput() error {
	var errors []string

	if c.Input == "" {
		errors = append(errors, "input file is required")
	} else if info, err := os.Stat(c.Input); os.IsNotExist(err) {
		errors = append(errors, fmt.Sprintf("input file does not exist: %s", c.Input))
	} else if err == nil && info.IsDir() {
		errors = append(errors, fmt.Sprintf("input is a directory: %s", c.Input))
	}

	return joinErrors(append(errors, c.settingsErrors()...))
}

func (c *Config) settingsErrors() []string {
	var errors []string

	if math.IsNaN(c.SegmentMinutes) || math.IsInf(c.SegmentMinutes, 0) || c.SegmentMinutes <= 0 {
		errors = append(errors, "segment minutes must be positive")
	} else if c.SegmentMinutes < planner.MinSegmentMinutes {
		// Clip names only carry HH:MM, so shorter segments would share a file
		errors = append(errors, fmt.Sprintf("segment minutes must be at least %d", planner.MinSegmentMinutes))
	}

	if !IsValidConvert(c.Convert) {
		errors = append(errors, fmt.Sprintf("invalid convert policy '%s', must be one of: %s",
			c.Convert, strings.Join(ConvertValues(), ", ")))
	}

	if c.Tools.FFmpeg == "" {
		errors = append(errors, "tools: ffmpeg path is required")
	}
	if c.Tools.FFprobe == "" {
		errors = append(errors, "tools: ffprobe path is required")
	}

	if err := c.Video.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("video config: %v", err))
	}

	if err := c.Audio.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("audio config: %v", err))
	}

	if err := c.Execution.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("execution config: %v", err))
	}

	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
		}
	}

	return errors
}

func joinErrors(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}
	return nil
}

// Validate checks if video configuration is valid
func (vc *VideoConfig) Validate() error {
	var errors []string

	if vc.Codec == "" {
		errors = append(errors, "codec is required")
	}

	// Same 0-51 range for CRF, CQ and QP
	if vc.Quality < 0 || vc.Quality > 51 {
		errors = append(errors, "quality must be between 0 and 51")
	}

	if vc.Preset == "" {
		errors = append(errors, "preset is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks if audio configuration is valid
func (ac *AudioConfig) Validate() error {
	var errors []string

	if ac.Codec == "" {
		errors = append(errors, "codec is required")
	}

	if ac.Bitrate == "" {
		errors = append(errors, "bitrate is required")
	} else if !isValidBitrate(ac.Bitrate) {
		errors = append(errors, "bitrate must be a number with optional k or M suffix (e.g., 192k)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// Validate checks the process supervision timings.
func (ec *ExecutionConfig) Validate() error {
	var errors []string

	if ec.PollInterval <= 0 {
		errors = append(errors, "poll interval must be positive")
	} else if ec.PollInterval > ffmpeg.MaxPollInterval {
		errors = append(errors, fmt.Sprintf("poll interval cannot exceed %s", ffmpeg.MaxPollInterval))
	}

	if ec.GracePeriod <= 0 {
		errors = append(errors, "grace period must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s", strings.Join(errors, ", "))
	}

	return nil
}

// isValidBitrate checks bitrate strings such as "192k", "1.5M" or "128000"
func isValidBitrate(b string) bool {
	num := strings.TrimRight(b, "kKM")
	if num == "" || len(b)-len(num) > 1 {
		return false
	}

	value, err := strconv.ParseFloat(num, 64)
	return err == nil && value > 0 && !math.IsInf(value, 0) && !strings.ContainsAny(num, "+-eExXpP")
}
