// Package command defines the Command interface implemented by encoder
// argument builders and the Invocation value handed to the executor.
package command

import (
	"strings"
)

// Mode selects how streams are written to a segment.
type Mode string

const (
	ModeCopy      Mode = "copy"      // Stream copy, no re-encoding
	ModeTranscode Mode = "transcode" // Re-encode to a compatible codec
)

// ModeFor maps the transcode flag to a Mode.
func ModeFor(transcode bool) Mode {
	if transcode {
		return ModeTranscode
	}
	return ModeCopy
}

// Invocation is one fully specified encoder process.
//
// It is a plain value: building it has no side effects and running it is the
// executor's job.
type Invocation struct {
	Index      int // 0-based segment index, for progress reporting
	Binary     string
	Args       []string
	InputPath  string
	OutputPath string
	Duration   float64 // expected output length in seconds, used for progress
	Mode       Mode
}

// String renders the invocation as a shell-like command line. Arguments with
// whitespace or quotes are single-quoted.
func (i Invocation) String() string {
	parts := make([]string, 0, len(i.Args)+1)
	parts = append(parts, quote(i.Binary))
	for _, a := range i.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Command is an encoder command that can be built or previewed.
//
// Example usage:
//
//	seg := models.Segment{Index: 0, Start: 0, End: 600}
//	cmd := segment.NewBuilder("input.mkv", "out/input_00-00 - 00-10.mp4", seg).
//		SetTranscode(true)
//
//	// Preview the command
//	line, _ := cmd.DryRun()
//
//	// Hand it to the executor
//	inv, _ := cmd.Invocation()
type Command interface {
	// BuildArgs constructs and returns the encoder arguments as a slice,
	// excluding the binary itself.
	BuildArgs() []string

	// DryRun returns the command line as a string without executing it.
	// Returns an error if the command cannot be built.
	DryRun() (string, error)

	// Invocation returns the complete process description.
	Invocation() (Invocation, error)

	// GetMode reports whether streams are copied or re-encoded.
	GetMode() Mode

	// GetInputPath returns the primary input file path for this command.
	GetInputPath() string

	// GetOutputPath returns the output file path for this command.
	GetOutputPath() string
}
