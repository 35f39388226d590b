package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitter/config"
)

// runCLI executes the command tree with an empty config file so the test
// does not depend on files in the working directory or HOME.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(cfgPath, nil, 0o644))

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append(args, "--config", cfgPath))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "splitter "+Version+"\n", out.String())
}

func TestSplitRequiresInput(t *testing.T) {
	_, _, err := runCLI(t, "", "split")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestSplitMissingInputFile(t *testing.T) {
	_, _, err := runCLI(t, "", "split", filepath.Join(t.TempDir(), "missing.mkv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file does not exist")
}

func TestSplitInvalidFlag(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.mkv")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	_, _, err := runCLI(t, "", "split", input, "--convert", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid convert policy 'sometimes'")
}

func TestHistoryRequiresDatabase(t *testing.T) {
	_, _, err := runCLI(t, "", "history")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history database configured")
}

func TestIsYes(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"Y", true},
		{" yes \n", true},
		{"YES", true},
		{"n", false},
		{"", false},
		{"yep", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, isYes(tt.answer), "answer %q", tt.answer)
	}
}

func TestPrompterConfirm(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("y\nno\n"), newConsole(&out))

	assert.True(t, p.Confirm("First? (y/n):"))
	assert.False(t, p.Confirm("Second? (y/n):"))
	assert.False(t, p.Confirm("Third? (y/n):"), "end of input counts as no")
	assert.Contains(t, out.String(), "First? (y/n): ")
}

func TestPrompterConfirmWithoutTrailingNewline(t *testing.T) {
	p := newPrompter(strings.NewReader("yes"), newConsole(&bytes.Buffer{}))
	assert.True(t, p.Confirm("Go? (y/n):"))
}

func TestConsoleStatusIgnoredWhenNotTerminal(t *testing.T) {
	var out bytes.Buffer
	c := newConsole(&out)

	c.Status("segment=1 50.0%")
	c.Println("done")

	assert.Equal(t, "done\n", out.String())
}

func TestConsoleStatusClearedBeforeLine(t *testing.T) {
	var out bytes.Buffer
	c := &console{out: &out, live: true}

	c.Status("abcdef")
	c.Status("abc")
	c.Println("line")

	assert.Equal(t, "\rabcdef\rabc   \r      \rline\n", out.String())
}

func TestResolveOutputDir(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Input = "/videos/lecture.mkv"

	dir, err := resolveOutputDir(cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/videos", "output_split"), dir)

	cfg.OutputDir = "clips"
	dir, err = resolveOutputDir(cfg)
	require.NoError(t, err)
	assert.Equal(t, "clips", dir)
}

func TestDecideConvert(t *testing.T) {
	flagged := sourceSummary{VideoCodec: "av1", NeedsConv: true}
	plain := sourceSummary{VideoCodec: "h264"}

	tests := []struct {
		name   string
		policy string
		source sourceSummary
		stdin  string
		want   bool
	}{
		{name: "not flagged never converts", policy: config.ConvertAlways, source: plain, want: false},
		{name: "always", policy: config.ConvertAlways, source: flagged, want: true},
		{name: "never", policy: config.ConvertNever, source: flagged, want: false},
		{name: "ask yes", policy: config.ConvertAsk, source: flagged, stdin: "y\n", want: true},
		{name: "ask no", policy: config.ConvertAsk, source: flagged, stdin: "n\n", want: false},
		{name: "ask without input", policy: config.ConvertAsk, source: flagged, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.Convert = tt.policy

			var out bytes.Buffer
			c := newConsole(&out)
			got := decideConvert(cfg, tt.source, newPrompter(strings.NewReader(tt.stdin), c), c)
			assert.Equal(t, tt.want, got)

			if tt.policy == config.ConvertAsk && tt.source.NeedsConv {
				assert.Contains(t, out.String(), "Convert to H.264? (y/n):")
			} else {
				assert.NotContains(t, out.String(), "Convert to H.264?")
			}
		})
	}
}

func TestSplitRejectsSubMinuteSegments(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.mkv")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	_, _, err := runCLI(t, "", "split", input, "-m", "0.5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment minutes must be at least 1")
}

func TestConfigShowAppliesFlags(t *testing.T) {
	stdout, _, err := runCLI(t, "", "config", "show", "-m", "5", "--video-quality", "0")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Effective Configuration")
	assert.Contains(t, stdout, "Segment Length:  5 minutes")
	assert.Contains(t, stdout, "Quality:       0")
	assert.Contains(t, stdout, "ffmpeg:        ffmpeg")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "splitter.yaml")

	stdout, _, err := runCLI(t, "", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote default configuration to "+path)

	cfg, err := config.LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, _, err = runCLI(t, "", "config", "init", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runCLI(t, "", "config", "init", path, "--force")
	require.NoError(t, err)
}
