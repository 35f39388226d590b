//go:build unix

package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitter/command"
	"splitter/models"
)

func shInvocation(t *testing.T, script string) command.Invocation {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return command.Invocation{
		Index:    1,
		Binary:   "sh",
		Args:     []string{"-c", script},
		Duration: 10,
	}
}

func fastExecutor() *Executor {
	e := NewExecutor()
	e.PollInterval = 20 * time.Millisecond
	e.GracePeriod = time.Second
	return e
}

func TestExecutor_Success(t *testing.T) {
	inv := shInvocation(t, `printf 'frame=  25 fps=25 size=  256KiB time=00:00:05.00 bitrate=100.0kbits/s speed=2.0x\r' >&2
printf 'frame=  50 fps=25 size=  512KiB time=00:00:10.00 bitrate=100.0kbits/s speed=2.0x\n' >&2
exit 0`)

	var mu sync.Mutex
	var updates []float64
	e := fastExecutor()
	e.OnProgress = func(p *models.EncodingProgress) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 1, p.SegmentIndex)
		updates = append(updates, p.Percent)
	}

	res, err := e.Run(context.Background(), inv, models.NewCancelSignal())
	require.NoError(t, err)

	assert.True(t, res.Success())
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Cancelled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{50, 100}, updates)
}

func TestExecutor_NonZeroExitIsData(t *testing.T) {
	inv := shInvocation(t, `echo "Invalid data found when processing input" >&2; exit 3`)

	res, err := fastExecutor().Run(context.Background(), inv, models.NewCancelSignal())
	require.NoError(t, err)

	assert.False(t, res.Success())
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, res.Stderr, "Invalid data found")
}

func TestExecutor_StderrTail(t *testing.T) {
	inv := shInvocation(t, `i=0; while [ $i -lt 200 ]; do echo "line $i of noisy output" >&2; i=$((i+1)); done; echo LAST >&2; exit 1`)

	res, err := fastExecutor().Run(context.Background(), inv, nil)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(res.Stderr), StderrLimit)
	assert.True(t, strings.HasSuffix(res.Stderr, "LAST\n"), "tail should end with last line, got %q", res.Stderr)
	assert.NotContains(t, res.Stderr, "line 0 of")
}

func TestExecutor_CancelMidRun(t *testing.T) {
	inv := shInvocation(t, "sleep 30")
	cancel := models.NewCancelSignal()

	time.AfterFunc(100*time.Millisecond, cancel.Cancel)

	start := time.Now()
	res, err := fastExecutor().Run(context.Background(), inv, cancel)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.False(t, res.Success())
	assert.False(t, res.Forced, "sleep honours SIGTERM")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecutor_CancelBeforeStart(t *testing.T) {
	inv := shInvocation(t, "sleep 30")
	cancel := models.NewCancelSignal()
	cancel.Cancel()

	res, err := fastExecutor().Run(context.Background(), inv, cancel)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
}

func TestExecutor_EscalatesToKill(t *testing.T) {
	inv := shInvocation(t, `trap "" TERM; sleep 30`)
	cancel := models.NewCancelSignal()

	e := fastExecutor()
	e.GracePeriod = 200 * time.Millisecond
	time.AfterFunc(100*time.Millisecond, cancel.Cancel)

	res, err := e.Run(context.Background(), inv, cancel)
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.True(t, res.Forced)
	assert.Equal(t, -1, res.ExitCode)
}

func TestExecutor_ContextCancel(t *testing.T) {
	inv := shInvocation(t, "sleep 30")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := fastExecutor().Run(ctx, inv, nil)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
}

func TestExecutor_MissingBinary(t *testing.T) {
	inv := command.Invocation{Binary: filepath.Join(t.TempDir(), "ffmpeg-missing"), Args: []string{"-version"}}

	_, err := fastExecutor().Run(context.Background(), inv, nil)
	var tue *ToolUnavailableError
	require.True(t, errors.As(err, &tue), "expected ToolUnavailableError, got %v", err)
	assert.Equal(t, inv.Binary, tue.Tool)
	assert.Contains(t, err.Error(), "not found")
}

func TestExecutor_EmptyBinary(t *testing.T) {
	_, err := fastExecutor().Run(context.Background(), command.Invocation{}, nil)
	assert.Error(t, err)
}

func TestExecutor_PollIntervalBounds(t *testing.T) {
	tests := []struct {
		name     string
		in       time.Duration
		expected time.Duration
	}{
		{"default", 0, DefaultPollInterval},
		{"custom", 100 * time.Millisecond, 100 * time.Millisecond},
		{"clamped", 2 * time.Second, MaxPollInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Executor{PollInterval: tt.in}
			assert.Equal(t, tt.expected, e.pollInterval())
		})
	}

	assert.Equal(t, DefaultGracePeriod, (&Executor{}).gracePeriod())
}

func writeTool(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestCheckTools(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ffmpeg := writeTool(t, "ffmpeg", `echo "ffmpeg version 6.1"`)
	ffprobe := writeTool(t, "ffprobe", `echo "ffprobe version 6.1"`)

	require.NoError(t, CheckTools(context.Background(), ffmpeg, ffprobe))
}

func TestCheckTools_Missing(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ffmpeg := writeTool(t, "ffmpeg", `echo "ffmpeg version 6.1"`)
	missing := filepath.Join(t.TempDir(), "ffprobe")

	err := CheckTools(context.Background(), ffmpeg, missing)
	var tue *ToolUnavailableError
	require.True(t, errors.As(err, &tue), "expected ToolUnavailableError, got %v", err)
	assert.Equal(t, missing, tue.Tool)
}

func TestCheckTools_Broken(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	broken := writeTool(t, "ffmpeg", `exit 1`)

	err := CheckTools(context.Background(), broken)
	var tue *ToolUnavailableError
	require.True(t, errors.As(err, &tue))
	assert.Contains(t, tue.Err.Error(), "-version failed")
}
