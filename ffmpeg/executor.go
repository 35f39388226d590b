// Package ffmpeg runs encoder invocations as cancellable subprocesses and
// parses their progress output.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"splitter/command"
	"splitter/internal/log"
	"splitter/internal/procgroup"
	"splitter/internal/tailbuf"
	"splitter/models"
)

const (
	// DefaultPollInterval is how often a running encoder checks the cancel
	// signal.
	DefaultPollInterval = 250 * time.Millisecond

	// MaxPollInterval bounds PollInterval so cancellation stays responsive.
	MaxPollInterval = 500 * time.Millisecond

	// DefaultGracePeriod is how long a cancelled encoder may take to exit
	// after SIGTERM before it is killed.
	DefaultGracePeriod = 5 * time.Second

	// StderrLimit is the number of trailing stderr bytes kept for diagnostics.
	StderrLimit = 500
)

// ToolUnavailableError reports that an external tool could not be started.
type ToolUnavailableError struct {
	Tool string
	Err  error
}

func (e *ToolUnavailableError) Error() string {
	return fmt.Sprintf("'%s' not found. Install ffmpeg: https://ffmpeg.org/download.html", e.Tool)
}

func (e *ToolUnavailableError) Unwrap() error { return e.Err }

// ExecutionResult describes how an encoder process ended.
//
// A non-zero ExitCode is a normal outcome, not an error. ExitCode is -1 when
// the process was terminated by a signal.
type ExecutionResult struct {
	ExitCode  int
	Stderr    string // last StderrLimit bytes of diagnostic output
	Cancelled bool
	Forced    bool // SIGKILL was needed after the grace period
	Elapsed   time.Duration
}

// Success reports whether the encoder finished normally with exit code 0.
func (r ExecutionResult) Success() bool {
	return !r.Cancelled && r.ExitCode == 0
}

// Executor runs one encoder invocation at a time.
type Executor struct {
	PollInterval time.Duration
	GracePeriod  time.Duration

	// OnProgress, if set, receives encoder statistics parsed from stderr.
	// It runs on the stderr reader goroutine.
	OnProgress models.ProgressCallback

	logger zerolog.Logger
}

// NewExecutor returns an Executor with default timings.
func NewExecutor() *Executor {
	return &Executor{
		PollInterval: DefaultPollInterval,
		GracePeriod:  DefaultGracePeriod,
		logger:       log.WithComponent("ffmpeg"),
	}
}

// SetLogger replaces the executor's logger.
func (e *Executor) SetLogger(logger zerolog.Logger) *Executor {
	e.logger = logger
	return e
}

func (e *Executor) pollInterval() time.Duration {
	if e.PollInterval <= 0 {
		return DefaultPollInterval
	}
	if e.PollInterval > MaxPollInterval {
		return MaxPollInterval
	}
	return e.PollInterval
}

func (e *Executor) gracePeriod() time.Duration {
	if e.GracePeriod <= 0 {
		return DefaultGracePeriod
	}
	return e.GracePeriod
}

// Run spawns inv and blocks until it exits or is cancelled.
//
// The process runs in its own process group. While it runs, the cancel
// signal is checked every PollInterval; once set (or once ctx is done) the
// group receives SIGTERM, then SIGKILL after GracePeriod.
//
// The returned error is non-nil only when the process could not be spawned,
// and is a *ToolUnavailableError when the executable does not exist.
func (e *Executor) Run(ctx context.Context, inv command.Invocation, cancel *models.CancelSignal) (ExecutionResult, error) {
	if inv.Binary == "" {
		return ExecutionResult{}, fmt.Errorf("invocation has no binary")
	}

	start := time.Now()
	logger := e.logger.With().Int("segment", inv.Index+1).Str("output", inv.OutputPath).Logger()

	cmd := exec.Command(inv.Binary, inv.Args...)
	procgroup.Set(cmd)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("failed to get stderr pipe: %w", err)
	}

	logger.Debug().Str("cmd", inv.String()).Msg("starting encoder")

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return ExecutionResult{}, &ToolUnavailableError{Tool: inv.Binary, Err: err}
		}
		return ExecutionResult{}, fmt.Errorf("failed to start %s: %w", inv.Binary, err)
	}

	tail := tailbuf.New(StderrLimit)
	waitCh := make(chan error, 1)

	go func() {
		progress := models.NewEncodingProgress(inv.Index, inv.Duration)
		parser := NewProgressParser()
		err := parser.StreamProgress(io.TeeReader(stderr, tail), progress, e.progressCallback(logger))
		if err != nil && !errors.Is(err, ErrNoProgress) {
			// Keep draining so the encoder never blocks on a full pipe
			_, _ = io.Copy(tail, stderr)
		}
		waitCh <- cmd.Wait()
	}()

	ticker := time.NewTicker(e.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case err := <-waitCh:
			res := ExecutionResult{
				ExitCode: exitCode(err),
				Stderr:   tail.String(),
				Elapsed:  time.Since(start),
			}
			logger.Debug().Int("exit_code", res.ExitCode).Dur("elapsed", res.Elapsed).Msg("encoder exited")
			return res, nil

		case <-ticker.C:
			if !cancel.IsCancelled() {
				continue
			}
			return e.terminate(cmd, waitCh, tail, start, logger), nil

		case <-ctx.Done():
			return e.terminate(cmd, waitCh, tail, start, logger), nil
		}
	}
}

func (e *Executor) terminate(cmd *exec.Cmd, waitCh <-chan error, tail *tailbuf.Buffer, start time.Time, logger zerolog.Logger) ExecutionResult {
	logger.Info().Int("pid", cmd.Process.Pid).Msg("cancelling encoder")

	forced, err := procgroup.Terminate(cmd, waitCh, e.gracePeriod())
	return ExecutionResult{
		ExitCode:  exitCode(err),
		Stderr:    tail.String(),
		Cancelled: true,
		Forced:    forced,
		Elapsed:   time.Since(start),
	}
}

func (e *Executor) progressCallback(logger zerolog.Logger) models.ProgressCallback {
	return func(p *models.EncodingProgress) {
		logger.Debug().Msg(p.FormatSummary())
		if e.OnProgress != nil {
			e.OnProgress(p)
		}
	}
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
