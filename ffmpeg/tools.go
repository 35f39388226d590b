package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"

	"golang.org/x/sync/errgroup"
)

// toolCheckTimeout bounds each "-version" call.
const toolCheckTimeout = 10 * time.Second

// CheckTools verifies that every binary can be executed by running
// "<binary> -version" concurrently.
//
// Returns a *ToolUnavailableError for the first tool that is missing or
// cannot run.
func CheckTools(ctx context.Context, binaries ...string) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, bin := range binaries {
		bin := bin
		g.Go(func() error {
			return checkTool(ctx, bin)
		})
	}

	return g.Wait()
}

func checkTool(ctx context.Context, binary string) error {
	if binary == "" {
		return &ToolUnavailableError{Tool: binary, Err: errors.New("empty tool path")}
	}
	if _, err := exec.LookPath(binary); err != nil {
		return &ToolUnavailableError{Tool: binary, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, toolCheckTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, binary, "-version")
	if err := cmd.Run(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
			return &ToolUnavailableError{Tool: binary, Err: err}
		}
		return &ToolUnavailableError{Tool: binary, Err: fmt.Errorf("%s -version failed: %w", binary, err)}
	}
	return nil
}
