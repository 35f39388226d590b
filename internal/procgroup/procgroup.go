// Package procgroup starts encoder processes in their own process group and
// stops the whole group with a graceful-then-forced escalation.
package procgroup

import (
	"os/exec"
	"syscall"
	"time"

	"splitter/internal/log"
)

// Terminate stops the process group of cmd.
//
// It sends SIGTERM to the group and waits up to grace for the process to exit
// (observed through waitCh, which must deliver the result of cmd.Wait). If
// the process is still running after grace, the group receives SIGKILL. The
// wait result is always consumed and returned; forced reports whether SIGKILL
// was needed. It is safe to call on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) (forced bool, err error) {
	if cmd == nil || cmd.Process == nil {
		return false, nil
	}
	logger := log.WithComponent("procgroup")
	pid := cmd.Process.Pid

	if kerr := Kill(cmd, syscall.SIGTERM); kerr != nil {
		logger.Debug().Err(kerr).Int("pid", pid).Msg("SIGTERM to process group failed")
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		return false, err
	case <-timer.C:
	}

	logger.Warn().Int("pid", pid).Dur("grace", grace).Msg("grace period exceeded, sending SIGKILL to process group")
	if kerr := Kill(cmd, syscall.SIGKILL); kerr != nil {
		logger.Debug().Err(kerr).Int("pid", pid).Msg("SIGKILL to process group failed")
	}

	// SIGKILL cannot be ignored, so the wait will return.
	return true, <-waitCh
}
