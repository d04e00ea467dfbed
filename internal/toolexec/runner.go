// -----------------------------------------------------------------------
// Package toolexec wraps os/exec behind the CommandRunner interface so
// every component that shells out to build tools is testable in isolation
// -----------------------------------------------------------------------

package toolexec

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/quarry/internal/interfaces"
)

// Runner executes external build tools and captures their combined
// output. A non-zero exit returns the captured output alongside the
// error so callers never lose the tool's own diagnostics.
type Runner struct {
	logger      arbor.ILogger
	stepTimeout time.Duration // 0 disables the per-invocation timeout
}

// NewRunner creates a production command runner
func NewRunner(logger arbor.ILogger, stepTimeout time.Duration) *Runner {
	return &Runner{
		logger:      logger,
		stepTimeout: stepTimeout,
	}
}

// Run executes a single tool invocation and returns its combined
// stdout/stderr
func (r *Runner) Run(ctx context.Context, cmd interfaces.Command) (string, error) {
	if r.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stepTimeout)
		defer cancel()
	}

	execCmd := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Env = cmd.Env

	var out bytes.Buffer
	execCmd.Stdout = &out
	execCmd.Stderr = &out

	r.logger.Debug().
		Str("command", cmd.Name).
		Strs("args", cmd.Args).
		Str("dir", cmd.Dir).
		Msg("Running tool")

	start := time.Now()
	err := execCmd.Run()
	elapsed := time.Since(start)

	if err != nil {
		// exec reports a killed process as "signal: killed"; wrap the
		// context error instead so callers can tell cancellation and
		// timeout apart from a genuine tool failure.
		switch ctx.Err() {
		case context.DeadlineExceeded:
			return out.String(), fmt.Errorf("command %s timed out after %s: %w", cmd.Name, elapsed.Round(time.Second), ctx.Err())
		case context.Canceled:
			return out.String(), fmt.Errorf("command %s cancelled: %w", cmd.Name, ctx.Err())
		}
		return out.String(), fmt.Errorf("command %s failed: %w", cmd.Name, err)
	}

	return out.String(), nil
}

// LookPath resolves a program on the host PATH
func (r *Runner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
