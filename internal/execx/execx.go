// Package execx is the process-execution collaborator shared by the
// service controller, backup manager, and anything else that shells out.
// Every invocation captures combined output and the exit code so callers
// can surface both in their own error types.
package execx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/xenago/ls-updater/internal/messages"
)

// DefaultTimeout bounds a single external command invocation.
const DefaultTimeout = 5 * time.Minute

// Output captures the result of a finished command.
type Output struct {
	Command  string
	ExitCode int
	Combined []byte
}

// Runner executes external commands and captures their results.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Output, error)
}

// CommandError reports a command that failed to start, timed out, or
// exited non-zero. Output holds whatever the command wrote before failing.
type CommandError struct {
	Command  string
	ExitCode int
	Output   []byte
	Err      error
}

func (e *CommandError) Error() string {
	if len(e.Output) > 0 {
		return fmt.Sprintf(messages.ExecCommandFailedOutputFmt, e.Command, e.ExitCode, strings.TrimSpace(string(e.Output)))
	}
	return fmt.Sprintf(messages.ExecCommandFailedFmt, e.Command, e.ExitCode, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// SystemRunner runs commands on the host with a bounded timeout.
// A zero Timeout falls back to DefaultTimeout.
type SystemRunner struct {
	Timeout time.Duration
}

// Run executes name with args and waits for completion.
// Non-zero exit, start failure, and timeout are all returned as *CommandError.
func (r SystemRunner) Run(ctx context.Context, name string, args ...string) (Output, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	combined, err := cmd.CombinedOutput()
	line := commandLine(name, args)
	if err != nil {
		cmdErr := &CommandError{Command: line, ExitCode: -1, Output: combined, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			cmdErr.Err = fmt.Errorf(messages.ExecTimeoutFmt, timeout, ctxErr)
		}
		return Output{Command: line, ExitCode: cmdErr.ExitCode, Combined: combined}, cmdErr
	}
	return Output{Command: line, ExitCode: 0, Combined: combined}, nil
}

// commandLine renders the invocation for error reporting.
func commandLine(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
