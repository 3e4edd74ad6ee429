package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// Execute runs the tool's command with args appended verbatim as an argument
// vector. Privilege elevation and timeout enforcement are composed per the
// descriptor:
//
//   - sudo + timeout: sudo wraps a timeout invocation so the limit binds the
//     elevated process, not just the sudo wrapper
//   - timeout only: the invocation runs under a deadline context
//   - neither: the command runs directly
//
// Stdout and stderr are captured separately and merged into Result.Content:
// stderr alone is reported under a STDERR label; both streams yield stdout
// followed by a labeled stderr block. A non-zero exit keeps all captured
// content alongside the failure message; a failure to launch at all is
// reported with the raw launch error.
func (d *Descriptor) Execute(ctx context.Context, args []string) Result {
	cancel := func() {}
	if d.Timeout > 0 && !d.RequiresSudo {
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
	}
	defer cancel()

	var cmd *exec.Cmd
	switch {
	case d.RequiresSudo && d.Timeout > 0:
		secs := strconv.FormatInt(int64(d.Timeout/time.Second), 10)
		argv := append([]string{"timeout", secs, d.Command}, args...)
		cmd = exec.CommandContext(ctx, "sudo", argv...)
	case d.RequiresSudo:
		cmd = exec.CommandContext(ctx, "sudo", append([]string{d.Command}, args...)...)
	default:
		cmd = exec.CommandContext(ctx, d.Command, args...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	content := mergeStreams(stdout.String(), stderr.String())

	if err == nil {
		return SuccessResult(content)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return FailureResultWithContent(content, fmt.Sprintf("tool timed out after %s", d.Timeout))
	case errors.As(err, &exitErr):
		return FailureResultWithContent(content, fmt.Sprintf("tool exited with status %d", exitErr.ExitCode()))
	default:
		// The process never launched (missing binary, permission denied).
		return FailureResult("failed to execute tool: %v", err)
	}
}

// mergeStreams applies the fixed content assembly rule for captured output.
func mergeStreams(stdout, stderr string) string {
	switch {
	case stdout == "" && stderr != "":
		return "STDERR:\n" + stderr
	case stderr != "":
		return stdout + "\n\nSTDERR:\n" + stderr
	default:
		return stdout
	}
}
