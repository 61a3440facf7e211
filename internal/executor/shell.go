package executor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// invoke runs line through the platform shell (spec.md §6: "/s /c" on
// Windows, "-c" elsewhere), bounded by the configured subprocess timeout,
// and relays its combined output as one atomic write to the logger.
func (r *Runner) invoke(ctx context.Context, line string) error {
	r.logger.Command(formatForDebug(line))

	runCtx, cancel := context.WithTimeout(ctx, r.opts.subprocessTimeout())
	defer cancel()

	cmd := shellCommand(runCtx, line)
	cmd.Dir = r.opts.WorkspaceRoot
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	r.logger.TaskOutput(out.Bytes())

	if runCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("command timed out after %s: %s", r.opts.subprocessTimeout(), line)
	}
	if err != nil {
		return fmt.Errorf("command failed: %s: %w", line, err)
	}
	return nil
}

// shellCommand builds the platform-appropriate shell invocation of a
// single command line, per spec.md §6.
func shellCommand(ctx context.Context, line string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		comspec := os.Getenv("COMSPEC")
		if comspec == "" {
			comspec = "cmd.exe"
		}
		return exec.CommandContext(ctx, comspec, "/s", "/c", line)
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return exec.CommandContext(ctx, shell, "-c", line)
}

// formatForDebug reformats a command line through mvdan.cc/sh's shell
// parser/printer for debug-mode display, normalising whitespace and
// quoting; a line that does not parse as shell syntax is printed as-is.
func formatForDebug(line string) string {
	f, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, f); err != nil {
		return line
	}
	return strings.TrimRight(buf.String(), "\n")
}
