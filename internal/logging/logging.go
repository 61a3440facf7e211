// Package logging implements the per-step, coloured console output of
// spec.md §7: "each error produces one coloured line containing the step
// name, the offending file (if any), and the underlying message; the
// aggregate summary at step end states filesProcessed, filesSkipped,
// errorsEncountered." Colour is disabled automatically on a non-terminal
// stderr, the same interactivity check the teacher used for approval
// prompts.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Logger writes step progress and errors to an output stream, colourising
// when that stream is an interactive terminal. All writes go through mu so
// concurrent file-tasks cannot interleave partial lines (spec.md §5:
// "log output per task is emitted under a single-owner mutex so each
// task's lines appear contiguous in the stream").
type Logger struct {
	out      io.Writer
	colorize bool
	debug    bool
	mu       sync.Mutex
}

// New returns a Logger writing to os.Stderr, with colour enabled only when
// stderr is a terminal.
func New(debug bool) *Logger {
	return &Logger{
		out:      os.Stderr,
		colorize: term.IsTerminal(int(os.Stderr.Fd())),
		debug:    debug,
	}
}

// NewWithWriter returns a Logger writing to w instead of os.Stderr, with
// colour disabled. Intended for tests and for capturing output into a
// non-terminal sink (a file, a CI log collector).
func NewWithWriter(w io.Writer, debug bool) *Logger {
	return &Logger{out: w, debug: debug}
}

func (l *Logger) paint(c *color.Color, format string, args ...interface{}) string {
	if !l.colorize {
		return fmt.Sprintf(format, args...)
	}
	return c.Sprintf(format, args...)
}

// StepStart announces a build step beginning.
func (l *Logger) StepStart(stepName string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, l.paint(color.New(color.FgCyan, color.Bold), "==> %s", stepName))
}

// Command prints a command line before it runs, gated on -d/--debug.
func (l *Logger) Command(line string) {
	if !l.debug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, l.paint(color.New(color.Faint), "  $ %s", line))
}

// StepError reports one per-task failure: step name, offending file (may
// be empty for once/directory steps), and the underlying message.
func (l *Logger) StepError(stepName, file string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if file != "" {
		fmt.Fprintln(l.out, l.paint(color.New(color.FgRed), "  [%s] %s: %v", stepName, file, err))
		return
	}
	fmt.Fprintln(l.out, l.paint(color.New(color.FgRed), "  [%s] %v", stepName, err))
}

// StepSummary prints the aggregate counters after a step completes.
func (l *Logger) StepSummary(stepName string, processed, skipped, errored int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	summary := fmt.Sprintf("processed=%d skipped=%d errors=%d", processed, skipped, errored)
	c := color.New(color.FgGreen)
	if errored > 0 {
		c = color.New(color.FgYellow)
	}
	fmt.Fprintln(l.out, l.paint(c, "  <== %s: %s", stepName, summary))
}

// TaskOutput relays one subprocess's combined stdout/stderr as a single
// atomic write, keeping concurrent file-tasks from interleaving mid-line.
func (l *Logger) TaskOutput(b []byte) {
	if len(b) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out.Write(b)
}
