package executor

import (
	"context"
	"sync/atomic"
)

// Cancellation is the per-step cancellation token of spec.md §4.9: states
// {Idle, Signalled}, Signalled terminal. Tasks poll it before acquiring a
// concurrency slot, immediately after acquiring it, before expanding the
// command, and before starting the subprocess; it is not polled after the
// subprocess completes. Signalling also cancels the step's context, so a subprocess
// already running under exec.CommandContext is killed rather than merely
// ignored by future polls.
type Cancellation struct {
	signalled atomic.Bool
	cancelFn  context.CancelFunc
}

// NewCancellation returns a token wired to cancelFn, invoked once on the
// first Signal.
func NewCancellation(cancelFn context.CancelFunc) *Cancellation {
	return &Cancellation{cancelFn: cancelFn}
}

// Signal transitions the token to Signalled and kills the step's context.
// Idempotent.
func (c *Cancellation) Signal() {
	c.signalled.Store(true)
	if c.cancelFn != nil {
		c.cancelFn()
	}
}

// Signalled reports whether the token has been signalled.
func (c *Cancellation) Signalled() bool {
	return c.signalled.Load()
}
