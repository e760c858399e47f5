// Package gate implements the operator checkpoint between task executions:
// a bounded wait that resolves to Continue, Cancel, or TimedOut.
package gate

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"
)

// Decision is the outcome of one gate wait.
type Decision int

const (
	// Continue resumes execution (operator pressed enter).
	Continue Decision = iota
	// Cancel stops the run (operator typed the cancel token).
	Cancel
	// TimedOut means no input arrived before the deadline; callers treat it
	// like Continue (auto-advance).
	TimedOut
)

func (d Decision) String() string {
	switch d {
	case Continue:
		return "continue"
	case Cancel:
		return "cancel"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// DefaultCancelToken is the input that cancels the run.
const DefaultCancelToken = "cancel"

// Controller waits for operator input with a deadline. A single reader
// goroutine owns the input stream for the controller's lifetime; blocking
// reads cannot be cancelled in Go, so Await selects against its output
// channel instead of reading directly.
type Controller struct {
	lines       chan string
	cancelToken string
}

// NewController starts reading lines from input. When the stream closes (no
// attached terminal, EOF), every subsequent Await degrades to a pure
// countdown and resolves TimedOut.
func NewController(input io.Reader, cancelToken string) *Controller {
	if cancelToken == "" {
		cancelToken = DefaultCancelToken
	}
	c := &Controller{
		lines:       make(chan string),
		cancelToken: cancelToken,
	}
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			c.lines <- strings.TrimSpace(scanner.Text())
		}
	}()
	return c
}

// Await blocks until operator input arrives, the timeout elapses, or ctx is
// cancelled. Enter (or any input other than the cancel token) resolves
// Continue; the cancel token resolves Cancel; ctx cancellation is treated as
// an operator cancel.
func (c *Controller) Await(ctx context.Context, timeout time.Duration) Decision {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	lines := c.lines
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// Input stream is gone; wait out the timer.
				lines = nil
				continue
			}
			if strings.EqualFold(line, c.cancelToken) {
				return Cancel
			}
			return Continue
		case <-timer.C:
			return TimedOut
		case <-ctx.Done():
			return Cancel
		}
	}
}
