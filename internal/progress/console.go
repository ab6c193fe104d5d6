package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Console renders a progress bar to an io.Writer (stderr by default)
// and never cancels generation on its own; it is meant to be composed
// with a signal-driven cancellation source (see Cancellable).
type Console struct {
	startTime time.Time
	output    io.Writer
	mu        sync.Mutex
	total     int
	completed int
	cleanup   bool
	enabled   bool
}

// NewConsole creates a progress bar reporter. cleanupOnCancel controls
// the value CleanupOnCancel reports; it has no effect unless the
// Console is wrapped by a Cancellable.
func NewConsole(enabled, cleanupOnCancel bool) *Console {
	return &Console{
		output:    os.Stderr,
		startTime: time.Now(),
		enabled:   enabled,
		cleanup:   cleanupOnCancel,
	}
}

func (c *Console) SetMax(n int) {
	c.mu.Lock()
	c.total = n
	c.startTime = time.Now()
	c.mu.Unlock()
}

func (c *Console) AddProgress(delta int) {
	c.mu.Lock()
	c.completed += delta
	done := c.total > 0 && c.completed >= c.total
	c.mu.Unlock()

	if c.enabled {
		c.print()
		if done {
			fmt.Fprintln(c.output)
		}
	}
}

func (c *Console) IsActive() bool         { return true }
func (c *Console) CleanupOnCancel() bool  { return c.cleanup }

func (c *Console) print() {
	c.mu.Lock()
	completed, total, startTime := c.completed, c.total, c.startTime
	c.mu.Unlock()

	if total <= 0 {
		return
	}
	elapsed := time.Since(startTime)

	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(completed) / elapsed.Seconds()
	}

	barWidth := 30
	fraction := float64(completed) / float64(total)
	filled := int(fraction * float64(barWidth))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r[%s] %d/%d tiles - %.1f tiles/sec", bar, completed, total, rate)
	if completed >= total {
		line += fmt.Sprintf(" - done in %s", elapsed.Round(time.Second))
	}
	line += "          "
	fmt.Fprint(c.output, line)
}

// Cancellable wraps a Sink and overrides IsActive with an externally
// settable flag, so OS-signal handling (SIGINT/SIGTERM) can cancel an
// in-flight generate() without the Sink implementation knowing about
// signals itself.
type Cancellable struct {
	Sink
	mu     sync.RWMutex
	active bool
}

// NewCancellable wraps sink, starting active.
func NewCancellable(sink Sink) *Cancellable {
	return &Cancellable{Sink: sink, active: true}
}

func (c *Cancellable) IsActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Cancel flips IsActive to false; subsequent polls inside RetileEngine
// observe the cancellation cooperatively at the next zoom/row/column
// boundary.
func (c *Cancellable) Cancel() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}
