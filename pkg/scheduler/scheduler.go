// Package scheduler runs one-shot deferred tasks that can be cancelled and
// rescheduled, which is the building block for debounced work.
package scheduler

import (
	"sync"
	"time"
)

// Task is a handle to a deferred function. Cancel stops the task if it has not
// started yet; a task that already fired stays fired.
type Task struct {
	timer *time.Timer

	mu        sync.Mutex
	cancelled bool
	done      chan struct{}
}

// Schedule runs fn on its own goroutine after delay. The returned Task can be
// cancelled until the moment fn starts.
func Schedule(delay time.Duration, fn func()) *Task {
	t := &Task{done: make(chan struct{})}
	t.timer = time.AfterFunc(delay, func() {
		t.mu.Lock()
		if t.cancelled {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
		defer close(t.done)
		fn()
	})
	return t
}

// Cancel prevents the task from running. It is safe to call multiple times and
// after the task has fired. Returns true if the task was stopped before firing.
func (t *Task) Cancel() bool {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
	return t.timer.Stop()
}

// Done returns a channel closed after the task function returns. A cancelled
// task never closes its channel.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Debouncer coalesces bursts of Reset calls into a single deferred run of the
// most recently supplied function.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending *Task
}

// NewDebouncer creates a Debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Reset cancels any pending run and schedules fn after the quiet period.
func (d *Debouncer) Reset(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
	}
	d.pending = Schedule(d.delay, fn)
}

// Cancel drops any pending run without scheduling a replacement.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending != nil {
		d.pending.Cancel()
		d.pending = nil
	}
}
