// Package schedule coalesces bursts of work: a trailing-edge debouncer, an
// in-flight guard for recomputation passes, and a single-slot frame
// scheduler for redraws.
package schedule

import (
	"sync"
	"time"
)

// Debouncer runs fn once the calls to Trigger have been quiet for the wait
// window, with the most recent argument.
type Debouncer[T any] struct {
	mu      sync.Mutex
	wait    time.Duration
	fn      func(T)
	timer   *time.Timer
	gen     uint64
	pending bool
	last    T
}

// NewDebouncer builds a debouncer around fn.
func NewDebouncer[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Trigger records arg and restarts the quiet window.
func (d *Debouncer[T]) Trigger(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.last = arg
	d.pending = true
	d.stopLocked()
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	arg := d.last
	d.mu.Unlock()

	d.fn(arg)
}

// stopLocked invalidates any scheduled call. Bumping gen covers timers that
// already fired and are waiting on the mutex.
func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Cancel drops the pending trailing call, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.pending = false
}

// Flush runs the pending call now, on the caller's goroutine. It reports
// whether there was anything to run.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.pending = false
	arg := d.last
	d.mu.Unlock()

	d.fn(arg)
	return true
}

// Pending reports whether a trailing call is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
