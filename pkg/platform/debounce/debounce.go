// Package debounce coalesces bursts of calls into one trailing invocation
// carrying the latest value.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delays fn until no new value has arrived for the configured
// window. Invocations of fn never overlap and run in arrival order.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   *time.Timer
	value   T
	pending bool
	gen     uint64
	stopped bool

	run sync.Mutex
}

func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, fn: fn}
}

// Call records v as the latest value and restarts the window. Calls after
// Stop are ignored.
func (d *Debouncer[T]) Call(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.value = v
	d.pending = true
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()

	d.fn(v)
}

// take clears the pending value. Caller holds mu.
func (d *Debouncer[T]) take() T {
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	return v
}

// Flush runs fn now with the pending value, if any. It reports whether
// anything was flushed.
func (d *Debouncer[T]) Flush() bool {
	d.run.Lock()
	defer d.run.Unlock()

	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return false
	}
	v := d.take()
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Cancel drops the pending value without running fn.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		d.take()
	}
}

// Pending reports whether a value is waiting for the window to close.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop flushes the pending value and ignores later calls.
func (d *Debouncer[T]) Stop() {
	d.Flush()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
