package state

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of calls into a single invocation of fn,
// fired wait after the last call in the burst with that call's argument.
// Each call within the window cancels the pending invocation and restarts
// the timer.
//
// fn runs on the timer goroutine. The debouncer does not retry: a panic
// from fn crashes the timer goroutine, matching the caller-owns-failure
// contract of the wrapped function.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	pending T
	has     bool
	stopped bool
}

// NewDebouncer creates a debouncer around fn with the given quiet window.
func NewDebouncer[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Call schedules fn to run wait from now with arg, replacing any pending
// invocation.
func (d *Debouncer[T]) Call(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = arg
	d.has = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fire)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	if d.stopped || !d.has {
		d.mu.Unlock()
		return
	}
	arg := d.pending
	d.has = false
	d.mu.Unlock()

	d.fn(arg)
}

// Flush fires a pending invocation immediately, on the calling goroutine.
// It is a no-op when nothing is pending.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.fire()
}

// Stop cancels any pending invocation and makes further Calls no-ops, so
// the debouncer can be dropped before the timer fires.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.has = false
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Throttler rate-limits calls to fn: the first call invokes fn immediately
// and synchronously, then calls are dropped (not queued) until interval has
// elapsed since the last invocation.
//
// Because the invocation is synchronous, a panic from fn propagates to
// whichever Call triggered it.
type Throttler[T any] struct {
	interval time.Duration
	fn       func(T)

	mu      sync.Mutex
	last    time.Time
	stopped bool
}

// NewThrottler creates a throttler around fn with the given minimum
// interval between invocations.
func NewThrottler[T any](interval time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{interval: interval, fn: fn}
}

// Call invokes fn with arg if the interval has elapsed since the last
// invocation, and drops the call otherwise.
func (t *Throttler[T]) Call(arg T) {
	t.mu.Lock()
	if t.stopped || time.Since(t.last) < t.interval {
		t.mu.Unlock()
		return
	}
	t.last = time.Now()
	t.mu.Unlock()

	t.fn(arg)
}

// Stop makes further Calls no-ops.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}
