package state

import (
	"sync"
	"testing"
	"time"
)

// counter records invocations and the last argument under a lock so test
// goroutines and timer goroutines don't race.
type counter struct {
	mu    sync.Mutex
	calls int
	last  string
}

func (c *counter) record(arg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = arg
}

func (c *counter) snapshot() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.last
}

func TestDebouncerBurstFiresOnce(t *testing.T) {
	var c counter
	d := NewDebouncer(50*time.Millisecond, c.record)
	defer d.Stop()

	d.Call("a")
	d.Call("b")
	d.Call("c")

	if calls, _ := c.snapshot(); calls != 0 {
		t.Errorf("debounced fn must not fire during the burst, got %d calls", calls)
	}

	time.Sleep(150 * time.Millisecond)

	calls, last := c.snapshot()
	if calls != 1 {
		t.Errorf("expected exactly 1 invocation, got %d", calls)
	}
	if last != "c" {
		t.Errorf("expected last argument c, got %s", last)
	}
}

func TestDebouncerRestartsWindow(t *testing.T) {
	var c counter
	d := NewDebouncer(60*time.Millisecond, c.record)
	defer d.Stop()

	d.Call("a")
	time.Sleep(30 * time.Millisecond)
	d.Call("b")
	time.Sleep(30 * time.Millisecond)

	// The second call restarted the window, so nothing has fired yet.
	if calls, _ := c.snapshot(); calls != 0 {
		t.Errorf("window restart must cancel the pending invocation, got %d calls", calls)
	}

	time.Sleep(100 * time.Millisecond)
	if calls, _ := c.snapshot(); calls != 1 {
		t.Errorf("expected 1 invocation after quiet window, got %d", calls)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var c counter
	d := NewDebouncer(30*time.Millisecond, c.record)

	d.Call("a")
	d.Stop()

	time.Sleep(80 * time.Millisecond)
	if calls, _ := c.snapshot(); calls != 0 {
		t.Errorf("Stop must cancel the pending invocation, got %d calls", calls)
	}

	d.Call("b")
	time.Sleep(80 * time.Millisecond)
	if calls, _ := c.snapshot(); calls != 0 {
		t.Errorf("Call after Stop must be a no-op, got %d calls", calls)
	}
}

func TestDebouncerFlush(t *testing.T) {
	var c counter
	d := NewDebouncer(time.Hour, c.record)
	defer d.Stop()

	d.Call("a")
	d.Flush()

	calls, last := c.snapshot()
	if calls != 1 || last != "a" {
		t.Errorf("Flush must fire the pending invocation, got %d calls last %q", calls, last)
	}

	// Nothing pending anymore.
	d.Flush()
	if calls, _ := c.snapshot(); calls != 1 {
		t.Errorf("Flush with nothing pending must be a no-op, got %d calls", calls)
	}
}

func TestThrottlerLeadingEdge(t *testing.T) {
	var c counter
	th := NewThrottler(100*time.Millisecond, c.record)
	defer th.Stop()

	th.Call("a")
	th.Call("b")

	calls, last := c.snapshot()
	if calls != 1 {
		t.Errorf("expected 1 invocation within the interval, got %d", calls)
	}
	if last != "a" {
		t.Errorf("throttle fires on the first call, expected argument a, got %s", last)
	}

	time.Sleep(150 * time.Millisecond)

	th.Call("c")
	calls, last = c.snapshot()
	if calls != 2 {
		t.Errorf("expected 2 invocations after interval elapsed, got %d", calls)
	}
	if last != "c" {
		t.Errorf("expected argument c, got %s", last)
	}
}

func TestThrottlerDropsDoesNotQueue(t *testing.T) {
	var c counter
	th := NewThrottler(80*time.Millisecond, c.record)
	defer th.Stop()

	th.Call("a")
	th.Call("b")
	th.Call("c")

	time.Sleep(200 * time.Millisecond)

	// Dropped calls never fire later.
	if calls, _ := c.snapshot(); calls != 1 {
		t.Errorf("dropped calls must not be queued, got %d invocations", calls)
	}
}

func TestThrottlerPanicPropagatesToCaller(t *testing.T) {
	th := NewThrottler(time.Millisecond, func(string) { panic("boom") })
	defer th.Stop()

	defer func() {
		if recover() == nil {
			t.Error("expected panic from fn to reach the triggering Call")
		}
	}()
	th.Call("a")
}

func TestThrottlerStop(t *testing.T) {
	var c counter
	th := NewThrottler(time.Millisecond, c.record)
	th.Stop()

	th.Call("a")
	if calls, _ := c.snapshot(); calls != 0 {
		t.Errorf("Call after Stop must be a no-op, got %d calls", calls)
	}
}
