package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestStartEnd(t *testing.T) {
	m := New()
	defer m.Stop()

	m.Start("load")
	time.Sleep(5 * time.Millisecond)
	d, ok := m.End("load")

	if !ok {
		t.Fatal("expected End to report a duration")
	}
	if d < 0 {
		t.Errorf("expected non-negative duration, got %v", d)
	}
	if got := len(m.Metrics()); got != 1 {
		t.Errorf("expected 1 sample, got %d", got)
	}
}

func TestEndWithoutStart(t *testing.T) {
	m := New()
	defer m.Stop()

	if _, ok := m.End("never-started"); ok {
		t.Error("End without Start must report ok=false")
	}
}

func TestLastStartWins(t *testing.T) {
	m := New()
	defer m.Stop()

	m.Start("op")
	time.Sleep(40 * time.Millisecond)
	m.Start("op") // restarts the region
	time.Sleep(5 * time.Millisecond)

	d, ok := m.End("op")
	if !ok {
		t.Fatal("expected a duration")
	}
	if d >= 40*time.Millisecond {
		t.Errorf("last start must win, measured %v", d)
	}

	// The first start was consumed by the restart.
	if _, ok := m.End("op"); ok {
		t.Error("second End must find no pending start")
	}
}

func TestDisabled(t *testing.T) {
	m := New()
	defer m.Stop()

	m.SetEnabled(false)

	m.Start("op")
	if _, ok := m.End("op"); ok {
		t.Error("End must report ok=false while disabled")
	}

	m.Record("op", time.Millisecond, nil)
	if got := len(m.Metrics()); got != 0 {
		t.Errorf("disabled monitor must not record, got %d samples", got)
	}

	m.SetEnabled(true)
	m.Record("op", time.Millisecond, nil)
	if got := len(m.Metrics()); got != 1 {
		t.Errorf("re-enabled monitor must record, got %d samples", got)
	}
}

func TestAverage(t *testing.T) {
	m := New()
	defer m.Stop()

	if got := m.Average("op"); got != 0 {
		t.Errorf("average with no samples is 0, got %v", got)
	}

	m.Record("op", 10*time.Millisecond, nil)
	m.Record("op", 20*time.Millisecond, nil)
	m.Record("op", 30*time.Millisecond, nil)
	m.Record("other", time.Hour, nil)

	if got := m.Average("op"); got != 20*time.Millisecond {
		t.Errorf("expected mean 20ms, got %v", got)
	}
}

func TestMetricsRecordingOrderAndClear(t *testing.T) {
	m := New()
	defer m.Stop()

	m.Record("a", time.Millisecond, nil)
	m.Record("b", time.Millisecond, nil)
	m.Record("c", time.Millisecond, nil)

	samples := m.Metrics()
	if len(samples) != 3 || samples[0].Name != "a" || samples[2].Name != "c" {
		t.Errorf("expected samples in recording order, got %+v", samples)
	}

	m.Clear()
	if got := len(m.Metrics()); got != 0 {
		t.Errorf("Clear must empty the buffer, got %d samples", got)
	}
}

func TestBufferCapDropsOldest(t *testing.T) {
	m := New(WithMaxBuffered(2))
	defer m.Stop()

	m.Record("a", time.Millisecond, nil)
	m.Record("b", time.Millisecond, nil)
	m.Record("c", time.Millisecond, nil)

	samples := m.Metrics()
	if len(samples) != 2 || samples[0].Name != "b" || samples[1].Name != "c" {
		t.Errorf("expected oldest sample dropped, got %+v", samples)
	}
}

// collectorServer records every batch body it accepts and can be switched
// into failure mode.
type collectorServer struct {
	mu      sync.Mutex
	bodies  []string
	failing bool
	srv     *httptest.Server
}

func newCollectorServer() *collectorServer {
	c := &collectorServer{}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		c.bodies = append(c.bodies, string(body))
	}))
	return c
}

func (c *collectorServer) setFailing(fail bool) {
	c.mu.Lock()
	c.failing = fail
	c.mu.Unlock()
}

func (c *collectorServer) accepted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.bodies))
	copy(out, c.bodies)
	return out
}

func TestFlushPushesBatch(t *testing.T) {
	col := newCollectorServer()
	defer col.srv.Close()

	m := New(WithCollector(col.srv.URL, nil), WithInterval(time.Hour))
	defer m.Stop()

	m.Record("scan", 5*time.Millisecond, nil)
	m.Record("refresh", 7*time.Millisecond, nil)

	if err := m.Flush(); err != nil {
		t.Fatalf("flush failed: %v", err)
	}
	if got := len(m.Metrics()); got != 0 {
		t.Errorf("flushed samples must leave the buffer, got %d", got)
	}

	bodies := col.accepted()
	if len(bodies) != 1 {
		t.Fatalf("expected one accepted batch, got %d", len(bodies))
	}
	lines := strings.Split(strings.TrimSpace(bodies[0]), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "scan ") || !strings.HasPrefix(lines[1], "refresh ") {
		t.Errorf("unexpected batch body: %q", bodies[0])
	}
}

func TestFlushFailureRebuffersAtFront(t *testing.T) {
	col := newCollectorServer()
	defer col.srv.Close()
	col.setFailing(true)

	m := New(WithCollector(col.srv.URL, nil), WithInterval(time.Hour))
	defer m.Stop()

	m.Record("first", time.Millisecond, nil)
	if err := m.Flush(); err == nil {
		t.Fatal("expected flush error from failing collector")
	}

	// Nothing lost, new samples queue behind the failed batch.
	m.Record("second", time.Millisecond, nil)
	samples := m.Metrics()
	if len(samples) != 2 || samples[0].Name != "first" || samples[1].Name != "second" {
		t.Fatalf("failed batch must return to the front, got %+v", samples)
	}

	col.setFailing(false)
	if err := m.Flush(); err != nil {
		t.Fatalf("retry flush failed: %v", err)
	}

	bodies := col.accepted()
	if len(bodies) != 1 {
		t.Fatalf("expected one accepted batch, got %d", len(bodies))
	}
	lines := strings.Split(strings.TrimSpace(bodies[0]), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "first ") {
		t.Errorf("retried batch must keep recording order, got %q", bodies[0])
	}
}

func TestStopPerformsFinalFlush(t *testing.T) {
	col := newCollectorServer()
	defer col.srv.Close()

	m := New(WithCollector(col.srv.URL, nil), WithInterval(time.Hour))
	m.Record("shutdown", time.Millisecond, nil)
	m.Stop()

	bodies := col.accepted()
	if len(bodies) != 1 || !strings.HasPrefix(bodies[0], "shutdown ") {
		t.Errorf("Stop must flush buffered samples, got %v", bodies)
	}

	// Stop is idempotent.
	m.Stop()
}

func TestFlushWithoutCollectorKeepsSamples(t *testing.T) {
	m := New()
	defer m.Stop()

	m.Record("op", time.Millisecond, nil)
	if err := m.Flush(); err != nil {
		t.Fatalf("flush without collector must be a no-op, got %v", err)
	}
	if got := len(m.Metrics()); got != 1 {
		t.Errorf("samples must stay buffered without a collector, got %d", got)
	}
}

func TestPeriodicFlush(t *testing.T) {
	col := newCollectorServer()
	defer col.srv.Close()

	m := New(WithCollector(col.srv.URL, nil), WithInterval(20*time.Millisecond))
	defer m.Stop()

	m.Record("tick", time.Millisecond, nil)

	deadline := time.After(2 * time.Second)
	for {
		if len(col.accepted()) > 0 {
			return
		}
		select {
		case <-deadline:
			t.Fatal("periodic flush never reached the collector")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
