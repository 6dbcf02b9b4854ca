package metrics

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sample is one recorded timed region.
type Sample struct {
	Name     string
	Labels   map[string]string
	Duration time.Duration
	At       time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the flush interval (default 10s).
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

// WithCollector sets the collector endpoint the flush loop pushes batches
// to. A nil client means http.DefaultClient. Without a collector the
// monitor only buffers.
func WithCollector(url string, client *http.Client) Option {
	return func(m *Monitor) {
		m.endpoint = url
		if client != nil {
			m.client = client
		}
	}
}

// WithMaxBuffered caps the in-memory sample buffer (default 10000). When a
// collector outage pushes the buffer over the cap, the oldest samples are
// dropped first and the drop is counted.
func WithMaxBuffered(n int) Option {
	return func(m *Monitor) { m.maxBuffered = n }
}

// WithLabels sets constant labels attached to every flushed sample.
func WithLabels(labels map[string]string) Option {
	return func(m *Monitor) { m.labels = labels }
}

// WithLogger sets the logger for flush diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRegisterer additionally publishes operation durations, flush
// failures, and dropped samples on the given Prometheus registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(m *Monitor) { m.registerer = reg }
}

// WithTracer opens an OpenTelemetry span per timed region: Start begins
// the span, End ends it.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Monitor) { m.tracer = tracer }
}

// Monitor times named operations and flushes aggregated samples to a
// collector on a fixed interval.
type Monitor struct {
	interval    time.Duration
	endpoint    string
	client      *http.Client
	maxBuffered int
	labels      map[string]string
	logger      *slog.Logger
	registerer  prometheus.Registerer
	tracer      trace.Tracer

	mu      sync.Mutex
	enabled bool
	starts  map[string]time.Time
	spans   map[string]trace.Span
	samples []Sample

	durations     *prometheus.HistogramVec
	flushFailures prometheus.Counter
	droppedTotal  prometheus.Counter

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a monitor. The flush loop starts only when a collector
// endpoint is configured; Stop tears it down with one final flush.
func New(opts ...Option) *Monitor {
	m := &Monitor{
		interval:    10 * time.Second,
		client:      http.DefaultClient,
		maxBuffered: 10000,
		logger:      slog.Default(),
		enabled:     true,
		starts:      make(map[string]time.Time),
		spans:       make(map[string]trace.Span),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.registerer != nil {
		factory := promauto.With(m.registerer)
		m.durations = factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "px",
			Name:      "operation_duration_seconds",
			Help:      "Duration of monitored terminal operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"})
		m.flushFailures = factory.NewCounter(prometheus.CounterOpts{
			Namespace: "px",
			Name:      "metric_flush_failures_total",
			Help:      "Failed pushes to the metrics collector",
		})
		m.droppedTotal = factory.NewCounter(prometheus.CounterOpts{
			Namespace: "px",
			Name:      "metric_samples_dropped_total",
			Help:      "Samples dropped because the buffer cap was hit",
		})
	}

	if m.endpoint != "" {
		m.wg.Add(1)
		go m.flushLoop()
	}
	return m
}

// SetEnabled turns recording on or off. While disabled, Start is a no-op
// and End reports no duration.
func (m *Monitor) SetEnabled(enabled bool) {
	m.mu.Lock()
	m.enabled = enabled
	m.mu.Unlock()
}

// Start opens the timed region called name. A second Start for the same
// name before End restarts the region: last start wins.
func (m *Monitor) Start(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	m.starts[name] = time.Now()

	if m.tracer != nil {
		if old, ok := m.spans[name]; ok {
			old.End()
		}
		_, span := m.tracer.Start(context.Background(), name,
			trace.WithAttributes(attribute.String("px.operation", name)))
		m.spans[name] = span
	}
}

// End closes the timed region called name and records a sample. It reports
// ok=false when the monitor is disabled or no Start is pending for name.
func (m *Monitor) End(name string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return 0, false
	}
	started, ok := m.starts[name]
	if !ok {
		return 0, false
	}
	delete(m.starts, name)

	if span, ok := m.spans[name]; ok {
		span.End()
		delete(m.spans, name)
	}

	d := time.Since(started)
	m.appendLocked(Sample{Name: name, Duration: d, At: time.Now()})
	return d, true
}

// Record adds a sample directly, for callers that measured elsewhere.
func (m *Monitor) Record(name string, d time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return
	}
	m.appendLocked(Sample{Name: name, Labels: labels, Duration: d, At: time.Now()})
}

// appendLocked adds a sample, enforces the buffer cap (oldest first), and
// feeds the Prometheus bridge. Callers hold m.mu.
func (m *Monitor) appendLocked(s Sample) {
	m.samples = append(m.samples, s)
	m.enforceCapLocked()

	if m.durations != nil {
		m.durations.WithLabelValues(s.Name).Observe(s.Duration.Seconds())
	}
}

func (m *Monitor) enforceCapLocked() {
	if m.maxBuffered <= 0 || len(m.samples) <= m.maxBuffered {
		return
	}
	over := len(m.samples) - m.maxBuffered
	m.samples = append([]Sample(nil), m.samples[over:]...)
	if m.droppedTotal != nil {
		m.droppedTotal.Add(float64(over))
	}
	m.logger.Warn("metric buffer cap hit, oldest samples dropped", "dropped", over)
}

// Metrics returns all buffered samples in recording order.
func (m *Monitor) Metrics() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// Average returns the mean duration across all buffered samples recorded
// under name, or 0 when there are none.
func (m *Monitor) Average(name string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum time.Duration
	var n int
	for _, s := range m.samples {
		if s.Name == name {
			sum += s.Duration
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / time.Duration(n)
}

// Clear drops all buffered samples and pending starts.
func (m *Monitor) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = nil
	m.starts = make(map[string]time.Time)
}

// Flush pushes all buffered samples to the collector now. On failure the
// batch returns to the front of the buffer so no prior unflushed sample is
// lost; the next interval retries.
func (m *Monitor) Flush() error {
	if m.endpoint == "" {
		return nil
	}

	m.mu.Lock()
	batch := m.samples
	m.samples = nil
	m.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	err := m.push(batch)
	if err == nil {
		return nil
	}

	m.mu.Lock()
	m.samples = append(batch, m.samples...)
	m.enforceCapLocked()
	m.mu.Unlock()

	if m.flushFailures != nil {
		m.flushFailures.Inc()
	}
	return err
}

func (m *Monitor) push(batch []Sample) error {
	body := encodeBatch(batch, m.labels)

	req, err := http.NewRequest(http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build collector request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push metrics: collector returned %s", resp.Status)
	}
	return nil
}

func (m *Monitor) flushLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if err := m.Flush(); err != nil {
				m.logger.Warn("metric flush failed", "error", err)
			}
		}
	}
}

// Stop shuts the flush loop down, then performs one final synchronous
// flush so buffered samples are not silently lost.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		if err := m.Flush(); err != nil {
			m.logger.Warn("final metric flush failed", "error", err)
		}
	})
}
