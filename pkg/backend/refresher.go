package backend

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aminchedo/Project-X-sub005/pkg/metrics"
	"github.com/aminchedo/Project-X-sub005/pkg/terminal"
)

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithRefreshInterval sets the poll interval (default 5s).
func WithRefreshInterval(d time.Duration) RefresherOption {
	return func(r *Refresher) { r.interval = d }
}

// WithRefreshLogger sets the logger for fetch failures.
func WithRefreshLogger(l *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMonitor records a duration sample per refresh cycle.
func WithMonitor(m *metrics.Monitor) RefresherOption {
	return func(r *Refresher) { r.monitor = m }
}

// Refresher polls the backend on a fixed interval and replaces the terminal
// store's remote snapshots with each response. A fetch failure surfaces as
// the store's LastError and the poller keeps going; snapshots that did fetch
// still land.
type Refresher struct {
	client   *Client
	store    *terminal.Store
	interval time.Duration
	logger   *slog.Logger
	monitor  *metrics.Monitor

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewRefresher creates a refresher and starts its poll loop immediately,
// beginning with one refresh up front so the store is populated before the
// first interval elapses.
func NewRefresher(client *Client, store *terminal.Store, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		client:   client,
		store:    store,
		interval: 5 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go r.loop(ctx)
	return r
}

// Stop halts the poll loop and waits for an in-flight refresh to finish.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() {
		r.cancel()
		r.wg.Wait()
	})
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

// refresh fetches every snapshot the terminal shows. Each result replaces
// its store field wholesale; partial failure never blocks the others.
func (r *Refresher) refresh(ctx context.Context) {
	started := time.Now()
	snap := r.store.State()
	symbol := snap.Context.Symbol

	var failed bool
	fail := func(what string, err error) {
		failed = true
		r.logger.Warn("backend refresh failed", "what", what, "error", err)
		r.store.SetLastError(what + " refresh failed: " + err.Error())
	}

	if t, err := r.client.GetTicker(ctx, symbol); err != nil {
		fail("ticker", err)
	} else {
		r.store.SetTicker(t)
	}
	if b, err := r.client.GetOrderBook(ctx, symbol); err != nil {
		fail("order book", err)
	} else {
		r.store.SetOrderBook(b)
	}
	if p, err := r.client.GetPortfolioSummary(ctx); err != nil {
		fail("portfolio", err)
	} else {
		r.store.SetPortfolioSummary(p)
	}
	if p, err := r.client.GetPnLSummary(ctx); err != nil {
		fail("pnl", err)
	} else {
		r.store.SetPnLSummary(p)
	}
	if rs, err := r.client.GetRiskSnapshot(ctx); err != nil {
		fail("risk", err)
	} else {
		r.store.SetRiskSnapshot(rs)
	}
	if results, err := r.client.Scan(ctx, snap.Filters); err != nil {
		fail("scan", err)
	} else {
		r.store.SetScanResults(results)
	}

	if !failed {
		r.store.SetLastError("")
	}
	if r.monitor != nil {
		r.monitor.Record("backend_refresh", time.Since(started), map[string]string{"symbol": symbol})
	}
}
