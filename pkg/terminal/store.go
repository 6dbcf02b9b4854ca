package terminal

import (
	"log/slog"

	"github.com/aminchedo/Project-X-sub005/pkg/state"
	"github.com/aminchedo/Project-X-sub005/pkg/stream"
)

// State is the terminal's entire snapshot at one instant.
type State struct {
	Context     TradingContext
	Filters     ScannerFilters
	Watchlist   []string
	ScanResults []ScanResult

	Ticker     *Ticker
	OrderBook  *OrderBook
	Portfolio  *PortfolioSummary
	PnL        *PnLSummary
	Risk       *RiskSnapshot
	LastSignal *Signal

	Connection stream.State
	LastError  string
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults sets the initial trading context.
func WithDefaults(ctx TradingContext) Option {
	return func(s *Store) { s.defaults = ctx }
}

// WithMinScore sets the initial scanner minimum score.
func WithMinScore(score float64) Option {
	return func(s *Store) { s.minScore = score }
}

// WithLogger sets the logger for subscriber panics and message decoding.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Store owns every State field for the lifetime of the page session.
type Store struct {
	store  *state.Store[State]
	logger *slog.Logger

	defaults TradingContext
	minScore float64
}

// NewStore creates the central store with its trading context initialized
// to the configured defaults and the scanner filters seeded from them.
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		defaults: TradingContext{
			Symbol:      "BTCUSDT",
			Timeframe:   "1h",
			Leverage:    10,
			RiskProfile: "balanced",
		},
		minScore: 0.7,
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := State{
		Context: s.defaults,
		Filters: ScannerFilters{
			Symbols:     []string{s.defaults.Symbol},
			Timeframes:  []string{s.defaults.Timeframe},
			MinScore:    s.minScore,
			SignalTypes: []string{"breakout", "reversal", "momentum"},
		},
		Connection: stream.StateConnecting,
	}
	s.store = state.New(initial).WithLogger(s.logger)
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	return s.store.Get()
}

// Subscribe registers fn to run synchronously after every snapshot change.
func (s *Store) Subscribe(fn func()) (cancel func()) {
	return s.store.Subscribe(fn)
}

// SetSymbol replaces the current symbol and promotes it to the front of the
// scanner filter symbols, de-duplicated. Both fields change in one atomic
// update: no subscriber ever observes the symbol without the matching
// filter rewrite.
func (s *Store) SetSymbol(symbol string) {
	s.store.Update(func(st State) State {
		st.Context.Symbol = symbol
		st.Filters.Symbols = promote(st.Filters.Symbols, symbol)
		return st
	})
}

// SetTimeframe replaces the current timeframe; same promotion rule as
// SetSymbol, applied to the scanner filter timeframes.
func (s *Store) SetTimeframe(timeframe string) {
	s.store.Update(func(st State) State {
		st.Context.Timeframe = timeframe
		st.Filters.Timeframes = promote(st.Filters.Timeframes, timeframe)
		return st
	})
}

// SetLeverage replaces the leverage setting.
func (s *Store) SetLeverage(leverage int) {
	s.store.Update(func(st State) State {
		st.Context.Leverage = leverage
		return st
	})
}

// SetRiskProfile replaces the risk profile name.
func (s *Store) SetRiskProfile(profile string) {
	s.store.Update(func(st State) State {
		st.Context.RiskProfile = profile
		return st
	})
}

// FilterPatch is a partial scanner-filter update. Nil fields are left
// untouched; non-nil fields replace the current value wholesale.
type FilterPatch struct {
	Symbols     []string
	Timeframes  []string
	MinScore    *float64
	SignalTypes []string
}

// SetScannerFilters applies a user-directed filter override. It may
// deliberately break the head-of-list invariant maintained by SetSymbol and
// SetTimeframe; the next SetSymbol/SetTimeframe call restores it.
func (s *Store) SetScannerFilters(p FilterPatch) {
	s.store.Update(func(st State) State {
		if p.Symbols != nil {
			st.Filters.Symbols = p.Symbols
		}
		if p.Timeframes != nil {
			st.Filters.Timeframes = p.Timeframes
		}
		if p.MinScore != nil {
			st.Filters.MinScore = *p.MinScore
		}
		if p.SignalTypes != nil {
			st.Filters.SignalTypes = p.SignalTypes
		}
		return st
	})
}

// SetScanResults replaces the scanner result rows.
func (s *Store) SetScanResults(results []ScanResult) {
	s.store.Update(func(st State) State {
		st.ScanResults = results
		return st
	})
}

// AddWatchSymbol adds a symbol to the watchlist; a silent no-op (no
// notification) if already present.
func (s *Store) AddWatchSymbol(symbol string) {
	s.store.UpdateIf(func(st State) (State, bool) {
		for _, w := range st.Watchlist {
			if w == symbol {
				return st, false
			}
		}
		next := make([]string, len(st.Watchlist), len(st.Watchlist)+1)
		copy(next, st.Watchlist)
		st.Watchlist = append(next, symbol)
		return st, true
	})
}

// RemoveWatchSymbol removes a symbol from the watchlist; a silent no-op if
// absent.
func (s *Store) RemoveWatchSymbol(symbol string) {
	s.store.UpdateIf(func(st State) (State, bool) {
		for i, w := range st.Watchlist {
			if w == symbol {
				next := make([]string, 0, len(st.Watchlist)-1)
				next = append(next, st.Watchlist[:i]...)
				next = append(next, st.Watchlist[i+1:]...)
				st.Watchlist = next
				return st, true
			}
		}
		return st, false
	})
}

// SetTicker replaces the ticker snapshot. Nil means "no data".
func (s *Store) SetTicker(t *Ticker) {
	s.store.Update(func(st State) State {
		st.Ticker = t
		return st
	})
}

// SetOrderBook replaces the order book snapshot.
func (s *Store) SetOrderBook(b *OrderBook) {
	s.store.Update(func(st State) State {
		st.OrderBook = b
		return st
	})
}

// SetPortfolioSummary replaces the portfolio snapshot.
func (s *Store) SetPortfolioSummary(p *PortfolioSummary) {
	s.store.Update(func(st State) State {
		st.Portfolio = p
		return st
	})
}

// SetPnLSummary replaces the P&L snapshot.
func (s *Store) SetPnLSummary(p *PnLSummary) {
	s.store.Update(func(st State) State {
		st.PnL = p
		return st
	})
}

// SetRiskSnapshot replaces the risk snapshot.
func (s *Store) SetRiskSnapshot(r *RiskSnapshot) {
	s.store.Update(func(st State) State {
		st.Risk = r
		return st
	})
}

// SetLastSignal replaces the last signal.
func (s *Store) SetLastSignal(sig *Signal) {
	s.store.Update(func(st State) State {
		st.LastSignal = sig
		return st
	})
}

// SetConnectionStatus mirrors the connection machine's state. One-way: the
// store never drives the machine.
func (s *Store) SetConnectionStatus(st stream.State) {
	s.store.Update(func(snap State) State {
		snap.Connection = st
		return snap
	})
}

// SetLastError replaces the last error string shown by the UI. Empty
// clears it.
func (s *Store) SetLastError(msg string) {
	s.store.Update(func(st State) State {
		st.LastError = msg
		return st
	})
}

// promote returns a fresh list with head first and any duplicate of it
// removed.
func promote(list []string, head string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, head)
	for _, v := range list {
		if v != head {
			out = append(out, v)
		}
	}
	return out
}
