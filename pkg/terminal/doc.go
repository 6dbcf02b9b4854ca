// Package terminal holds the single source of truth for the trading
// terminal: the trading context, scanner filters, watchlist, remote
// snapshots, and the mirrored connection status.
//
// The Store is an explicit owned instance, constructed once at application
// start and passed to consumers; tests construct isolated instances. All
// mutation goes through named setter actions. Setters with derived-state
// rules (SetSymbol, SetTimeframe) apply their whole effect as one atomic
// update, so a subscriber never observes the trading context changed
// without the matching scanner-filter rewrite.
//
// Remote snapshots (ticker, order book, portfolio, P&L, risk, last signal)
// are wholly replaced on every update, never merged field by field. A nil
// snapshot is the explicit "no data yet" state and is a valid value.
package terminal
