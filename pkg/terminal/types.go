package terminal

import "time"

// TradingContext is the primary trading selection: what the terminal is
// looking at and how aggressively it trades it.
type TradingContext struct {
	Symbol      string `json:"symbol"`
	Timeframe   string `json:"timeframe"`
	Leverage    int    `json:"leverage"`
	RiskProfile string `json:"risk_profile"`
}

// ScannerFilters select which markets the signal scanner covers. The
// symbols and timeframes lists lead with the current trading context
// selection; see Store.SetSymbol and Store.SetTimeframe.
type ScannerFilters struct {
	Symbols     []string `json:"symbols"`
	Timeframes  []string `json:"timeframes"`
	MinScore    float64  `json:"min_score"`
	SignalTypes []string `json:"signal_types"`
}

// Ticker is the latest market snapshot for one symbol.
type Ticker struct {
	Symbol       string    `json:"symbol"`
	Price        float64   `json:"price"`
	Change24h    float64   `json:"change_24h"`
	ChangePct24h float64   `json:"change_pct_24h"`
	High24h      float64   `json:"high_24h"`
	Low24h       float64   `json:"low_24h"`
	Volume24h    float64   `json:"volume_24h"`
	Timestamp    time.Time `json:"timestamp"`
}

// BookLevel is one price level of the order book.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is the latest depth snapshot for one symbol, best levels first.
type OrderBook struct {
	Symbol    string      `json:"symbol"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
	Timestamp time.Time   `json:"timestamp"`
}

// PortfolioSummary is the account-level position snapshot.
type PortfolioSummary struct {
	Equity        float64   `json:"equity"`
	Balance       float64   `json:"balance"`
	MarginUsed    float64   `json:"margin_used"`
	FreeMargin    float64   `json:"free_margin"`
	OpenPositions int       `json:"open_positions"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PnLSummary aggregates realized and unrealized profit and loss.
type PnLSummary struct {
	RealizedDay   float64   `json:"realized_day"`
	RealizedTotal float64   `json:"realized_total"`
	Unrealized    float64   `json:"unrealized"`
	WinRate       float64   `json:"win_rate"`
	Trades        int       `json:"trades"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RiskSnapshot is the backend's current risk assessment of the account.
type RiskSnapshot struct {
	Exposure    float64   `json:"exposure"`
	MaxDrawdown float64   `json:"max_drawdown"`
	ValueAtRisk float64   `json:"value_at_risk"`
	Leverage    float64   `json:"leverage"`
	Level       string    `json:"level"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Signal is one trading signal emitted by the backend's scoring engine.
type Signal struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"timeframe"`
	Direction string    `json:"direction"`
	Score     float64   `json:"score"`
	Price     float64   `json:"price"`
	IssuedAt  time.Time `json:"issued_at"`
}

// ScanResult is one row of a scanner run.
type ScanResult struct {
	Symbol    string  `json:"symbol"`
	Timeframe string  `json:"timeframe"`
	Direction string  `json:"direction"`
	Score     float64 `json:"score"`
}
