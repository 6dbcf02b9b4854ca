package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/aminchedo/Project-X-sub005/pkg/terminal"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithTimeout sets the per-request timeout (default 10s). Ignored when a
// custom HTTP client is supplied.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// Client talks JSON over HTTP to the trading backend.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a client rooted at baseURL, e.g. "http://localhost:8000".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// GetTicker fetches the latest market snapshot for symbol.
func (c *Client) GetTicker(ctx context.Context, symbol string) (*terminal.Ticker, error) {
	var t terminal.Ticker
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/api/ticker", q, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetOrderBook fetches the latest depth snapshot for symbol.
func (c *Client) GetOrderBook(ctx context.Context, symbol string) (*terminal.OrderBook, error) {
	var b terminal.OrderBook
	q := url.Values{"symbol": {symbol}}
	if err := c.get(ctx, "/api/orderbook", q, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetPortfolioSummary fetches the account position snapshot.
func (c *Client) GetPortfolioSummary(ctx context.Context) (*terminal.PortfolioSummary, error) {
	var p terminal.PortfolioSummary
	if err := c.get(ctx, "/api/portfolio/summary", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPnLSummary fetches the profit and loss snapshot.
func (c *Client) GetPnLSummary(ctx context.Context) (*terminal.PnLSummary, error) {
	var p terminal.PnLSummary
	if err := c.get(ctx, "/api/pnl/summary", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetRiskSnapshot fetches the backend's current risk assessment.
func (c *Client) GetRiskSnapshot(ctx context.Context) (*terminal.RiskSnapshot, error) {
	var r terminal.RiskSnapshot
	if err := c.get(ctx, "/api/risk/status", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Scan runs the signal scanner with the given filters and returns its rows.
func (c *Client) Scan(ctx context.Context, filters terminal.ScannerFilters) ([]terminal.ScanResult, error) {
	var results []terminal.ScanResult
	if err := c.post(ctx, "/api/scanner/run", filters, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	return c.do(req, path, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: backend returned %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
