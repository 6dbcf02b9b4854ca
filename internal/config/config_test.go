package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pxterm.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Backend.BaseURL != DefaultBackendURL {
		t.Errorf("backend url default: got %q", c.Backend.BaseURL)
	}
	if c.Stream.BackoffBase.Std() != time.Second || c.Stream.BackoffCap.Std() != 30*time.Second {
		t.Errorf("backoff defaults: got %v / %v", c.Stream.BackoffBase, c.Stream.BackoffCap)
	}
	if c.Metrics.FlushInterval.Std() != 10*time.Second || c.Metrics.MaxBuffered != 10000 {
		t.Errorf("metrics defaults: got %v / %d", c.Metrics.FlushInterval, c.Metrics.MaxBuffered)
	}
	if c.Defaults.Symbol != "BTCUSDT" || c.Defaults.Timeframe != "1h" {
		t.Errorf("trading defaults: got %q / %q", c.Defaults.Symbol, c.Defaults.Timeframe)
	}
	if c.Defaults.MinScore != 0.7 {
		t.Errorf("min score default: got %v", c.Defaults.MinScore)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
backend:
  base_url: http://api.internal:9000
  refresh_interval: 2s
stream:
  url: ws://api.internal:9000/ws
  max_attempts: 5
metrics:
  collector_url: http://collector.internal/metrics
defaults:
  symbol: ETHUSDT
  leverage: 3
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if c.Backend.BaseURL != "http://api.internal:9000" {
		t.Errorf("backend url: got %q", c.Backend.BaseURL)
	}
	if c.Backend.RefreshInterval.Std() != 2*time.Second {
		t.Errorf("refresh interval: got %v", c.Backend.RefreshInterval)
	}
	if c.Stream.MaxAttempts != 5 {
		t.Errorf("max attempts: got %d", c.Stream.MaxAttempts)
	}
	if c.Metrics.CollectorURL != "http://collector.internal/metrics" {
		t.Errorf("collector url: got %q", c.Metrics.CollectorURL)
	}
	if c.Defaults.Symbol != "ETHUSDT" || c.Defaults.Leverage != 3 {
		t.Errorf("defaults: got %q / %d", c.Defaults.Symbol, c.Defaults.Leverage)
	}
	// Omitted fields still fall back.
	if c.Defaults.Timeframe != "1h" {
		t.Errorf("timeframe fallback: got %q", c.Defaults.Timeframe)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
defaults:
  symbol: ETHUSDT
`)
	t.Setenv("PX_SYMBOL", "SOLUSDT")
	t.Setenv("PX_BACKEND_URL", "http://override:8000")
	t.Setenv("PX_REFRESH_INTERVAL", "750ms")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Defaults.Symbol != "SOLUSDT" {
		t.Errorf("env must beat file, got %q", c.Defaults.Symbol)
	}
	if c.Backend.BaseURL != "http://override:8000" {
		t.Errorf("backend env override: got %q", c.Backend.BaseURL)
	}
	if c.Backend.RefreshInterval.Std() != 750*time.Millisecond {
		t.Errorf("refresh env override: got %v", c.Backend.RefreshInterval)
	}
}

func TestEnvParseError(t *testing.T) {
	t.Setenv("PX_REFRESH_INTERVAL", "not-a-duration")
	if _, err := Load(""); err == nil {
		t.Error("expected parse error for bad PX_REFRESH_INTERVAL")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "backoff cap below base",
			body: "stream:\n  backoff_base: 10s\n  backoff_cap: 1s\n",
		},
		{
			name: "negative max attempts",
			body: "stream:\n  max_attempts: -1\n",
		},
		{
			name: "min score above one",
			body: "defaults:\n  min_score: 1.5\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeConfig(t, "backend: [not a map")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
