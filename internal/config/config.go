package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultBackendURL is the REST backend the terminal polls.
	DefaultBackendURL = "http://localhost:8000"

	// DefaultStreamURL is the websocket endpoint for live updates.
	DefaultStreamURL = "ws://localhost:8000/ws"

	// DefaultSymbol is the trading pair shown on first load.
	DefaultSymbol = "BTCUSDT"

	// DefaultTimeframe is the chart timeframe shown on first load.
	DefaultTimeframe = "1h"
)

// Duration is a time.Duration that unmarshals from YAML strings like "10s"
// or plain integers meaning nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(s)
		if perr != nil {
			return fmt.Errorf("parse duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the complete terminal configuration.
type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Stream   StreamConfig   `yaml:"stream"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// BackendConfig points at the REST backend.
type BackendConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`

	// RefreshInterval is how often the poller re-fetches every snapshot.
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// StreamConfig configures the websocket connection and its retry policy.
type StreamConfig struct {
	URL         string   `yaml:"url"`
	BackoffBase Duration `yaml:"backoff_base"`
	BackoffCap  Duration `yaml:"backoff_cap"`

	// MaxAttempts bounds consecutive failed dials before the connection
	// gives up. Zero means retry forever.
	MaxAttempts int `yaml:"max_attempts"`
}

// MetricsConfig configures the performance monitor.
type MetricsConfig struct {
	// CollectorURL receives flushed sample batches. Empty disables pushing;
	// samples still buffer for in-process inspection.
	CollectorURL  string   `yaml:"collector_url"`
	FlushInterval Duration `yaml:"flush_interval"`
	MaxBuffered   int      `yaml:"max_buffered"`
}

// DefaultsConfig seeds the trading context at startup.
type DefaultsConfig struct {
	Symbol      string  `yaml:"symbol"`
	Timeframe   string  `yaml:"timeframe"`
	Leverage    int     `yaml:"leverage"`
	RiskProfile string  `yaml:"risk_profile"`
	MinScore    float64 `yaml:"min_score"`
}

// Load reads the YAML file at path, applies defaults for omitted fields and
// environment overrides on top, then validates. An empty path skips the
// file and yields defaults plus environment.
func Load(path string) (*Config, error) {
	c := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	c.applyDefaults()
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBackendURL
	}
	if c.Backend.Timeout <= 0 {
		c.Backend.Timeout = Duration(10 * time.Second)
	}
	if c.Backend.RefreshInterval <= 0 {
		c.Backend.RefreshInterval = Duration(5 * time.Second)
	}
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.BackoffBase <= 0 {
		c.Stream.BackoffBase = Duration(time.Second)
	}
	if c.Stream.BackoffCap <= 0 {
		c.Stream.BackoffCap = Duration(30 * time.Second)
	}
	if c.Metrics.FlushInterval <= 0 {
		c.Metrics.FlushInterval = Duration(10 * time.Second)
	}
	if c.Metrics.MaxBuffered <= 0 {
		c.Metrics.MaxBuffered = 10000
	}
	if c.Defaults.Symbol == "" {
		c.Defaults.Symbol = DefaultSymbol
	}
	if c.Defaults.Timeframe == "" {
		c.Defaults.Timeframe = DefaultTimeframe
	}
	if c.Defaults.Leverage <= 0 {
		c.Defaults.Leverage = 10
	}
	if c.Defaults.RiskProfile == "" {
		c.Defaults.RiskProfile = "balanced"
	}
	if c.Defaults.MinScore <= 0 {
		c.Defaults.MinScore = 0.7
	}
}

// applyEnv overrides fields from PX_-prefixed environment variables so
// deployments can tune a checked-in config file.
func (c *Config) applyEnv() error {
	if v := os.Getenv("PX_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("PX_STREAM_URL"); v != "" {
		c.Stream.URL = v
	}
	if v := os.Getenv("PX_COLLECTOR_URL"); v != "" {
		c.Metrics.CollectorURL = v
	}
	if v := os.Getenv("PX_SYMBOL"); v != "" {
		c.Defaults.Symbol = v
	}
	if v := os.Getenv("PX_TIMEFRAME"); v != "" {
		c.Defaults.Timeframe = v
	}
	if v := os.Getenv("PX_REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse PX_REFRESH_INTERVAL: %w", err)
		}
		c.Backend.RefreshInterval = Duration(d)
	}
	if v := os.Getenv("PX_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse PX_MAX_ATTEMPTS: %w", err)
		}
		c.Stream.MaxAttempts = n
	}
	return nil
}

// Validate rejects configurations the terminal cannot run with.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required")
	}
	if c.Stream.URL == "" {
		return fmt.Errorf("stream.url is required")
	}
	if c.Stream.BackoffCap < c.Stream.BackoffBase {
		return fmt.Errorf("stream.backoff_cap %v is below backoff_base %v", c.Stream.BackoffCap, c.Stream.BackoffBase)
	}
	if c.Stream.MaxAttempts < 0 {
		return fmt.Errorf("stream.max_attempts must not be negative")
	}
	if c.Defaults.MinScore > 1 {
		return fmt.Errorf("defaults.min_score %v is above 1", c.Defaults.MinScore)
	}
	return nil
}
