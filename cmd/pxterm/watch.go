package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aminchedo/Project-X-sub005/internal/config"
	"github.com/aminchedo/Project-X-sub005/pkg/backend"
	"github.com/aminchedo/Project-X-sub005/pkg/metrics"
	"github.com/aminchedo/Project-X-sub005/pkg/state"
	"github.com/aminchedo/Project-X-sub005/pkg/stream"
	"github.com/aminchedo/Project-X-sub005/pkg/terminal"
)

func watchCmd() *cobra.Command {
	var (
		configPath string
		symbol     string
		timeframe  string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the terminal state core and log every snapshot change",
		Long: `Connect the full stack: websocket stream, REST poller, central
store, and metrics monitor. Snapshot changes are logged (throttled)
until interrupted.

Examples:
  pxterm watch
  pxterm watch --config pxterm.yaml --symbol ETHUSDT`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if symbol != "" {
				cfg.Defaults.Symbol = symbol
			}
			if timeframe != "" {
				cfg.Defaults.Timeframe = timeframe
			}
			return runWatch(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Override the default symbol")
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "Override the default timeframe")

	return cmd
}

func runWatch(cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	monOpts := []metrics.Option{
		metrics.WithInterval(cfg.Metrics.FlushInterval.Std()),
		metrics.WithMaxBuffered(cfg.Metrics.MaxBuffered),
		metrics.WithLabels(map[string]string{"app": "pxterm"}),
		metrics.WithLogger(logger),
	}
	if cfg.Metrics.CollectorURL != "" {
		monOpts = append(monOpts, metrics.WithCollector(cfg.Metrics.CollectorURL, nil))
	}
	mon := metrics.New(monOpts...)
	defer mon.Stop()

	store := terminal.NewStore(
		terminal.WithDefaults(terminal.TradingContext{
			Symbol:      cfg.Defaults.Symbol,
			Timeframe:   cfg.Defaults.Timeframe,
			Leverage:    cfg.Defaults.Leverage,
			RiskProfile: cfg.Defaults.RiskProfile,
		}),
		terminal.WithMinScore(cfg.Defaults.MinScore),
		terminal.WithLogger(logger),
	)

	conn := stream.New(
		stream.WebSocket(cfg.Stream.URL),
		stream.WithBackoff(cfg.Stream.BackoffBase.Std(), cfg.Stream.BackoffCap.Std()),
		stream.WithMaxAttempts(cfg.Stream.MaxAttempts),
		stream.WithLogger(logger),
	)
	unbind := store.Bind(conn)
	defer unbind()

	cancelErrs := conn.OnError(func(err error) {
		logger.Warn("stream error", "error", err)
	})
	defer cancelErrs()

	// Snapshot changes arrive in bursts; throttle the log line so a flood
	// of ticks prints at most twice a second.
	printer := state.NewThrottler(500*time.Millisecond, func(snap terminal.State) {
		logger.Info("snapshot",
			"symbol", snap.Context.Symbol,
			"timeframe", snap.Context.Timeframe,
			"connection", snap.Connection.String(),
			"watchlist", len(snap.Watchlist),
			"scan_results", len(snap.ScanResults),
			"last_error", snap.LastError,
		)
	})
	defer printer.Stop()

	unsubscribe := store.Subscribe(func() {
		printer.Call(store.State())
	})
	defer unsubscribe()

	conn.Connect()
	defer conn.Disconnect()

	client := backend.NewClient(cfg.Backend.BaseURL, backend.WithTimeout(cfg.Backend.Timeout.Std()))
	refresher := backend.NewRefresher(client, store,
		backend.WithRefreshInterval(cfg.Backend.RefreshInterval.Std()),
		backend.WithRefreshLogger(logger),
		backend.WithMonitor(mon),
	)
	defer refresher.Stop()

	logger.Info("terminal state core running",
		"backend", cfg.Backend.BaseURL,
		"stream", cfg.Stream.URL,
		"symbol", cfg.Defaults.Symbol,
	)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down")
	return nil
}
