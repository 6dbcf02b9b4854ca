package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Optional .env for local development; PX_* variables override the
	// config file.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "pxterm",
		Short: "Project X trading terminal state core",
		Long: `pxterm runs the Project X terminal state core from a shell.

It maintains the same snapshot the dashboard UI observes: trading
context, scanner filters, watchlist, live market data over websocket,
and polled backend snapshots, with a performance monitor pushing
timing samples to a collector.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		watchCmd(),
		collectorCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
