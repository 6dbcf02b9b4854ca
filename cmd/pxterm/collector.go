package main

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

func collectorCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "collector",
		Short: "Run a local metrics collector for development",
		Long: `Serve a collector endpoint that accepts the monitor's batched
sample lines on POST /metrics and logs them, so the full flush path
can be exercised without real infrastructure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollector(addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":9109", "Listen address")

	return cmd
}

func runCollector(addr string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/metrics", func(w http.ResponseWriter, req *http.Request) {
		scanner := bufio.NewScanner(req.Body)
		var n int
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			n++
			logger.Info("sample", "line", line)
		}
		if err := scanner.Err(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Info("batch accepted", "samples", n)
		w.WriteHeader(http.StatusNoContent)
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("collector listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-sig:
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
