// =============================================================================
// SERVE COMMAND - RUN THE STORE AS A LONG-LIVED PROCESS
// =============================================================================
//
// WHAT IS THIS?
// Command that runs the offset store as a long-lived process with its
// HTTP debug and metrics surface. The store replays the offsets topic on
// startup and keeps its cache current until shutdown.
//
// USAGE:
//   offsetstore serve [flags]
//
// FLAGS:
//   --http   Listen address for the debug/metrics server
//
// ENDPOINTS (on --http):
//   GET /health    Lifecycle-aware health check
//   GET /stats     Store statistics
//   GET /offsets   Full cache dump
//   GET /metrics   Prometheus metrics
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"offsetstore/internal/api"
	"offsetstore/internal/metrics"
	"offsetstore/internal/store"
)

var serveHTTPAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the store with its debug/metrics HTTP server",
	Long: `Run the offset store as a long-lived process.

The store replays the offsets topic on startup, then serves reads and
the HTTP debug surface until SIGINT or SIGTERM.

Examples:
  offsetstore serve -b broker:9092 --http :8080
  OFFSETSTORE_BOOTSTRAP_SERVERS=broker:9092 offsetstore serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTPAddr, "http", "", "Listen address for the debug/metrics server")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("http") {
		cfg.HTTPAddr = serveHTTPAddr
	}

	registry := metrics.NewRegistry(logger)

	startCtx, cancel := getContext()
	defer cancel()
	st, stop, err := openStore(startCtx, store.Options{
		Logger:  logger,
		Metrics: registry.Store,
	})
	if err != nil {
		return err
	}
	defer stop()

	serverCfg := api.DefaultServerConfig()
	serverCfg.Addr = cfg.HTTPAddr
	server := api.NewServer(st, registry, serverCfg, logger)
	if err := server.Start(); err != nil {
		return err
	}

	logger.Info("offset store serving",
		"topic", cfg.Topic,
		"http_addr", cfg.HTTPAddr,
		"cached_keys", st.CachedKeys())

	// Block until shutdown is requested.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig
	logger.Info("shutting down", "signal", received.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("debug server shutdown failed", "error", err)
	}
	return nil
}
