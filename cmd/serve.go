package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jcmxo/98-pfm-traza-2025/internal/api"
	"github.com/jcmxo/98-pfm-traza-2025/internal/config"
	"github.com/jcmxo/98-pfm-traza-2025/internal/engine"
	"github.com/jcmxo/98-pfm-traza-2025/internal/log"
	"github.com/jcmxo/98-pfm-traza-2025/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP API",
	Long: `Run the ledger as a long-lived server that exposes participants,
tokens, transfers and traceability over a REST API, plus a server-sent
events stream of ledger notifications at /events.

Callers identify themselves with the ` + api.CallerHeader + ` header.

Example:
  traza serve                      # Listen on the configured address
  traza serve --addr :8080         # Listen on port 8080
  traza serve --memory             # Volatile in-memory ledger`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	if serveAddr != "" {
		cfg.Listen = serveAddr
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}

	tracingCfg := cfg.Tracing
	if tracingCfg.Enabled && tracingCfg.Exporter == "file" && tracingCfg.FilePath == "" {
		tracingCfg.FilePath = config.DefaultTracesFilePath()
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("initializing tracing: %w", err)
	}

	eng := engine.New(store, engine.Options{
		Tracer:            provider.Tracer(),
		TraceCacheTTL:     cfg.Cache.TraceTTL,
		DisableTraceCache: cfg.Cache.Disabled,
	})

	server, err := api.NewServer(api.ServerConfig{
		Addr:   cfg.Listen,
		Engine: eng,
	})
	if err != nil {
		_ = eng.Close()
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("Traza serving on port %d\n", server.Port())
	fmt.Println("Press Ctrl+C to stop")

	select {
	case sig := <-sigCh:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil {
			_ = eng.Close()
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.ErrorErr(log.CatAPI, "Error stopping API server", err)
	}
	if err := eng.Close(); err != nil {
		log.ErrorErr(log.CatLedger, "Error closing ledger", err)
	}
	if err := provider.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatTrace, "Error shutting down tracing", err)
	}

	fmt.Println("Server stopped")
	return nil
}
