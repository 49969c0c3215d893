package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the rewrite pipeline over HTTP",
	Long: `Serve exposes POST /rewrite: the host sends {"document": "..."} and gets
back the rewritten text plus a report. Each request runs under a fresh budget
from the configuration.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "listen address (default from config, :8086)")
	serveCmd.Flags().StringVar(&flagWorkspace, "workspace", "", "directory image references resolve against")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(flagConfig)
	if err != nil {
		return err
	}
	if flagListen != "" {
		cfg.Listen = flagListen
	}
	if flagWorkspace != "" {
		cfg.Workspace = flagWorkspace
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipe, deps, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	// Long-running process: keep the workspace index fresh.
	watchWorkspace(ctx, deps)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           pipe.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("redraft serving", "addr", cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
