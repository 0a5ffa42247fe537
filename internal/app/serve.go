package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pagebuilder/internal/config"
)

const shutdownTimeout = 15 * time.Second

// ServeMCP runs the page builder as an MCP server on stdin/stdout.
// It initializes storage, services, and runs the MCP server until interrupted.
// Logs go to stderr since stdout carries the protocol.
func ServeMCP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		// ctx is already cancelled here; flushing sessions needs its own deadline
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		a.Shutdown(sctx)
		logger.Info("[App] stopped")
	}()

	if err := a.Startup(ctx); err != nil {
		return err
	}
	logger.Info("[App] ready", "driver", cfg.DBDriver, "dataDir", cfg.DataDir, "templates", cfg.TemplatesDir)

	errCh := make(chan error, 1)
	go func() { errCh <- a.mcp.ServeStdio() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
