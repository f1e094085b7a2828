package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/target/elearn-admin/config"
	"github.com/target/elearn-admin/internal/bootstrap"
	"github.com/target/elearn-admin/internal/devbackend"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(config.LogConfig{}, os.Stderr)
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.Log, os.Stderr)

	if !cfg.IsDev {
		logger.WarnContext(ctx, "dev backend started outside development mode; it is not meant to be deployed")
	}

	srv, err := devbackend.New(devbackend.Options{
		Config:       cfg.DevBackend,
		Logger:       logger,
		CookieSecure: !cfg.IsDev,
	})
	if err != nil {
		return fmt.Errorf("build dev backend: %w", err)
	}

	logger.InfoContext(ctx, "starting dev backend",
		"addr", cfg.DevBackend.Addr,
		"admin_email", cfg.DevBackend.AdminEmail,
		"access_token_ttl", cfg.DevBackend.AccessTokenTTL,
		"refresh_token_ttl", cfg.DevBackend.RefreshTokenTTL)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.DevBackend.Addr)
	}()

	return waitForShutdown(ctx, srv, errCh, logger)
}

// waitForShutdown blocks until SIGINT/SIGTERM or a server failure.
func waitForShutdown(ctx context.Context, srv *devbackend.Server, errCh <-chan error, logger *slog.Logger) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		logger.InfoContext(ctx, "shutting down dev backend...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("dev backend stopped: %w", err)
		}
		return errors.New("dev backend stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown dev backend: %w", err)
	}
	return <-errCh
}
