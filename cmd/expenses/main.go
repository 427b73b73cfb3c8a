package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expenses/internal/backend"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	logger.Info("Starting expenses", "port", cfg.Port, "backend", cfg.DataBackend)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	be, err := backend.NewFactory(logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	}()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Store:              be.Store,
		Events:             be.Events,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server shutdown complete")
}
