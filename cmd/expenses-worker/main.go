package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/sheets"
	gsheet "expenses/internal/sheets/google"
	mem "expenses/internal/sheets/memory"
	"expenses/internal/worker"
)

func main() {
	cfg := cli.MustLoadConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting expenses-worker", "backend", cfg.DataBackend, "refresh_interval", cfg.RefreshInterval)

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	if !cfg.SQLBackend() {
		logger.Warn("Worker reads its own memory store; summaries will not reflect the web server's data",
			"backend", cfg.DataBackend)
	}

	store, err := backend.NewFactory(logger).OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	writer, err := summaryWriter(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	summaries := worker.NewSummaryWorker(store, writer)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return summaries.RunPeriodic(gctx, cfg.RefreshInterval)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.Consume(gctx, summaries.HandleEvent)
		})
		logger.Info("Consuming ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - summaries refresh on the timer only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

// summaryWriter returns the Google Sheets writer when a spreadsheet is
// configured and an in-memory writer otherwise.
func summaryWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (sheets.SummaryWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided, keeping summaries in memory")
		return mem.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
