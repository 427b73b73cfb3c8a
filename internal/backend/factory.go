// Package backend builds the record store and the optional event publisher
// selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/config"
	"expenses/internal/fixtures"
	"expenses/internal/services"
	"expenses/internal/storage"
	"expenses/internal/storage/memory"
)

// CleanupFunc releases the resources held by a Result.
type CleanupFunc func() error

// Result contains the store, the event publisher and a cleanup function.
// Events is nil when no broker is configured.
type Result struct {
	Store   storage.Store
	Events  services.EventPublisher
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// Create opens the configured store, seeds it when a seed file is set and
// connects the publisher when AMQP is configured. A broker that cannot be
// reached is logged and skipped; writes then proceed without events.
func (f *Factory) Create(ctx context.Context, cfg *config.Config) (*Result, error) {
	store, err := f.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.SeedFile != "" {
		res, err := SeedFromFile(ctx, store, cfg.SeedFile)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		f.logger.Info("Seeded store", "file", cfg.SeedFile, "categories", res.Categories, "expenses", res.Expenses)
	}

	result := &Result{Store: store}
	client := f.connectAMQP(cfg)
	if client != nil {
		result.Events = client
	}

	result.Cleanup = func() error {
		var errs []error
		if client != nil {
			errs = append(errs, client.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}
	return result, nil
}

// OpenStore opens the store named by cfg.DataBackend. SQL stores are
// migrated before use.
func (f *Factory) OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		repo, err := storage.OpenSQLite(ctx, cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return repo, nil
	case config.BackendPostgres:
		repo, err := storage.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return repo, nil
	case config.BackendMemory, "":
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

// connectAMQP returns nil when AMQP is not configured or not reachable.
func (f *Factory) connectAMQP(cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		return nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// SeedFromFile loads a YAML seed file into store.
func SeedFromFile(ctx context.Context, store storage.Store, path string) (fixtures.Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return fixtures.Result{}, fmt.Errorf("open seed file: %w", err)
	}
	defer file.Close()

	f, err := fixtures.Decode(file)
	if err != nil {
		return fixtures.Result{}, err
	}
	res, err := fixtures.Seed(ctx, store, f)
	if err != nil {
		return res, fmt.Errorf("seed %s: %w", path, err)
	}
	return res, nil
}
