package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/storage"
)

var (
	cfg     *config.Config
	logger  *slog.Logger
	rootCmd = &cobra.Command{
		Use:   "expensesctl",
		Short: "Administer the expenses store",
		Long: `expensesctl migrates, seeds, reports on and exports the expenses store
selected by the same environment as the web server (DATA_BACKEND,
SQLITE_DB_PATH, DATABASE_URL, ...).`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(exportCmd())
}

func main() {
	ctx, stop := cli.SignalContext(context.Background(), slog.Default())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	loaded, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	cfg = loaded
	logger = cli.SetupLogger(cfg, log.ComponentCLI)
	return nil
}

// openStore opens the configured store; callers close it.
func openStore(ctx context.Context) (storage.Store, error) {
	store, err := backend.NewFactory(logger).OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return store, nil
}

func closeStore(store storage.Store) {
	if err := store.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}
