package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/config"
	"expenses/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Bring the configured SQLite or Postgres database to the latest schema.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			switch cfg.DataBackend {
			case config.BackendSQLite:
				err = storage.MigrateSQLite(cfg.SQLiteDBPath)
			case config.BackendPostgres:
				err = storage.MigratePostgres(cfg.DatabaseURL)
			default:
				return fmt.Errorf("migrate needs a SQL backend, DATA_BACKEND is %q", cfg.DataBackend)
			}
			if err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			logger.Info("Migrations applied", "backend", cfg.DataBackend)
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}
