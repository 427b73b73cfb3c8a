package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"expenses/internal/export"
	"expenses/internal/services"
)

func exportCmd() *cobra.Command {
	var (
		flags searchFlags
		out   string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the expenses matching a search as CSV",
		Long: `Write every expense matching the search flags, in listing order, as CSV.
Without --out the CSV goes to standard output.`,
		Example: "  expensesctl export --out expenses.csv --sort-by date:asc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()
			store, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(store)

			expenses := services.NewExpenseService(store, nil)
			search, verr, err := expenses.Search(ctx, flags.values())
			if err != nil {
				return err
			}
			if verr != nil {
				return fmt.Errorf("invalid search: %w", verr)
			}
			rows, err := expenses.Find(ctx, search)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer func() { err = errors.Join(err, file.Close()) }()
				w = file
			}
			if err := export.WriteCSV(w, rows); err != nil {
				return err
			}
			logger.Info("Expenses exported", "rows", len(rows), "file", out)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}
