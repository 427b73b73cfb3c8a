package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"expenses/internal/backend"
)

func seedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories and expenses from a YAML file",
		Long: `Create the categories and expenses listed in a YAML fixtures file.
Expenses reference categories by name and are validated like form
submissions; the first invalid row stops the seed.`,
		Example: "  expensesctl seed --file fixtures.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.SQLBackend() {
				logger.Warn("Seeding the memory backend only lasts for this command", "backend", cfg.DataBackend)
			}
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			res, err := backend.SeedFromFile(cmd.Context(), store, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d categories and %d expenses\n", res.Categories, res.Expenses)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML fixtures file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
