package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenses/internal/core"
	"expenses/internal/report"
	"expenses/internal/services"
)

func reportCmd() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the expense summaries for a search",
		Long: `Print the totals per category, per month and overall for the expenses
matching the search flags. With no flags every expense is included.`,
		Example: "  expensesctl report --name nec --sort-by date:desc",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			summary := report.Summarize(rows)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(w, "Expenses\t%d\t\n\n", len(rows))
			fmt.Fprintln(w, "Per category\t\t")
			for _, e := range summary.PerCategory {
				fmt.Fprintf(w, "%s\t%s\t\n", e.Label, core.FormatAmount(e.Total))
			}
			fmt.Fprintln(w, "\t\t\nPer month\t\t")
			for _, m := range summary.PerYearMonth {
				fmt.Fprintf(w, "%s\t%s\t\n", m.Label(), core.FormatAmount(m.Total))
			}
			fmt.Fprintf(w, "\t\t\n%s\t%s\t\n", summary.Overall.Label, core.FormatAmount(summary.Overall.Total))
			return w.Flush()
		},
	}
	flags.register(cmd)
	return cmd
}
