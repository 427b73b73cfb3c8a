// Package sheets mirrors expense summaries into a spreadsheet tab.
package sheets

import (
	"context"

	"expenses/internal/core"
	"expenses/internal/report"
)

// SummaryWriter replaces the mirrored summary with s.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, s report.Summary) error
}

// Header is the first row of the summary table.
var Header = []any{"section", "label", "total"}

// Section names of the summary table.
const (
	SectionOverall  = "overall"
	SectionCategory = "category"
	SectionMonth    = "month"
)

// Rows lays s out as a table: the header, the overall total, then one row
// per category and per month. Totals are decimal strings.
func Rows(s report.Summary) [][]any {
	rows := make([][]any, 0, 2+len(s.PerCategory)+len(s.PerYearMonth))
	rows = append(rows, Header)
	rows = append(rows, []any{SectionOverall, s.Overall.Label, core.FormatAmount(s.Overall.Total)})
	for _, e := range s.PerCategory {
		rows = append(rows, []any{SectionCategory, e.Label, core.FormatAmount(e.Total)})
	}
	for _, m := range s.PerYearMonth {
		rows = append(rows, []any{SectionMonth, m.Label(), core.FormatAmount(m.Total)})
	}
	return rows
}
