// Package export writes expense views as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"expenses/internal/core"
)

// Row is the CSV shape of one expense.
type Row struct {
	ID       int64  `csv:"id"`
	Date     string `csv:"date"`
	Name     string `csv:"name"`
	Amount   string `csv:"amount"`
	Category string `csv:"category"`
}

// RowFromExpense renders an expense for export. Expenses without a category
// export an empty category column.
func RowFromExpense(e core.Expense) Row {
	return Row{
		ID:       e.ID,
		Date:     e.Date.String(),
		Name:     e.Name,
		Amount:   core.FormatAmount(e.Amount),
		Category: e.CategoryName,
	}
}

// WriteCSV writes a header and one row per expense, in the given order.
func WriteCSV(w io.Writer, expenses []core.Expense) error {
	rows := make([]Row, len(expenses))
	for i, e := range expenses {
		rows[i] = RowFromExpense(e)
	}

	writer := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(writer)); err != nil {
		return fmt.Errorf("write expenses csv: %w", err)
	}
	return nil
}
