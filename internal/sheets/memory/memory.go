// Package memory is a SummaryWriter that keeps the last summary in process.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"expenses/internal/report"
	"expenses/internal/sheets"
)

type Writer struct {
	mu     sync.Mutex
	rows   [][]any
	writes int
}

var _ sheets.SummaryWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteSummary(ctx context.Context, s report.Summary) error {
	rows := sheets.Rows(s)
	w.mu.Lock()
	w.rows = rows
	w.writes++
	w.mu.Unlock()

	slog.InfoContext(ctx, "Summary refreshed in memory",
		"rows", len(rows),
		"overall", s.Overall.Total.StringFixed(2))
	return nil
}

// Rows returns the last written table.
func (w *Writer) Rows() [][]any {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([][]any(nil), w.rows...)
}

// Writes returns how many summaries were written.
func (w *Writer) Writes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writes
}
