// Package worker keeps the mirrored spreadsheet summary in step with the store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/query"
	"expenses/internal/report"
	"expenses/internal/sheets"
	"expenses/internal/storage"
)

// SummaryWorker recomputes summaries over all expenses and hands them to a
// SummaryWriter, on ledger events and on a timer.
type SummaryWorker struct {
	store  storage.ExpenseStore
	writer sheets.SummaryWriter
}

func NewSummaryWorker(store storage.ExpenseStore, writer sheets.SummaryWriter) *SummaryWorker {
	return &SummaryWorker{store: store, writer: writer}
}

// Refresh writes the current summary.
func (w *SummaryWorker) Refresh(ctx context.Context) error {
	rows, err := w.store.FindExpenses(ctx, query.AllExpenses().Unordered())
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}
	summary := report.Summarize(rows)
	if err := w.writer.WriteSummary(ctx, summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	slog.DebugContext(ctx, "Summary refreshed", "expenses", len(rows))
	return nil
}

// HandleEvent refreshes the summary after any ledger change. A returned
// error makes the consumer requeue the event.
func (w *SummaryWorker) HandleEvent(ctx context.Context, event amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", event.Kind,
		"id", event.ID,
		"cascaded_expenses", event.CascadedExpenses)
	return w.Refresh(ctx)
}

// RunPeriodic refreshes immediately and then every interval until ctx is
// done. Failed refreshes are logged and retried on the next tick.
func (w *SummaryWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if err := w.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup summary refresh failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Refresh(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic summary refresh failed", "error", err)
			}
		}
	}
}
