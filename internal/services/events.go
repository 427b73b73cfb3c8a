package services

import (
	"context"
	"log/slog"

	"expenses/internal/amqp"
)

// EventPublisher announces committed ledger changes. *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event amqp.LedgerEvent) error
}

// publish sends event when a publisher is configured. Failures are logged and
// never undo the committed change.
func publish(ctx context.Context, events EventPublisher, event amqp.LedgerEvent) {
	if events == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping ledger event", "kind", event.Kind, "id", event.ID)
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", event.Kind,
			"id", event.ID,
			"error", err)
	}
}
