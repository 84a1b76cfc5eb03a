// Package services holds the donortrack use cases: the progress ledger,
// receipt generation, report views and reference-checked CRUD.
package services

import (
	"context"
	"log/slog"

	"donortrack/internal/amqp"
)

// Publisher delivers events after a successful commit. A nil Publisher
// disables events.
type Publisher interface {
	PublishEvent(ctx context.Context, e *amqp.Event) error
}

func publish(ctx context.Context, p Publisher, e *amqp.Event) {
	if p == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping event", "type", e.Type)
		return
	}
	// Don't fail the request - the change is already committed
	if err := p.PublishEvent(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", e.Type,
			"event_id", e.ID,
			"error", err)
	}
}
