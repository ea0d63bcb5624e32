package events

import (
	"context"

	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/obs"
)

// MetricsNotifier counts transitions per source and status.
type MetricsNotifier struct{}

// Notify implements Notifier.
func (MetricsNotifier) Notify(_ context.Context, _ string, event dbgen.OrderStatusEvent) error {
	obs.IncOrderStatusTransition(event.Source, event.NewStatus)
	return nil
}

// LogNotifier writes one log line per transition.
type LogNotifier struct {
	Logger zerolog.Logger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, topic string, event dbgen.OrderStatusEvent) error {
	entry := n.Logger.Info().
		Str("topic", topic).
		Int64("order_id", event.OrderID).
		Str("previous_status", event.PreviousStatus).
		Str("new_status", event.NewStatus).
		Str("source", event.Source)
	if event.WebhookEventID.Valid {
		entry = entry.Str("event_id", event.WebhookEventID.String)
	}
	entry.Msg("order_status_changed")
	return nil
}
