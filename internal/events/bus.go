package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

// HistoryStore persists order status transitions.
type HistoryStore interface {
	InsertOrderStatusEvent(ctx context.Context, arg dbgen.InsertOrderStatusEventParams) (dbgen.OrderStatusEvent, error)
}

// Notifier reacts to recorded transitions (metrics, logs).
type Notifier interface {
	Notify(ctx context.Context, topic string, event dbgen.OrderStatusEvent) error
}

// StatusChange describes one write to an order's payment status.
type StatusChange struct {
	OrderID        int64
	Previous       string
	Next           string
	Source         string
	WebhookEventID string
}

// Bus records status transitions and fans them out to notifiers.
type Bus struct {
	Store     HistoryStore
	Notifiers []Notifier
}

// Record persists change through store, falling back to the bus store when
// store is nil. Callers pass a transaction-scoped store so the history row
// commits together with the status update.
func (b *Bus) Record(ctx context.Context, store HistoryStore, change StatusChange) (dbgen.OrderStatusEvent, error) {
	if store == nil && b != nil {
		store = b.Store
	}
	if store == nil {
		return dbgen.OrderStatusEvent{}, errors.New("events: store not configured")
	}
	if change.OrderID <= 0 {
		return dbgen.OrderStatusEvent{}, errors.New("events: order id is required")
	}
	next := strings.TrimSpace(change.Next)
	if next == "" {
		return dbgen.OrderStatusEvent{}, errors.New("events: new status is required")
	}
	source := strings.TrimSpace(change.Source)
	if source == "" {
		source = SourceSystem
	}
	row, err := store.InsertOrderStatusEvent(ctx, dbgen.InsertOrderStatusEventParams{
		OrderID:        change.OrderID,
		PreviousStatus: change.Previous,
		NewStatus:      next,
		Source:         source,
		WebhookEventID: optionalText(change.WebhookEventID),
	})
	if err != nil {
		return dbgen.OrderStatusEvent{}, fmt.Errorf("events: persist transition: %w", err)
	}
	return row, nil
}

// Publish dispatches a recorded transition to all notifiers. Every notifier
// runs even when an earlier one fails.
func (b *Bus) Publish(ctx context.Context, event dbgen.OrderStatusEvent) error {
	if b == nil {
		return nil
	}
	topic := TopicForStatus(event.NewStatus)
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, topic, event); err != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", err))
		}
	}
	return joined
}

// Emit records the change with the bus store and publishes it.
func (b *Bus) Emit(ctx context.Context, change StatusChange) (dbgen.OrderStatusEvent, error) {
	event, err := b.Record(ctx, nil, change)
	if err != nil {
		return dbgen.OrderStatusEvent{}, err
	}
	return event, b.Publish(ctx, event)
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
