package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/noah-isme/paypal-orders/internal/order"
)

// OrderUpdater applies a PayPal-reported status to the order with the given
// external id. It returns order.ErrNotFound when no order matches.
type OrderUpdater interface {
	ApplyExternalStatus(ctx context.Context, externalID, status, webhookEventID string) (order.Order, error)
}

// Reconciler holds the per-event-type reconciliation handlers.
type Reconciler struct {
	Orders OrderUpdater
	Logger zerolog.Logger
}

// PaymentCompleted marks the captured order completed.
func (r *Reconciler) PaymentCompleted(ctx context.Context, ev Event) error {
	return r.apply(ctx, ev, order.StatusCompleted)
}

// PaymentDenied marks the order denied.
func (r *Reconciler) PaymentDenied(ctx context.Context, ev Event) error {
	return r.apply(ctx, ev, order.StatusDenied)
}

// PaymentRefunded marks the order refunded.
func (r *Reconciler) PaymentRefunded(ctx context.Context, ev Event) error {
	return r.apply(ctx, ev, order.StatusRefunded)
}

// OrderCompleted is informational; the capture event carries the state change.
func (r *Reconciler) OrderCompleted(_ context.Context, ev Event) error {
	env := ev.Envelope()
	logger := r.Logger.Info().Str("event_id", env.ID)
	if oe, ok := ev.(CheckoutOrderEvent); ok {
		logger = logger.Str("resource_id", oe.Order.ID).Str("resource_status", oe.Order.Status)
	}
	logger.Msg("checkout order completed")
	return nil
}

// PaymentPending logs a pending capture without touching the order.
func (r *Reconciler) PaymentPending(_ context.Context, ev Event) error {
	r.logCapture(ev, "payment pending")
	return nil
}

// PaymentReversed logs a reversal without touching the order.
func (r *Reconciler) PaymentReversed(_ context.Context, ev Event) error {
	r.logCapture(ev, "payment reversed")
	return nil
}

func (r *Reconciler) logCapture(ev Event, msg string) {
	logger := r.Logger.Info().Str("event_id", ev.Envelope().ID)
	if ce, ok := ev.(CaptureEvent); ok {
		logger = logger.Str("resource_id", ce.Capture.ID).Str("resource_status", ce.Capture.Status)
	}
	logger.Msg(msg)
}

// apply looks the order up by resource id, then by the related checkout
// order id. A missing order is logged and skipped.
func (r *Reconciler) apply(ctx context.Context, ev Event, status string) error {
	ce, ok := ev.(CaptureEvent)
	if !ok {
		return fmt.Errorf("reconcile %s: unexpected resource %T", ev.Envelope().EventType, ev)
	}
	if r.Orders == nil {
		return errors.New("reconcile: order updater not configured")
	}
	eventID := ce.Env.ID
	candidates := []string{ce.Capture.ID}
	if related := ce.Capture.RelatedOrderID(); related != "" && related != ce.Capture.ID {
		candidates = append(candidates, related)
	}
	for _, externalID := range candidates {
		if externalID == "" {
			continue
		}
		updated, err := r.Orders.ApplyExternalStatus(ctx, externalID, status, eventID)
		if errors.Is(err, order.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update order %s: %w", externalID, err)
		}
		r.Logger.Info().
			Str("event_id", eventID).
			Int64("order_id", updated.ID).
			Str("paypal_order_id", externalID).
			Str("status", status).
			Msg("order reconciled")
		return nil
	}
	r.Logger.Info().
		Str("event_id", eventID).
		Str("resource_id", ce.Capture.ID).
		Str("related_order_id", ce.Capture.RelatedOrderID()).
		Msg("no order for resource, skipping")
	return nil
}
