package payment

import (
	"context"
	"fmt"
	"strings"
)

// Internal handler keys.
const (
	KeyPaymentCompleted = "payment_completed"
	KeyPaymentDenied    = "payment_denied"
	KeyPaymentRefunded  = "payment_refunded"
	KeyOrderCompleted   = "order_completed"
	KeyPaymentPending   = "payment_pending"
	KeyPaymentReversed  = "payment_reversed"
)

// PayPal event types the dispatcher understands.
const (
	EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	EventCaptureDenied    = "PAYMENT.CAPTURE.DENIED"
	EventCaptureRefunded  = "PAYMENT.CAPTURE.REFUNDED"
	EventOrderCompleted   = "CHECKOUT.ORDER.COMPLETED"
	EventCapturePending   = "PAYMENT.CAPTURE.PENDING"
	EventCaptureReversed  = "PAYMENT.CAPTURE.REVERSED"
)

// HandlerFunc reconciles one event.
type HandlerFunc func(ctx context.Context, ev Event) error

type route struct {
	key string
	fn  HandlerFunc
}

// Dispatcher maps PayPal event types to reconciliation handlers.
type Dispatcher struct {
	routes map[string]route
}

// NewDispatcher returns a dispatcher wired to the reconciler's handlers.
func NewDispatcher(r *Reconciler) *Dispatcher {
	d := &Dispatcher{routes: map[string]route{}}
	d.Register(EventCaptureCompleted, KeyPaymentCompleted, r.PaymentCompleted)
	d.Register(EventCaptureDenied, KeyPaymentDenied, r.PaymentDenied)
	d.Register(EventCaptureRefunded, KeyPaymentRefunded, r.PaymentRefunded)
	d.Register(EventOrderCompleted, KeyOrderCompleted, r.OrderCompleted)
	d.Register(EventCapturePending, KeyPaymentPending, r.PaymentPending)
	d.Register(EventCaptureReversed, KeyPaymentReversed, r.PaymentReversed)
	return d
}

// Register binds eventType to fn under the given handler key.
func (d *Dispatcher) Register(eventType, key string, fn HandlerFunc) {
	if d.routes == nil {
		d.routes = map[string]route{}
	}
	d.routes[routeKey(eventType)] = route{key: key, fn: fn}
}

// HandlerKey returns the handler key for eventType.
func (d *Dispatcher) HandlerKey(eventType string) (string, bool) {
	rt, ok := d.routes[routeKey(eventType)]
	return rt.key, ok
}

// Dispatch runs the handler for ev. handled is false for event types without
// a handler, which is not an error. A panicking handler is reported as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (handled bool, err error) {
	rt, ok := d.routes[routeKey(ev.Envelope().EventType)]
	if !ok {
		return false, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s handler panic: %v", rt.key, rec)
		}
	}()
	return true, rt.fn(ctx, ev)
}

// routeKey is the lookup form of an event type.
func routeKey(eventType string) string {
	return strings.ToUpper(strings.TrimSpace(eventType))
}
