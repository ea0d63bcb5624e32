package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/lock"
	"github.com/noah-isme/paypal-orders/internal/obs"
)

// Retry errors.
var (
	ErrAlreadyProcessed = errors.New("payment: event already processed")
	ErrRetryInProgress  = errors.New("payment: retry already in progress")
)

// HandlerError wraps a reconciliation failure during a retry.
type HandlerError struct {
	Err error
}

func (e *HandlerError) Error() string { return "retry handler: " + e.Err.Error() }
func (e *HandlerError) Unwrap() error { return e.Err }

// Locker serializes retries of the same event.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Retrier re-dispatches stored events whose handling did not complete.
type Retrier struct {
	Processor *Processor
	Locker    Locker
	LockTTL   time.Duration
}

// Lookup resolves ref as an internal id when numeric, else as a PayPal event id.
func Lookup(ctx context.Context, store Store, ref string) (dbgen.WebhookEvent, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return dbgen.WebhookEvent{}, ErrEventNotFound
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		row, err := store.GetByID(ctx, id)
		if !errors.Is(err, ErrEventNotFound) {
			return row, err
		}
	}
	return store.GetByEventID(ctx, ref)
}

// Retry dispatches the event once more and marks it processed. Events that
// are already processed are refused, as are retries racing another retry.
func (r *Retrier) Retry(ctx context.Context, ref string) (dbgen.WebhookEvent, error) {
	p := r.Processor
	row, err := Lookup(ctx, p.Store, ref)
	if err != nil {
		obs.IncWebhookRetry("not_found")
		return dbgen.WebhookEvent{}, err
	}
	if row.Processed {
		obs.IncWebhookRetry("already_processed")
		return row, ErrAlreadyProcessed
	}

	var updated dbgen.WebhookEvent
	run := func(ctx context.Context) error {
		var err error
		updated, err = r.retryLocked(ctx, row.EventID)
		return err
	}
	if r.Locker == nil {
		err = run(ctx)
	} else {
		err = r.Locker.TryWithLock(ctx, "webhook:retry:"+row.EventID, r.lockTTL(), run)
	}
	switch {
	case errors.Is(err, lock.ErrNotAcquired):
		obs.IncWebhookRetry("in_progress")
		return row, ErrRetryInProgress
	case errors.Is(err, ErrAlreadyProcessed):
		obs.IncWebhookRetry("already_processed")
		return updated, err
	case err != nil:
		obs.IncWebhookRetry("failed")
		return updated, err
	}
	obs.IncWebhookRetry("success")
	return updated, nil
}

func (r *Retrier) retryLocked(ctx context.Context, eventID string) (dbgen.WebhookEvent, error) {
	p := r.Processor
	row, err := p.Store.GetByEventID(ctx, eventID)
	if err != nil {
		return dbgen.WebhookEvent{}, err
	}
	if row.Processed {
		return row, ErrAlreadyProcessed
	}
	env, err := ParseEnvelope([]byte(row.RawData))
	if err != nil {
		return row, fmt.Errorf("replay stored payload: %w", err)
	}
	ev, err := Decode(env)
	if err != nil {
		return row, fmt.Errorf("replay stored payload: %w", err)
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, r.dispatchBudget())
	_, duration, handlerErr := p.dispatch(dispatchCtx, ev)
	cancel()
	if handlerErr != nil {
		failed, err := p.Store.MarkOutcome(context.WithoutCancel(ctx), eventID, Outcome{
			Duration: duration,
			Error:    handlerErr.Error(),
		})
		if err != nil {
			return row, errors.Join(&HandlerError{Err: handlerErr}, err)
		}
		return failed, &HandlerError{Err: handlerErr}
	}
	updated, err := p.Store.MarkOutcome(context.WithoutCancel(ctx), eventID, Outcome{Processed: true, Duration: duration})
	if err != nil {
		return row, err
	}
	p.Logger.Info().
		Str("event_id", eventID).
		Str("event_type", row.EventType).
		Float64("duration_ms", obs.DurationMillis(duration)).
		Msg("webhook event retried")
	return updated, nil
}

func (r *Retrier) lockTTL() time.Duration {
	if r.LockTTL <= 0 {
		return 30 * time.Second
	}
	return r.LockTTL
}

// dispatchBudget ends the handler before the lease lapses, leaving a fifth
// of the lease to record the outcome.
func (r *Retrier) dispatchBudget() time.Duration {
	ttl := r.lockTTL()
	return ttl - ttl/5
}
