package payment

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/paypal-orders/internal/obs"
)

// Result outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
	OutcomeUnhandled = "unhandled"
	OutcomeRejected  = "rejected"
	OutcomeMalformed = "malformed"
)

// Result describes how one delivery ended.
type Result struct {
	Outcome   string
	EventID   string
	EventType string
	Duration  time.Duration
	// Recorded is true once the event row exists, whatever the outcome.
	Recorded bool
	Err      error
}

// HTTPStatus maps the outcome to the response status PayPal sees.
func (r Result) HTTPStatus() int {
	switch r.Outcome {
	case OutcomeRejected:
		return http.StatusUnauthorized
	case OutcomeMalformed:
		return http.StatusBadRequest
	case OutcomeFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

// Processor drives verify, record, dispatch and outcome bookkeeping for each
// delivery, synchronously within the request.
type Processor struct {
	Verifier   Verifier
	Mode       string
	Store      Store
	Dispatcher *Dispatcher
	Logger     zerolog.Logger

	now func() time.Time
}

// NewProcessor assembles a processor. mode labels verification metrics.
func NewProcessor(v Verifier, mode string, store Store, d *Dispatcher, logger zerolog.Logger) *Processor {
	return &Processor{Verifier: v, Mode: mode, Store: store, Dispatcher: d, Logger: logger, now: time.Now}
}

// Process handles one raw delivery.
func (p *Processor) Process(ctx context.Context, body []byte, headers http.Header) Result {
	ctx, span := otel.Tracer("payment.Processor").Start(ctx, "Processor.Process")
	defer span.End()

	res := p.process(ctx, body, headers)

	span.SetAttributes(
		attribute.String("webhook.event_id", res.EventID),
		attribute.String("webhook.event_type", res.EventType),
		attribute.String("webhook.outcome", res.Outcome),
	)
	if res.Err != nil && res.Outcome == OutcomeFailed {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	}
	obs.IncWebhookEvent(res.EventType, res.Outcome)
	p.log(res)
	return res
}

func (p *Processor) process(ctx context.Context, body []byte, headers http.Header) Result {
	if p.Verifier == nil {
		return Result{Outcome: OutcomeRejected, Err: errors.New("payment: verifier not configured")}
	}
	if err := p.Verifier.Verify(ctx, body, headers); err != nil {
		obs.IncWebhookVerification(obs.LabelOrUnknown(p.Mode), "rejected")
		return Result{Outcome: OutcomeRejected, Err: err}
	}
	obs.IncWebhookVerification(obs.LabelOrUnknown(p.Mode), "accepted")

	env, err := ParseEnvelope(body)
	if err != nil {
		return Result{Outcome: OutcomeMalformed, Err: err}
	}
	res := Result{EventID: env.ID, EventType: env.EventType}
	ev, err := Decode(env)
	if err != nil {
		res.Outcome, res.Err = OutcomeMalformed, err
		return res
	}

	_, created, err := p.Store.RecordIfNew(ctx, NewEvent{
		Envelope: env,
		Snapshot: TakeSnapshot(env),
		RawData:  string(body),
	})
	if err != nil {
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}
	if !created {
		res.Outcome, res.Recorded = OutcomeDuplicate, true
		return res
	}
	res.Recorded = true

	handled, duration, handlerErr := p.dispatch(ctx, ev)
	res.Duration = duration
	out := Outcome{Processed: handlerErr == nil, Duration: duration}
	switch {
	case handlerErr != nil:
		res.Outcome, res.Err = OutcomeFailed, handlerErr
		out.Error = handlerErr.Error()
	case !handled:
		res.Outcome = OutcomeUnhandled
	default:
		res.Outcome = OutcomeSuccess
	}

	// The receipt is committed; the outcome must be written even if the
	// caller has gone away.
	if _, err := p.Store.MarkOutcome(context.WithoutCancel(ctx), env.ID, out); err != nil {
		p.Logger.Error().Err(err).Str("event_id", env.ID).Msg("record webhook outcome")
		if res.Err == nil {
			res.Outcome, res.Err = OutcomeFailed, err
		}
	}
	return res
}

// dispatch runs the handler and measures wall-clock time.
func (p *Processor) dispatch(ctx context.Context, ev Event) (bool, time.Duration, error) {
	ctx, span := otel.Tracer("payment.Processor").Start(ctx, "Processor.dispatch")
	defer span.End()
	eventType := ev.Envelope().EventType
	span.SetAttributes(attribute.String("webhook.event_type", eventType))

	if p.Dispatcher == nil {
		return false, 0, errors.New("payment: dispatcher not configured")
	}
	start := p.clock()
	handled, err := p.Dispatcher.Dispatch(ctx, ev)
	duration := p.clock().Sub(start)
	if handled {
		obs.ObserveWebhookProcessing(eventType, duration.Seconds())
	}
	if err != nil {
		span.RecordError(err)
	}
	return handled, duration, err
}

func (p *Processor) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *Processor) log(res Result) {
	var evt *zerolog.Event
	switch res.Outcome {
	case OutcomeFailed:
		evt = p.Logger.Error().Err(res.Err)
	case OutcomeRejected, OutcomeMalformed:
		evt = p.Logger.Warn().Err(res.Err)
	default:
		evt = p.Logger.Info()
	}
	evt.Str("event_id", res.EventID).
		Str("event_type", res.EventType).
		Str("outcome", res.Outcome).
		Float64("duration_ms", obs.DurationMillis(res.Duration)).
		Msg("webhook_event")
}
