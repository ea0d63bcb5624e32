package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/paypal-orders/internal/db"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

// ErrEventNotFound is returned when no stored event matches.
var ErrEventNotFound = errors.New("payment: webhook event not found")

// NewEvent is the row written on first receipt.
type NewEvent struct {
	Envelope Envelope
	Snapshot Snapshot
	RawData  string
}

// Outcome is the processing result written after dispatch.
type Outcome struct {
	Processed bool
	Duration  time.Duration
	Error     string
}

// ListFilter narrows event listings. A nil Processed matches both states.
type ListFilter struct {
	EventType string
	Processed *bool
	Limit     int
	Offset    int
}

// Stats aggregates stored events.
type Stats struct {
	TotalEvents       int64            `json:"total_events"`
	ProcessedEvents   int64            `json:"processed_events"`
	UnprocessedEvents int64            `json:"unprocessed_events"`
	EventsByType      map[string]int64 `json:"events_by_type"`
	RecentEvents      int64            `json:"recent_events"`
	AvgProcessingTime float64          `json:"avg_processing_time"`
	LastEventAt       *time.Time       `json:"last_event_at"`
}

// Store persists webhook events keyed by PayPal event id.
type Store interface {
	// RecordIfNew inserts the event unless its id was already stored.
	// created is false for duplicates; a duplicate is not an error.
	RecordIfNew(ctx context.Context, ev NewEvent) (row dbgen.WebhookEvent, created bool, err error)
	MarkOutcome(ctx context.Context, eventID string, out Outcome) (dbgen.WebhookEvent, error)
	GetByEventID(ctx context.Context, eventID string) (dbgen.WebhookEvent, error)
	GetByID(ctx context.Context, id int64) (dbgen.WebhookEvent, error)
	List(ctx context.Context, f ListFilter) ([]dbgen.WebhookEvent, int64, error)
	Stats(ctx context.Context, recentSince time.Time) (Stats, error)
}

// Queries is the subset of generated queries the store uses.
type Queries interface {
	InsertWebhookEventIfNew(ctx context.Context, arg dbgen.InsertWebhookEventIfNewParams) (dbgen.WebhookEvent, error)
	MarkWebhookEventOutcome(ctx context.Context, arg dbgen.MarkWebhookEventOutcomeParams) (dbgen.WebhookEvent, error)
	GetWebhookEventByEventID(ctx context.Context, eventID string) (dbgen.WebhookEvent, error)
	GetWebhookEventByID(ctx context.Context, id int64) (dbgen.WebhookEvent, error)
	ListWebhookEvents(ctx context.Context, arg dbgen.ListWebhookEventsParams) ([]dbgen.WebhookEvent, error)
	CountWebhookEvents(ctx context.Context, arg dbgen.CountWebhookEventsParams) (int64, error)
	CountWebhookEventsByType(ctx context.Context) ([]dbgen.CountWebhookEventsByTypeRow, error)
	WebhookEventTotals(ctx context.Context, recentSince pgtype.Timestamptz) (dbgen.WebhookEventTotalsRow, error)
}

// PGStore implements Store on Postgres.
type PGStore struct {
	Q Queries
}

// NewPGStore wraps generated queries.
func NewPGStore(q Queries) *PGStore {
	return &PGStore{Q: q}
}

// RecordIfNew relies on ON CONFLICT DO NOTHING: no returned row means the
// event id already exists.
func (s *PGStore) RecordIfNew(ctx context.Context, ev NewEvent) (dbgen.WebhookEvent, bool, error) {
	snap := ev.Snapshot
	if snap.Amount.Valid && !db.AmountFits(snap.Amount.Decimal) {
		snap.Amount = decimal.NullDecimal{}
	}
	row, err := s.Q.InsertWebhookEventIfNew(ctx, dbgen.InsertWebhookEventIfNewParams{
		EventID:        ev.Envelope.ID,
		EventType:      ev.Envelope.EventType,
		ResourceType:   text(snap.ResourceType),
		ResourceID:     text(snap.ResourceID),
		ResourceStatus: text(snap.ResourceStatus),
		Amount:         snap.Amount,
		Currency:       text(snap.Currency),
		PayerEmail:     text(snap.PayerEmail),
		RawData:        ev.RawData,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsUniqueViolation(err) {
			return dbgen.WebhookEvent{}, false, nil
		}
		return dbgen.WebhookEvent{}, false, fmt.Errorf("insert webhook event: %w", err)
	}
	return row, true, nil
}

// MarkOutcome overwrites the processing columns; repeated calls are allowed.
func (s *PGStore) MarkOutcome(ctx context.Context, eventID string, out Outcome) (dbgen.WebhookEvent, error) {
	row, err := s.Q.MarkWebhookEventOutcome(ctx, dbgen.MarkWebhookEventOutcomeParams{
		Processed:      out.Processed,
		ProcessingTime: pgtype.Float8{Float64: out.Duration.Seconds(), Valid: true},
		ErrorMessage:   text(out.Error),
		EventID:        eventID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.WebhookEvent{}, ErrEventNotFound
		}
		return dbgen.WebhookEvent{}, fmt.Errorf("mark webhook event: %w", err)
	}
	return row, nil
}

func (s *PGStore) GetByEventID(ctx context.Context, eventID string) (dbgen.WebhookEvent, error) {
	row, err := s.Q.GetWebhookEventByEventID(ctx, eventID)
	return row, notFound(err)
}

func (s *PGStore) GetByID(ctx context.Context, id int64) (dbgen.WebhookEvent, error) {
	row, err := s.Q.GetWebhookEventByID(ctx, id)
	return row, notFound(err)
}

// List returns events newest first with the unpaged total.
func (s *PGStore) List(ctx context.Context, f ListFilter) ([]dbgen.WebhookEvent, int64, error) {
	eventType := text(f.EventType)
	processed := pgtype.Bool{}
	if f.Processed != nil {
		processed = pgtype.Bool{Bool: *f.Processed, Valid: true}
	}
	rows, err := s.Q.ListWebhookEvents(ctx, dbgen.ListWebhookEventsParams{
		EventType:   eventType,
		Processed:   processed,
		LimitCount:  int32(f.Limit),
		OffsetCount: int32(f.Offset),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list webhook events: %w", err)
	}
	total, err := s.Q.CountWebhookEvents(ctx, dbgen.CountWebhookEventsParams{
		EventType: eventType,
		Processed: processed,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count webhook events: %w", err)
	}
	return rows, total, nil
}

func (s *PGStore) Stats(ctx context.Context, recentSince time.Time) (Stats, error) {
	totals, err := s.Q.WebhookEventTotals(ctx, pgtype.Timestamptz{Time: recentSince, Valid: true})
	if err != nil {
		return Stats{}, fmt.Errorf("webhook totals: %w", err)
	}
	byType, err := s.Q.CountWebhookEventsByType(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("webhook totals by type: %w", err)
	}
	stats := Stats{
		TotalEvents:       totals.TotalEvents,
		ProcessedEvents:   totals.ProcessedEvents,
		UnprocessedEvents: totals.UnprocessedEvents,
		RecentEvents:      totals.RecentEvents,
		AvgProcessingTime: totals.AvgProcessingTime,
		EventsByType: lo.SliceToMap(byType, func(r dbgen.CountWebhookEventsByTypeRow) (string, int64) {
			return r.EventType, r.Total
		}),
	}
	if totals.LastEventAt.Valid {
		last := totals.LastEventAt.Time
		stats.LastEventAt = &last
	}
	return stats, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrEventNotFound
	}
	return err
}

func text(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
