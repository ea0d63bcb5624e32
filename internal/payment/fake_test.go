package payment

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/order"
)

// memStore is an in-memory Store. created_at advances one millisecond per
// insert so listings have a strict order.
type memStore struct {
	mu     sync.Mutex
	rows   []dbgen.WebhookEvent
	base   time.Time
	marks  int
	failOn error
}

func newMemStore() *memStore {
	return &memStore{base: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (m *memStore) RecordIfNew(_ context.Context, ev NewEvent) (dbgen.WebhookEvent, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != nil {
		return dbgen.WebhookEvent{}, false, m.failOn
	}
	for _, row := range m.rows {
		if row.EventID == ev.Envelope.ID {
			return dbgen.WebhookEvent{}, false, nil
		}
	}
	snap := ev.Snapshot
	row := dbgen.WebhookEvent{
		ID:             int64(len(m.rows) + 1),
		EventID:        ev.Envelope.ID,
		EventType:      ev.Envelope.EventType,
		ResourceType:   text(snap.ResourceType),
		ResourceID:     text(snap.ResourceID),
		ResourceStatus: text(snap.ResourceStatus),
		Amount:         snap.Amount,
		Currency:       text(snap.Currency),
		PayerEmail:     text(snap.PayerEmail),
		RawData:        ev.RawData,
		CreatedAt:      pgtype.Timestamptz{Time: m.base.Add(time.Duration(len(m.rows)) * time.Millisecond), Valid: true},
	}
	m.rows = append(m.rows, row)
	return row, true, nil
}

func (m *memStore) MarkOutcome(_ context.Context, eventID string, out Outcome) (dbgen.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].EventID != eventID {
			continue
		}
		m.marks++
		m.rows[i].Processed = out.Processed
		m.rows[i].ProcessingTime = pgtype.Float8{Float64: out.Duration.Seconds(), Valid: true}
		m.rows[i].ErrorMessage = text(out.Error)
		m.rows[i].ProcessedAt = pgtype.Timestamptz{}
		if out.Processed {
			m.rows[i].ProcessedAt = pgtype.Timestamptz{Time: time.Now(), Valid: true}
		}
		return m.rows[i], nil
	}
	return dbgen.WebhookEvent{}, ErrEventNotFound
}

func (m *memStore) GetByEventID(_ context.Context, eventID string) (dbgen.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.EventID == eventID {
			return row, nil
		}
	}
	return dbgen.WebhookEvent{}, ErrEventNotFound
}

func (m *memStore) GetByID(_ context.Context, id int64) (dbgen.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			return row, nil
		}
	}
	return dbgen.WebhookEvent{}, ErrEventNotFound
}

func (m *memStore) List(_ context.Context, f ListFilter) ([]dbgen.WebhookEvent, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []dbgen.WebhookEvent
	for _, row := range m.rows {
		if f.EventType != "" && row.EventType != f.EventType {
			continue
		}
		if f.Processed != nil && row.Processed != *f.Processed {
			continue
		}
		matched = append(matched, row)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.Time.After(matched[j].CreatedAt.Time)
	})
	total := int64(len(matched))
	if f.Offset >= len(matched) {
		return []dbgen.WebhookEvent{}, total, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func (m *memStore) Stats(_ context.Context, recentSince time.Time) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := Stats{EventsByType: map[string]int64{}}
	var sum float64
	var timed int
	for _, row := range m.rows {
		stats.TotalEvents++
		stats.EventsByType[row.EventType]++
		if row.Processed {
			stats.ProcessedEvents++
		} else {
			stats.UnprocessedEvents++
		}
		if !row.CreatedAt.Time.Before(recentSince) {
			stats.RecentEvents++
		}
		if row.ProcessingTime.Valid {
			sum += row.ProcessingTime.Float64
			timed++
		}
		created := row.CreatedAt.Time
		if stats.LastEventAt == nil || created.After(*stats.LastEventAt) {
			stats.LastEventAt = &created
		}
	}
	if timed > 0 {
		stats.AvgProcessingTime = sum / float64(timed)
	}
	return stats, nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// fakeOrders is an OrderUpdater over a map keyed by external id.
type fakeOrders struct {
	mu      sync.Mutex
	orders  map[string]order.Order
	calls   int
	failFor map[string]error
}

func newFakeOrders(orders ...order.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]order.Order{}, failFor: map[string]error{}}
	for _, o := range orders {
		f.orders[o.PayPalOrderID] = o
	}
	return f
}

func (f *fakeOrders) ApplyExternalStatus(_ context.Context, externalID, status, _ string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failFor[externalID]; err != nil {
		return order.Order{}, err
	}
	o, ok := f.orders[externalID]
	if !ok {
		return order.Order{}, order.ErrNotFound
	}
	o.PaymentStatus = status
	o.UpdatedAt = o.UpdatedAt.Add(time.Second)
	f.orders[externalID] = o
	return o, nil
}

func (f *fakeOrders) get(externalID string) order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[externalID]
}

func (f *fakeOrders) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var errBoom = errors.New("database unavailable")

func newTestProcessor(store Store, orders OrderUpdater) *Processor {
	rec := &Reconciler{Orders: orders, Logger: zerolog.Nop()}
	v, _ := NewInsecureVerifier(true)
	return NewProcessor(v, "insecure", store, NewDispatcher(rec), zerolog.Nop())
}

func transmissionHeaders() http.Header {
	h := http.Header{}
	h.Set(HeaderAuthAlgo, "SHA256withRSA")
	h.Set(HeaderCertURL, "https://api.sandbox.paypal.com/v1/notifications/certs/CERT-360caa42")
	h.Set(HeaderTransmissionID, "69cd13f0-d67a-11e5-baa3-778b53f4ae55")
	h.Set(HeaderTransmissionSig, "c2lnbmF0dXJl")
	h.Set(HeaderTransmissionTime, "2024-05-01T12:00:00Z")
	return h
}

func captureBody(eventID, eventType, resourceID string) []byte {
	return []byte(`{
  "id": "` + eventID + `",
  "event_type": "` + eventType + `",
  "resource_type": "capture",
  "summary": "Payment event",
  "create_time": "2024-05-01T12:00:00Z",
  "resource": {
    "id": "` + resourceID + `",
    "status": "COMPLETED",
    "amount": {"value": "42.00", "currency_code": "USD"},
    "supplementary_data": {"related_ids": {"order_id": "ORDER-` + resourceID + `"}}
  }
}`)
}
