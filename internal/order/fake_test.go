package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

// memRepository is an in-memory Repository for service and handler tests.
type memRepository struct {
	mu      sync.Mutex
	nextID  int64
	orders  map[int64]dbgen.Order
	history []dbgen.OrderStatusEvent
	err     error
}

func newMemRepository() *memRepository {
	return &memRepository{orders: map[int64]dbgen.Order{}}
}

func (m *memRepository) Create(_ context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return dbgen.Order{}, m.err
	}
	for _, o := range m.orders {
		if o.PaypalOrderID == arg.PaypalOrderID {
			return dbgen.Order{}, ErrDuplicateExternalID
		}
	}
	m.nextID++
	now := pgtype.Timestamptz{Time: time.Now(), Valid: true}
	row := dbgen.Order{
		ID:            m.nextID,
		PaypalOrderID: arg.PaypalOrderID,
		ProductName:   arg.ProductName,
		Amount:        arg.Amount,
		Currency:      arg.Currency,
		BuyerName:     arg.BuyerName,
		BuyerEmail:    arg.BuyerEmail,
		AddressLine1:  arg.AddressLine1,
		AddressLine2:  arg.AddressLine2,
		City:          arg.City,
		State:         arg.State,
		PostalCode:    arg.PostalCode,
		CountryCode:   arg.CountryCode,
		PaymentStatus: arg.PaymentStatus,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.orders[row.ID] = row
	return row, nil
}

func (m *memRepository) find(key Key) (dbgen.Order, bool) {
	if key.ID > 0 {
		o, ok := m.orders[key.ID]
		return o, ok
	}
	for _, o := range m.orders {
		if o.PaypalOrderID == key.ExternalID {
			return o, true
		}
	}
	return dbgen.Order{}, false
}

func (m *memRepository) Get(_ context.Context, key Key) (dbgen.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return dbgen.Order{}, m.err
	}
	o, ok := m.find(key)
	if !ok {
		return dbgen.Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memRepository) List(_ context.Context, limit, offset int32) ([]dbgen.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, 0, m.err
	}
	all := make([]dbgen.Order, 0, len(m.orders))
	for _, o := range m.orders {
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := int64(len(all))
	start := int(offset)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(limit)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (m *memRepository) UpdateStatus(_ context.Context, w StatusWrite) (StatusUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return StatusUpdate{}, m.err
	}
	current, ok := m.find(w.Key)
	if !ok {
		return StatusUpdate{}, ErrNotFound
	}
	updated := current
	updated.PaymentStatus = w.Status
	updated.UpdatedAt = pgtype.Timestamptz{Time: current.UpdatedAt.Time.Add(time.Millisecond), Valid: true}
	m.orders[updated.ID] = updated

	event := dbgen.OrderStatusEvent{
		ID:             int64(len(m.history) + 1),
		OrderID:        updated.ID,
		PreviousStatus: current.PaymentStatus,
		NewStatus:      w.Status,
		Source:         w.Source,
		CreatedAt:      pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	if w.WebhookEventID != "" {
		event.WebhookEventID = pgtype.Text{String: w.WebhookEventID, Valid: true}
	}
	m.history = append(m.history, event)
	return StatusUpdate{Order: updated, Previous: current.PaymentStatus, History: event}, nil
}

func (m *memRepository) Stats(_ context.Context) (dbgen.OrderStatsRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var row dbgen.OrderStatsRow
	for _, o := range m.orders {
		row.TotalOrders++
		if o.PaymentStatus == StatusCompleted {
			row.CompletedOrders++
			row.TotalRevenue = row.TotalRevenue.Add(o.Amount)
		}
	}
	return row, nil
}

func (m *memRepository) History(_ context.Context, orderID int64) ([]dbgen.OrderStatusEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderID]; !ok {
		return nil, ErrNotFound
	}
	var out []dbgen.OrderStatusEvent
	for i := len(m.history) - 1; i >= 0; i-- {
		if m.history[i].OrderID == orderID {
			out = append(out, m.history[i])
		}
	}
	return out, nil
}
