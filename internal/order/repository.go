package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/noah-isme/paypal-orders/internal/db"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
	"github.com/noah-isme/paypal-orders/internal/events"
)

// Key selects an order by internal id or PayPal order id. ID wins when set.
type Key struct {
	ID         int64
	ExternalID string
}

// StatusWrite describes one payment status mutation.
type StatusWrite struct {
	Key            Key
	Status         string
	Source         string
	WebhookEventID string
}

// StatusUpdate is the committed outcome of a StatusWrite.
type StatusUpdate struct {
	Order    dbgen.Order
	Previous string
	History  dbgen.OrderStatusEvent
}

// Repository is the persistence boundary of the order service.
type Repository interface {
	Create(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error)
	Get(ctx context.Context, key Key) (dbgen.Order, error)
	List(ctx context.Context, limit, offset int32) ([]dbgen.Order, int64, error)
	UpdateStatus(ctx context.Context, write StatusWrite) (StatusUpdate, error)
	Stats(ctx context.Context) (dbgen.OrderStatsRow, error)
	History(ctx context.Context, orderID int64) ([]dbgen.OrderStatusEvent, error)
}

// Pool is satisfied by *pgxpool.Pool.
type Pool interface {
	dbgen.DBTX
	db.TxBeginner
}

// PGRepository stores orders in Postgres.
type PGRepository struct {
	pool Pool
	q    *dbgen.Queries
	bus  *events.Bus
}

// NewPGRepository wires a repository over pool. bus records status history
// inside the update transaction.
func NewPGRepository(pool Pool, bus *events.Bus) (*PGRepository, error) {
	if pool == nil {
		return nil, errors.New("order: pool is nil")
	}
	if bus == nil {
		bus = &events.Bus{}
	}
	return &PGRepository{pool: pool, q: dbgen.New(pool), bus: bus}, nil
}

// Create inserts a new order. A duplicate PayPal order id yields ErrDuplicateExternalID.
func (r *PGRepository) Create(ctx context.Context, arg dbgen.CreateOrderParams) (dbgen.Order, error) {
	row, err := r.q.CreateOrder(ctx, arg)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return dbgen.Order{}, ErrDuplicateExternalID
		}
		return dbgen.Order{}, fmt.Errorf("q.CreateOrder: %w", err)
	}
	return row, nil
}

// Get loads one order.
func (r *PGRepository) Get(ctx context.Context, key Key) (dbgen.Order, error) {
	var (
		row dbgen.Order
		err error
	)
	if key.ID > 0 {
		row, err = r.q.GetOrderByID(ctx, key.ID)
	} else {
		row, err = r.q.GetOrderByPaypalID(ctx, key.ExternalID)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dbgen.Order{}, ErrNotFound
		}
		return dbgen.Order{}, fmt.Errorf("q.GetOrder: %w", err)
	}
	return row, nil
}

// List returns a page of orders, newest first, plus the total count.
func (r *PGRepository) List(ctx context.Context, limit, offset int32) ([]dbgen.Order, int64, error) {
	rows, err := r.q.ListOrders(ctx, dbgen.ListOrdersParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("q.ListOrders: %w", err)
	}
	total, err := r.q.CountOrders(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("q.CountOrders: %w", err)
	}
	return rows, total, nil
}

// UpdateStatus locks the order row, writes the new status and appends a
// history row in one transaction.
func (r *PGRepository) UpdateStatus(ctx context.Context, write StatusWrite) (StatusUpdate, error) {
	return db.WithTx(ctx, r.pool, func(q *dbgen.Queries) (StatusUpdate, error) {
		var (
			current dbgen.Order
			err     error
		)
		if write.Key.ID > 0 {
			current, err = q.LockOrderByID(ctx, write.Key.ID)
		} else {
			current, err = q.LockOrderByPaypalID(ctx, write.Key.ExternalID)
		}
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return StatusUpdate{}, ErrNotFound
			}
			return StatusUpdate{}, fmt.Errorf("q.LockOrder: %w", err)
		}

		updated, err := q.UpdateOrderStatus(ctx, dbgen.UpdateOrderStatusParams{ID: current.ID, PaymentStatus: write.Status})
		if err != nil {
			return StatusUpdate{}, fmt.Errorf("q.UpdateOrderStatus: %w", err)
		}

		history, err := r.bus.Record(ctx, q, events.StatusChange{
			OrderID:        current.ID,
			Previous:       current.PaymentStatus,
			Next:           write.Status,
			Source:         write.Source,
			WebhookEventID: write.WebhookEventID,
		})
		if err != nil {
			return StatusUpdate{}, err
		}
		return StatusUpdate{Order: updated, Previous: current.PaymentStatus, History: history}, nil
	})
}

// Stats aggregates order totals.
func (r *PGRepository) Stats(ctx context.Context) (dbgen.OrderStatsRow, error) {
	row, err := r.q.OrderStats(ctx)
	if err != nil {
		return dbgen.OrderStatsRow{}, fmt.Errorf("q.OrderStats: %w", err)
	}
	return row, nil
}

// History lists status changes for one order, newest first.
func (r *PGRepository) History(ctx context.Context, orderID int64) ([]dbgen.OrderStatusEvent, error) {
	if _, err := r.q.GetOrderByID(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("q.GetOrderByID: %w", err)
	}
	rows, err := r.q.ListOrderStatusEvents(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("q.ListOrderStatusEvents: %w", err)
	}
	return rows, nil
}
