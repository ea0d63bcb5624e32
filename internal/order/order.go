package order

import (
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

// Payment statuses written by reconciliation and the admin surface.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusDenied    = "denied"
	StatusRefunded  = "refunded"
	StatusReversed  = "reversed"
)

var (
	// ErrNotFound is returned when no order matches the lookup key.
	ErrNotFound = errors.New("order: not found")
	// ErrDuplicateExternalID is returned when the PayPal order id is already stored.
	ErrDuplicateExternalID = errors.New("order: paypal order id already exists")
)

// KnownStatuses lists the statuses accepted by the status update endpoint.
func KnownStatuses() []string {
	return []string{StatusPending, StatusCompleted, StatusDenied, StatusRefunded, StatusReversed}
}

// NormalizeStatus lower-cases status and reports whether it is a known value.
func NormalizeStatus(status string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(status))
	return normalized, lo.Contains(KnownStatuses(), normalized)
}

// Order is the API representation of a stored purchase.
type Order struct {
	ID            int64           `json:"id"`
	PayPalOrderID string          `json:"paypal_order_id"`
	ProductName   string          `json:"product_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BuyerName     string          `json:"buyer_name"`
	BuyerEmail    string          `json:"buyer_email"`
	AddressLine1  string          `json:"address_line1"`
	AddressLine2  string          `json:"address_line2"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	PostalCode    string          `json:"postal_code"`
	CountryCode   string          `json:"country_code"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// StatusEvent is one row of an order's status history.
type StatusEvent struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Source         string    `json:"source"`
	WebhookEventID string    `json:"webhook_event_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats aggregates order counts and completed revenue.
type Stats struct {
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

func fromRow(row dbgen.Order) Order {
	return Order{
		ID:            row.ID,
		PayPalOrderID: row.PaypalOrderID,
		ProductName:   row.ProductName,
		Amount:        row.Amount,
		Currency:      row.Currency,
		BuyerName:     row.BuyerName.String,
		BuyerEmail:    row.BuyerEmail.String,
		AddressLine1:  row.AddressLine1.String,
		AddressLine2:  row.AddressLine2.String,
		City:          row.City.String,
		State:         row.State.String,
		PostalCode:    row.PostalCode.String,
		CountryCode:   row.CountryCode.String,
		PaymentStatus: row.PaymentStatus,
		CreatedAt:     toTime(row.CreatedAt),
		UpdatedAt:     toTime(row.UpdatedAt),
	}
}

func fromRows(rows []dbgen.Order) []Order {
	return lo.Map(rows, func(row dbgen.Order, _ int) Order { return fromRow(row) })
}

func statusEventFromRow(row dbgen.OrderStatusEvent) StatusEvent {
	return StatusEvent{
		ID:             row.ID,
		OrderID:        row.OrderID,
		PreviousStatus: row.PreviousStatus,
		NewStatus:      row.NewStatus,
		Source:         row.Source,
		WebhookEventID: row.WebhookEventID.String,
		CreatedAt:      toTime(row.CreatedAt),
	}
}

func toTime(ts pgtype.Timestamptz) time.Time {
	if !ts.Valid {
		return time.Time{}
	}
	return ts.Time
}

func optionalText(value string) pgtype.Text {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: trimmed, Valid: true}
}
