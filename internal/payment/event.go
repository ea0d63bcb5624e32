package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/paypal-orders/internal/db"
)

// ErrMalformedEvent is returned when a payload is not a PayPal event envelope.
var ErrMalformedEvent = errors.New("payment: malformed event payload")

// Envelope is the outer structure shared by every PayPal webhook notification.
type Envelope struct {
	ID           string          `json:"id"`
	EventType    string          `json:"event_type"`
	ResourceType string          `json:"resource_type"`
	Summary      string          `json:"summary"`
	CreateTime   string          `json:"create_time"`
	Resource     json.RawMessage `json:"resource"`
}

// ParseEnvelope decodes body and checks the fields every event must carry.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	env.ID = strings.TrimSpace(env.ID)
	env.EventType = strings.TrimSpace(env.EventType)
	if env.ID == "" {
		return Envelope{}, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	if env.EventType == "" {
		return Envelope{}, fmt.Errorf("%w: missing event_type", ErrMalformedEvent)
	}
	if len(env.Resource) == 0 || string(env.Resource) == "null" {
		env.Resource = json.RawMessage(`{}`)
	}
	return env, nil
}

// Event is one of CaptureEvent, CheckoutOrderEvent or UnknownEvent.
type Event interface {
	Envelope() Envelope
	isEvent()
}

// Money is the PayPal amount object.
type Money struct {
	Value        string `json:"value"`
	CurrencyCode string `json:"currency_code"`
}

// Capture is the resource of PAYMENT.CAPTURE.* notifications. Refund
// notifications carry a refund object with the same leading fields.
type Capture struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	Amount            *Money `json:"amount"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// RelatedOrderID returns the checkout order id a capture belongs to, if any.
func (c Capture) RelatedOrderID() string {
	return strings.TrimSpace(c.SupplementaryData.RelatedIDs.OrderID)
}

// CheckoutOrder is the resource of CHECKOUT.ORDER.* notifications.
type CheckoutOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Amount *Money `json:"amount"`
	} `json:"purchase_units"`
}

// CaptureEvent wraps a payment capture lifecycle notification.
type CaptureEvent struct {
	Env     Envelope
	Capture Capture
}

// CheckoutOrderEvent wraps a checkout order notification.
type CheckoutOrderEvent struct {
	Env   Envelope
	Order CheckoutOrder
}

// UnknownEvent keeps the envelope of event families without a typed model.
type UnknownEvent struct {
	Env Envelope
}

func (e CaptureEvent) Envelope() Envelope       { return e.Env }
func (e CheckoutOrderEvent) Envelope() Envelope { return e.Env }
func (e UnknownEvent) Envelope() Envelope       { return e.Env }

func (CaptureEvent) isEvent()       {}
func (CheckoutOrderEvent) isEvent() {}
func (UnknownEvent) isEvent()       {}

// Decode turns an envelope into its typed variant by event type family.
func Decode(env Envelope) (Event, error) {
	upper := strings.ToUpper(env.EventType)
	switch {
	case strings.HasPrefix(upper, "PAYMENT.CAPTURE."):
		var c Capture
		if err := json.Unmarshal(env.Resource, &c); err != nil {
			return nil, fmt.Errorf("%w: capture resource: %v", ErrMalformedEvent, err)
		}
		return CaptureEvent{Env: env, Capture: c}, nil
	case strings.HasPrefix(upper, "CHECKOUT.ORDER."):
		var o CheckoutOrder
		if err := json.Unmarshal(env.Resource, &o); err != nil {
			return nil, fmt.Errorf("%w: order resource: %v", ErrMalformedEvent, err)
		}
		return CheckoutOrderEvent{Env: env, Order: o}, nil
	default:
		return UnknownEvent{Env: env}, nil
	}
}

// Snapshot holds the denormalized resource fields stored with each event.
type Snapshot struct {
	ResourceType   string
	ResourceID     string
	ResourceStatus string
	Amount         decimal.NullDecimal
	Currency       string
	PayerEmail     string
}

// snapshotResource is the union of the resource fields the snapshot reads.
type snapshotResource struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *Money `json:"amount"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Amount *Money `json:"amount"`
	} `json:"purchase_units"`
}

// TakeSnapshot extracts the snapshot columns. Unreadable amounts, and amounts
// the amount column cannot hold, are left empty since the snapshot is
// informational.
func TakeSnapshot(env Envelope) Snapshot {
	snap := Snapshot{ResourceType: env.ResourceType}
	var res snapshotResource
	if err := json.Unmarshal(env.Resource, &res); err != nil {
		return snap
	}
	snap.ResourceID = strings.TrimSpace(res.ID)
	snap.ResourceStatus = strings.TrimSpace(res.Status)
	snap.PayerEmail = strings.TrimSpace(res.Payer.EmailAddress)

	money := res.Amount
	if money == nil && len(res.PurchaseUnits) > 0 {
		money = res.PurchaseUnits[0].Amount
	}
	if money != nil {
		if amount, err := decimal.NewFromString(strings.TrimSpace(money.Value)); err == nil && db.AmountFits(amount) {
			snap.Amount = decimal.NullDecimal{Decimal: amount, Valid: true}
		}
		snap.Currency = strings.ToUpper(strings.TrimSpace(money.CurrencyCode))
	}
	return snap
}
