package order

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/noah-isme/paypal-orders/internal/common"
	"github.com/noah-isme/paypal-orders/internal/db"
	dbgen "github.com/noah-isme/paypal-orders/internal/db/gen"
)

const (
	defaultProductName = "Unknown Product"
	defaultCurrency    = "USD"
)

// CreateInput is the body of POST /api/orders: the storefront forwards the
// PayPal order it captured client-side.
type CreateInput struct {
	ProductName string      `json:"product_name" validate:"omitempty,max=255"`
	PayPalOrder PayPalOrder `json:"paypal_order"`
}

// PayPalOrder mirrors the subset of the PayPal Orders v2 resource we persist.
type PayPalOrder struct {
	ID            string         `json:"id" validate:"required,max=64"`
	Status        string         `json:"status" validate:"omitempty,max=32"`
	Payer         Payer          `json:"payer"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units" validate:"dive"`
}

// Payer identifies the buyer.
type Payer struct {
	Name struct {
		GivenName string `json:"given_name"`
		Surname   string `json:"surname"`
	} `json:"name"`
	EmailAddress string `json:"email_address" validate:"omitempty,email"`
}

// PurchaseUnit carries the amount and shipping destination.
type PurchaseUnit struct {
	Amount struct {
		Value        string `json:"value"`
		CurrencyCode string `json:"currency_code"`
	} `json:"amount"`
	Shipping struct {
		Address Address `json:"address"`
	} `json:"shipping"`
}

// Address uses PayPal's admin_area naming.
type Address struct {
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	AdminArea2   string `json:"admin_area_2"`
	AdminArea1   string `json:"admin_area_1"`
	PostalCode   string `json:"postal_code"`
	CountryCode  string `json:"country_code" validate:"omitempty,len=2"`
}

// toParams maps the payload to insert parameters. Missing amounts default to
// zero and missing currency to USD.
func (in CreateInput) toParams() (dbgen.CreateOrderParams, error) {
	var unit PurchaseUnit
	if len(in.PayPalOrder.PurchaseUnits) > 0 {
		unit = in.PayPalOrder.PurchaseUnits[0]
	}

	amount := decimal.Zero
	if raw := strings.TrimSpace(unit.Amount.Value); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			return dbgen.CreateOrderParams{}, invalid("purchase_units[0].amount.value", "must be a decimal number")
		}
		amount = parsed
	}
	if amount.IsNegative() {
		return dbgen.CreateOrderParams{}, invalid("purchase_units[0].amount.value", "must not be negative")
	}

	code := strings.ToUpper(strings.TrimSpace(unit.Amount.CurrencyCode))
	if code == "" {
		code = defaultCurrency
	}
	unitCurrency, err := currency.ParseISO(code)
	if err != nil {
		return dbgen.CreateOrderParams{}, invalid("purchase_units[0].amount.currency_code", "must be an ISO-4217 code")
	}
	scale, _ := currency.Standard.Rounding(unitCurrency)
	amount = amount.Round(int32(scale))
	if !db.AmountFits(amount) {
		return dbgen.CreateOrderParams{}, invalid("purchase_units[0].amount.value", "exceeds the maximum order amount")
	}

	productName := strings.TrimSpace(in.ProductName)
	if productName == "" {
		productName = defaultProductName
	}
	status := strings.ToLower(strings.TrimSpace(in.PayPalOrder.Status))
	if status == "" {
		status = StatusPending
	}
	name := in.PayPalOrder.Payer.Name
	buyerName := strings.TrimSpace(strings.TrimSpace(name.GivenName) + " " + strings.TrimSpace(name.Surname))
	address := unit.Shipping.Address

	return dbgen.CreateOrderParams{
		PaypalOrderID: strings.TrimSpace(in.PayPalOrder.ID),
		ProductName:   productName,
		Amount:        amount,
		Currency:      unitCurrency.String(),
		BuyerName:     optionalText(buyerName),
		BuyerEmail:    optionalText(in.PayPalOrder.Payer.EmailAddress),
		AddressLine1:  optionalText(address.AddressLine1),
		AddressLine2:  optionalText(address.AddressLine2),
		City:          optionalText(address.AdminArea2),
		State:         optionalText(address.AdminArea1),
		PostalCode:    optionalText(address.PostalCode),
		CountryCode:   optionalText(strings.ToUpper(address.CountryCode)),
		PaymentStatus: status,
	}, nil
}

func invalid(field, reason string) error {
	appErr := common.NewAppError("VALIDATION_ERROR", fmt.Sprintf("%s %s", field, reason), http.StatusBadRequest, nil)
	appErr.Details = map[string]string{field: reason}
	return appErr
}
