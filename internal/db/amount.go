package db

import "github.com/shopspring/decimal"

// Amount columns are NUMERIC(12,2).
const (
	AmountScale     = 2
	amountPrecision = 12
)

var amountLimit = decimal.New(1, amountPrecision-AmountScale)

// AmountFits reports whether d can be stored in an amount column once rounded
// to its scale.
func AmountFits(d decimal.Decimal) bool {
	return d.Round(AmountScale).Abs().LessThan(amountLimit)
}
