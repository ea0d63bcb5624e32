package db

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAmountFits(t *testing.T) {
	cases := map[string]bool{
		"0":               true,
		"42.00":           true,
		"9999999999.99":   true,
		"9999999999.994":  true,
		"9999999999.995":  false,
		"10000000000":     false,
		"-9999999999.99":  true,
		"123456789012.00": false,
	}
	for raw, want := range cases {
		require.Equal(t, want, AmountFits(decimal.RequireFromString(raw)), raw)
	}
}
