package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundAmountUsesBankersRounding(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2.345", "2.34"},
		{"2.355", "2.36"},
		{"2.344", "2.34"},
		{"2.346", "2.35"},
	}
	for _, tc := range cases {
		got := RoundAmount(decimal.RequireFromString(tc.in))
		assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
			"RoundAmount(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestBillAmount(t *testing.T) {
	liters := decimal.RequireFromString("31.5")
	price := decimal.RequireFromString("52.333")

	got := BillAmount(liters, price)
	assert.True(t, got.Equal(decimal.RequireFromString("1648.49")), "got %s", got)
}

func TestAmountMinorUnits(t *testing.T) {
	assert.Equal(t, int64(164849), AmountMinorUnits(decimal.RequireFromString("1648.49")))
	assert.Equal(t, int64(100), AmountMinorUnits(decimal.NewFromInt(1)))
	assert.Equal(t, int64(0), AmountMinorUnits(decimal.Zero))
}
