package models

import "github.com/shopspring/decimal"

// RoundAmount normalizes a monetary value to two decimal places using
// banker's rounding, the convention the billing backend applies.
func RoundAmount(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(2)
}

// BillAmount computes liters × price per liter, rounded like a bill total.
func BillAmount(totalLiters, pricePerLiter decimal.Decimal) decimal.Decimal {
	return RoundAmount(totalLiters.Mul(pricePerLiter))
}

// AmountMinorUnits converts a bill amount into the provider's minor currency
// units (e.g. rupees → paise), the unit payment orders are denominated in.
func AmountMinorUnits(amount decimal.Decimal) int64 {
	return RoundAmount(amount).Mul(decimal.NewFromInt(100)).IntPart()
}
