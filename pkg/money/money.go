// Package money holds the currency helpers shared by pricing and payloads.
package money

import "github.com/shopspring/decimal"

// Precision is the number of decimal places carried by every currency amount.
const Precision int32 = 2

var hundred = decimal.NewFromInt(100)

// Round fixes an amount to currency precision using half-away-from-zero rounding.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(Precision)
}

// Percent returns pct% of amount, rounded to currency precision.
func Percent(amount decimal.Decimal, pct decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(pct).Div(hundred))
}

// Sum adds the provided amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return total
}

// ToMinorUnits converts a rounded amount to its smallest currency unit (paise, cents).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return Round(amount).Shift(Precision).IntPart()
}

// FromMinorUnits converts minor units back to a currency amount.
func FromMinorUnits(units int64) decimal.Decimal {
	return decimal.NewFromInt(units).Shift(-Precision)
}

// Format renders the amount with fixed currency precision.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(Precision)
}
