// Package money holds the rounding primitives used everywhere an amount is
// computed. All arithmetic runs on exact decimals; rounding always goes up so
// the biller never under-charges from representation error.
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CeilToCents rounds amount up to the smallest USD unit: multiply by 100,
// ceiling, divide by 100. Values already exact at two decimals are unchanged.
func CeilToCents(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(hundred).Ceil().Div(hundred)
}

// CeilToRupiah rounds amount up to a whole rupiah. IDR has no fractional
// units in this domain.
func CeilToRupiah(amount decimal.Decimal) int64 {
	return amount.Ceil().IntPart()
}
