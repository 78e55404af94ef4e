package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// quantityPlaces is the number of decimals kept after lot/tick rounding.
const quantityPlaces = 8

// RoundQuantity floors qty to a multiple of lotStep. Results below minQty
// become 0, so callers can treat 0 as "not tradable".
func RoundQuantity(qty, minQty, lotStep float64) float64 {
	if lotStep <= 0 {
		return qty
	}

	if qty <= 0 || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 0
	}

	step := decimal.NewFromFloat(lotStep)
	rounded := decimal.NewFromFloat(qty).Div(step).Floor().Mul(step)

	if rounded.LessThan(decimal.NewFromFloat(minQty)) {
		return 0
	}

	return rounded.Round(quantityPlaces).InexactFloat64()
}

// RoundPrice rounds price to the nearest multiple of tick. Exact halves go to
// the even multiple.
func RoundPrice(price, tick float64) float64 {
	if tick <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return price
	}

	step := decimal.NewFromFloat(tick)
	rounded := decimal.NewFromFloat(price).Div(step).RoundBank(0).Mul(step)

	return rounded.Round(quantityPlaces).InexactFloat64()
}
