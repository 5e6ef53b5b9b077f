package engine

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// round returns x rounded half away from zero to places decimals. It is
// only used to build ledger projections, never fed back into the state.
func round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

func roundShares(x float64) float64 { return round(x, 4) }

func roundMoney(x float64) float64 { return round(x, 2) }

// money formats a price for ledger notes.
func money(x float64) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return decimal.NewFromFloat(x).StringFixed(2)
}

// formatLevel renders T with the shortest exact representation ("0", "12.5").
func formatLevel(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
