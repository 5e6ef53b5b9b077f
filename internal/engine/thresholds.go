package engine

import "math"

// Rule constants of the graduated-threshold strategy.
const (
	baseBuyDivisor   = 40   // initial one-time buy amount = investment / 40
	halfBuyCeiling   = 20   // T below this buys two half lots
	fullBuyCeiling   = 40   // T below this buys one full lot
	qlcEntryLevel    = 39   // NORMAL -> QLC when T exceeds this
	qlcPurchaseLimit = 10   // QLC buys per cycle
	limitSellMarkup  = 1.1  // limit sell target over cost basis
	qlcDiscount      = 0.9  // QLC buy / exit threshold under cost basis
	locSellTick      = 0.01 // LOC sell thresholds sit one cent under target
)

// deploymentLevel is T: net committed capital in units of the base buy
// amount, rounded up to one decimal.
func deploymentLevel(cumulative, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return math.Ceil((cumulative/base)*10) / 10
}

// spread is SP, the threshold offset that shrinks as T grows.
func spread(t float64) float64 {
	return (10 - t/2) * 0.01
}

func locSellPrice(avg, sp float64) float64 {
	return avg*(1+sp) - locSellTick
}

func limitSellPrice(avg float64) float64 {
	return avg * limitSellMarkup
}

func qlcExitSellPrice(avg float64) float64 {
	return avg*qlcDiscount - locSellTick
}

func qlcBuyPrice(avg float64) float64 {
	return avg * qlcDiscount
}
