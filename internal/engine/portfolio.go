package engine

import (
	"math"

	"dca-backtester/internal/types"
)

// portfolio is the full-precision state of a run. It is passed by value
// through the day loop; every mutation returns the updated copy.
type portfolio struct {
	cash     float64
	shares   float64
	avgPrice float64 // meaningful only while shares > 0
	// cumulative is the net dollar flow of buys minus sells; it drives T.
	cumulative float64
	mode       modeState
}

func newPortfolio(investment float64) portfolio {
	return portfolio{cash: investment, mode: normalMode{}}
}

// buy spends at most amount on whole shares at price. It does nothing when
// cash is short of amount or of the actual cost, or when amount buys less
// than one share.
//
// Buying into an empty position sets the cost basis to price, in either mode.
func (p portfolio) buy(amount, price float64) (portfolio, types.Fill, bool) {
	if price <= 0 || p.cash < amount {
		return p, types.Fill{}, false
	}
	qty := math.Floor(amount / price)
	if qty <= 0 {
		return p, types.Fill{}, false
	}
	cost := qty * price
	if cost > p.cash {
		return p, types.Fill{}, false
	}
	if p.shares > 0 {
		p.avgPrice = (p.avgPrice*p.shares + cost) / (p.shares + qty)
	} else {
		p.avgPrice = price
	}
	p.shares += qty
	p.cash -= cost
	p.cumulative += cost
	return p, types.Fill{Shares: qty, Price: price}, true
}

// sell disposes of qty shares at price. The cost basis is unchanged.
func (p portfolio) sell(qty, price float64) (portfolio, types.Fill, bool) {
	if qty <= 0 || qty > p.shares {
		return p, types.Fill{}, false
	}
	proceeds := qty * price
	p.shares -= qty
	p.cash += proceeds
	p.cumulative -= proceeds
	return p, types.Fill{Shares: qty, Price: price}, true
}

func (p portfolio) value(price float64) float64 {
	return p.shares*price + p.cash
}
