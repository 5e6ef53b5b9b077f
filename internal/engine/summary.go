package engine

import (
	"dca-backtester/internal/ta"
	"dca-backtester/internal/types"
)

// summarize values the final portfolio at the last close.
func summarize(investment float64, bars []types.DailyBar, p portfolio, l *ledger, curve []types.EquityPoint) *types.SimulationResult {
	last := bars[len(bars)-1]
	final := p.value(last.Close)
	net := final - investment

	values := make([]float64, len(curve))
	for i, pt := range curve {
		values[i] = pt.Value
	}
	stats := l.stats
	stats.Bars = len(bars)
	stats.PeakValue, stats.MaxDrawdownPct = ta.MaxDrawdown(values)

	return &types.SimulationResult{
		Transactions:        l.transactions(),
		InitialInvestment:   investment,
		FinalCash:           p.cash,
		FinalShares:         p.shares,
		FinalPortfolioValue: final,
		NetProfit:           net,
		NetProfitPercent:    net / investment * 100,
		StartDate:           bars[0].Date.Format(types.DateLayout),
		EndDate:             last.Date.Format(types.DateLayout),
		EquityCurve:         curve,
		Stats:               stats,
	}
}
