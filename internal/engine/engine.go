package engine

import (
	"context"
	"errors"
	"math"

	"dca-backtester/internal/logger"
	"dca-backtester/internal/ta"
	"dca-backtester/internal/types"
)

var (
	// ErrEmptyDateRange is returned when no bar falls inside the requested
	// range. Nothing has been simulated, so retrying with another range is safe.
	ErrEmptyDateRange = errors.New("no historical data available for the selected period")

	ErrInvalidInvestment = errors.New("investment must be a positive amount")
	ErrInvalidDateRange  = errors.New("start date cannot be after the end date")
)

// Engine backtests the graduated-threshold strategy. It holds no state
// between runs and is safe for concurrent use.
type Engine struct{}

func newEngine() *Engine {
	return &Engine{}
}

// Validate checks the request inputs that do not depend on the bar data.
func Validate(req types.SimulationRequest) error {
	if math.IsNaN(req.Investment) || math.IsInf(req.Investment, 0) || req.Investment <= 0 {
		return ErrInvalidInvestment
	}
	if ta.Day(req.StartDate).After(ta.Day(req.EndDate)) {
		return ErrInvalidDateRange
	}
	return nil
}

// Run folds the strategy over the bars in [StartDate, EndDate] and
// summarizes the final portfolio. req.Bars is not modified.
func (e *Engine) Run(ctx context.Context, req types.SimulationRequest) (*types.SimulationResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	bars := ta.FilterRange(req.Bars, req.StartDate, req.EndDate)
	if len(bars) == 0 {
		return nil, ErrEmptyDateRange
	}

	logger.Debug(ctx, "Bars filtered",
		"input", len(req.Bars),
		"bars", len(bars),
		"first", bars[0].Date.Format(types.DateLayout),
		"last", bars[len(bars)-1].Date.Format(types.DateLayout),
	)

	sim := newSimulation(ctx, req.Investment)
	p := newPortfolio(req.Investment)
	curve := make([]types.EquityPoint, 0, len(bars))
	for _, bar := range bars {
		p = sim.step(p, bar)
		curve = append(curve, types.EquityPoint{
			Date:   bar.Date.Format(types.DateLayout),
			Close:  bar.Close,
			Cash:   p.cash,
			Shares: p.shares,
			Value:  p.value(bar.Close),
			Mode:   p.mode.kind(),
			T:      deploymentLevel(p.cumulative, sim.base),
		})
	}

	res := summarize(req.Investment, bars, p, sim.ledger, curve)
	logger.Debug(ctx, "Simulation finished",
		"transactions", len(res.Transactions),
		"final_value", res.FinalPortfolioValue,
		"net_profit", res.NetProfit,
	)
	return res, nil
}
