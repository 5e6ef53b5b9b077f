package engine

import (
	"context"
	"fmt"

	"dca-backtester/internal/logger"
	"dca-backtester/internal/types"
)

// simulation carries the run-scoped collaborators of the day loop. The
// portfolio itself is threaded through step by value.
type simulation struct {
	ctx context.Context
	// base is the initial one-time buy amount (investment / 40).
	base   float64
	ledger *ledger
}

func newSimulation(ctx context.Context, investment float64) *simulation {
	return &simulation{
		ctx:    ctx,
		base:   investment / baseBuyDivisor,
		ledger: newLedger(ctx),
	}
}

// step applies one bar: mode entry check, then the sell rules, then the buy
// rules of the active mode.
func (s *simulation) step(p portfolio, bar types.DailyBar) portfolio {
	date := bar.Date.Format(types.DateLayout)
	t := deploymentLevel(p.cumulative, s.base)

	if _, ok := p.mode.(normalMode); ok && t > qlcEntryLevel {
		p = s.enterQuarterLossCut(p, bar, date, t)
		t = deploymentLevel(p.cumulative, s.base)
	}

	switch m := p.mode.(type) {
	case normalMode:
		return s.normalDay(p, bar, date, t)
	case quarterLossCut:
		return s.quarterLossCutDay(p, m, bar, date)
	default:
		panic(fmt.Sprintf("engine: unknown mode %T", m))
	}
}

// enterQuarterLossCut cuts a quarter of the position at the close and opens
// the first QLC cycle with the remaining cash. With no shares the mode still
// switches and nothing is recorded.
func (s *simulation) enterQuarterLossCut(p portfolio, bar types.DailyBar, date string, t float64) portfolio {
	if qty := p.shares / 4; qty > 0 {
		p, _ = s.sell(p, date, types.OrderMOC, qty, bar.Close,
			fmt.Sprintf("Enter QLC Mode: T=%s. Initial 1/4 loss cut.", formatLevel(t)))
	}
	q := newQuarterLossCut(p.cash)
	p.mode = q
	s.ledger.stats.QLCEntries++

	logger.ModeChange(s.ctx, date, string(types.ModeNormal), string(types.ModeQuarterLossCut),
		"t", t,
		"cycle_investment", q.cycleInvestment,
		"purchase_attempt_amount", q.purchaseAttemptAmount,
	)
	return p
}

func (s *simulation) normalDay(p portfolio, bar types.DailyBar, date string, t float64) portfolio {
	sp := spread(t)

	if p.shares > 0 {
		quarter := p.shares / 4
		if target := locSellPrice(p.avgPrice, sp); bar.Close >= target {
			p, _ = s.sell(p, date, types.OrderLOC, quarter, bar.Close,
				fmt.Sprintf("LOC sell at %s", money(target)))
		}

		// The limit rule liquidates the whole remaining balance, not three
		// quarters of it. This is how the strategy has always traded; do not
		// narrow it without confirming the intended semantics.
		if p.shares > 0 {
			if target := limitSellPrice(p.avgPrice); bar.High >= target {
				p, _ = s.sell(p, date, types.OrderLimit, p.shares, target,
					fmt.Sprintf("Limit sell at %s", money(target)))
			}
		}
	}

	switch {
	case t < halfBuyCeiling:
		amount := s.base / 2
		// Both attempts share the reference captured here, even when the
		// first one moves the cost basis.
		ref := referencePrice(p, bar)
		p, _ = s.locBuy(p, bar, date, amount, ref, buyNote(t, ref))
		p, _ = s.locBuy(p, bar, date, amount, ref*(1+sp), buyNote(t, ref*(1+sp)))
	case t < fullBuyCeiling:
		ref := referencePrice(p, bar)
		p, _ = s.locBuy(p, bar, date, s.base, ref*(1+sp), buyNote(t, ref*(1+sp)))
	}
	return p
}

func (s *simulation) quarterLossCutDay(p portfolio, q quarterLossCut, bar types.DailyBar, date string) portfolio {
	if p.shares > 0 {
		var sold bool
		if bar.Close >= qlcExitSellPrice(p.avgPrice) {
			p, sold = s.sell(p, date, types.OrderLOC, p.shares/4, bar.Close, "QLC LOC Sell, exiting mode.")
		}
		if !sold {
			if target := limitSellPrice(p.avgPrice); bar.High >= target {
				// Whole balance, as in the NORMAL limit rule.
				p, sold = s.sell(p, date, types.OrderLimit, p.shares, target, "QLC Limit Sell, exiting mode.")
			}
		}
		if sold {
			p.mode = normalMode{}
			s.ledger.stats.QLCExits++
			logger.ModeChange(s.ctx, date, string(types.ModeQuarterLossCut), string(types.ModeNormal),
				"purchase_count", q.purchaseCount,
			)
			return p
		}
	}

	if q.purchaseCount < qlcPurchaseLimit {
		note := fmt.Sprintf("QLC Buy #%d", q.purchaseCount+1)
		var bought bool
		p, bought = s.locBuy(p, bar, date, q.purchaseAttemptAmount, qlcBuyPrice(p.avgPrice), note)
		if bought {
			q.purchaseCount++
			if q.purchaseCount == qlcPurchaseLimit {
				p, _ = s.sell(p, date, types.OrderMOC, p.shares/4, bar.Close, "QLC 10th buy cycle end. 1/4 MOC sell.")
				q = newQuarterLossCut(p.cash)
				s.ledger.stats.QLCCycles++
				logger.Debug(s.ctx, "QLC cycle reset", "date", date, "cycle_investment", q.cycleInvestment)
			}
		}
	}
	p.mode = q
	return p
}

// referencePrice is the cost basis while holding, else the day's open.
func referencePrice(p portfolio, bar types.DailyBar) float64 {
	if p.shares > 0 {
		return p.avgPrice
	}
	return bar.Open
}

func buyNote(t, target float64) string {
	return fmt.Sprintf("T=%s, Target Price: %s", formatLevel(t), money(target))
}

// locBuy buys amount worth of shares at the close when the close is at or
// under threshold.
func (s *simulation) locBuy(p portfolio, bar types.DailyBar, date string, amount, threshold float64, note string) (portfolio, bool) {
	if bar.Close > threshold {
		return p, false
	}
	next, fill, ok := p.buy(amount, bar.Close)
	if !ok {
		return p, false
	}
	s.ledger.record(date, types.SideBuy, types.OrderLOC, fill, next, note)
	return next, true
}

func (s *simulation) sell(p portfolio, date string, kind types.OrderKind, qty, price float64, note string) (portfolio, bool) {
	next, fill, ok := p.sell(qty, price)
	if !ok {
		return p, false
	}
	s.ledger.record(date, types.SideSell, kind, fill, next, note)
	return next, true
}
