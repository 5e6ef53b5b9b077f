package engine

import (
	"context"

	"dca-backtester/internal/logger"
	"dca-backtester/internal/types"
)

// ledger is the append-only transaction log of a run.
type ledger struct {
	ctx     context.Context
	entries []types.Transaction
	stats   types.RunStats
}

func newLedger(ctx context.Context) *ledger {
	return &ledger{ctx: ctx, entries: make([]types.Transaction, 0, 64)}
}

// record appends fill with a rounded snapshot of p taken after the trade.
func (l *ledger) record(date string, side types.Side, kind types.OrderKind, fill types.Fill, p portfolio, note string) {
	tx := types.Transaction{
		Date:            date,
		Side:            side,
		OrderKind:       kind,
		Shares:          roundShares(fill.Shares),
		Price:           roundMoney(fill.Price),
		Value:           roundMoney(fill.Shares * fill.Price),
		SharesHeldAfter: roundShares(p.shares),
		AvgPriceAfter:   roundMoney(p.avgPrice),
		CashAfter:       roundMoney(p.cash),
		Note:            note,
		Exact:           fill,
	}
	l.entries = append(l.entries, tx)

	if side == types.SideBuy {
		l.stats.Buys++
	} else {
		l.stats.Sells++
	}
	logger.Trade(l.ctx, date, string(side), string(kind), fill.Shares, fill.Price,
		"note", note,
		"cash_after", tx.CashAfter,
		"shares_after", tx.SharesHeldAfter,
	)
}

// transactions returns a copy of the entries.
func (l *ledger) transactions() []types.Transaction {
	out := make([]types.Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}
