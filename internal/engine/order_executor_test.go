package engine

import (
	"context"
	"testing"
	"time"

	"dca-backtester/internal/types"
)

func day(s string) time.Time {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func ohlc(date string, o, h, l, c float64) types.DailyBar {
	return types.DailyBar{Date: day(date), Open: o, High: h, Low: l, Close: c}
}

func flat(date string, px float64) types.DailyBar {
	return ohlc(date, px, px, px, px)
}

func TestStepLimitSellLiquidatesWholeBalance(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{cash: 97000, shares: 30, avgPrice: 100, cumulative: 2500, mode: normalMode{}}

	p = sim.step(p, ohlc("2025-02-03", 100, 111, 99, 105))
	txs := sim.ledger.transactions()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d: %+v", len(txs), txs)
	}

	sell := txs[0]
	if sell.Side != types.SideSell || sell.OrderKind != types.OrderLimit {
		t.Errorf("expected LIMIT sell, got %s %s", sell.OrderKind, sell.Side)
	}
	if sell.Shares != 30 || sell.Price != 110 || sell.SharesHeldAfter != 0 {
		t.Errorf("unexpected limit sell %+v", sell)
	}
	if sell.Note != "Limit sell at 110.00" {
		t.Errorf("note = %q", sell.Note)
	}

	// Flat after the sell, so the reference falls back to the open and only
	// the second attempt (100 * 1.095) clears the close of 105.
	buy := txs[1]
	if buy.Side != types.SideBuy || buy.OrderKind != types.OrderLOC {
		t.Errorf("expected LOC buy, got %s %s", buy.OrderKind, buy.Side)
	}
	if buy.Shares != 11 || buy.Price != 105 || buy.AvgPriceAfter != 105 {
		t.Errorf("unexpected buy %+v", buy)
	}
	if buy.Note != "T=1, Target Price: 109.50" {
		t.Errorf("note = %q", buy.Note)
	}
	if p.shares != 11 {
		t.Errorf("shares = %v, want 11", p.shares)
	}
}

func TestStepBothBuysShareReferencePrice(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{cash: 99000, shares: 10, avgPrice: 100, cumulative: 1250, mode: normalMode{}}

	p = sim.step(p, flat("2025-02-03", 95))
	txs := sim.ledger.transactions()
	if len(txs) != 2 {
		t.Fatalf("expected 2 buys, got %d", len(txs))
	}
	if txs[0].Note != "T=0.5, Target Price: 100.00" {
		t.Errorf("first note = %q", txs[0].Note)
	}
	// The second threshold is built from the avg before the first buy.
	if txs[1].Note != "T=0.5, Target Price: 109.75" {
		t.Errorf("second note = %q", txs[1].Note)
	}
	if p.shares != 36 {
		t.Errorf("shares = %v, want 36", p.shares)
	}
}

func TestStepLOCSellQuarter(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	// T=1, SP=0.095, LOC target 109.49, limit 110.
	p := portfolio{cash: 97500, shares: 40, avgPrice: 100, cumulative: 2500, mode: normalMode{}}

	sim.step(p, ohlc("2025-02-03", 108, 109.8, 107, 109.6))
	txs := sim.ledger.transactions()
	if len(txs) == 0 {
		t.Fatal("expected a LOC sell")
	}
	if txs[0].OrderKind != types.OrderLOC || txs[0].Side != types.SideSell || txs[0].Shares != 10 {
		t.Errorf("unexpected first transaction %+v", txs[0])
	}
	if txs[0].Note != "LOC sell at 109.49" {
		t.Errorf("note = %q", txs[0].Note)
	}
	for _, tx := range txs[1:] {
		if tx.Side == types.SideSell {
			t.Errorf("unexpected extra sell %+v", tx)
		}
	}
}

func TestStepFullLotBuyBand(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	// T=24, SP=-0.02: one full-lot buy at avg*0.98 or lower.
	p := portfolio{cash: 40000, shares: 600, avgPrice: 100, cumulative: 60000, mode: normalMode{}}

	p = sim.step(p, flat("2025-02-03", 97))
	txs := sim.ledger.transactions()
	if len(txs) != 1 {
		t.Fatalf("expected one buy, got %d", len(txs))
	}
	if txs[0].Shares != 25 || txs[0].Note != "T=24, Target Price: 98.00" {
		t.Errorf("unexpected buy %+v", txs[0])
	}
	if p.shares != 625 {
		t.Errorf("shares = %v, want 625", p.shares)
	}

	sim = newSimulation(context.Background(), 100000)
	p = portfolio{cash: 40000, shares: 600, avgPrice: 100, cumulative: 60000, mode: normalMode{}}
	sim.step(p, flat("2025-02-04", 99))
	for _, tx := range sim.ledger.transactions() {
		if tx.Side == types.SideBuy {
			t.Errorf("close above target should not buy: %+v", tx)
		}
	}
}

func TestStepEntersQuarterLossCut(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{cash: 2000, shares: 400, avgPrice: 250, cumulative: 97600, mode: normalMode{}}

	p = sim.step(p, flat("2025-03-03", 200))
	txs := sim.ledger.transactions()
	if len(txs) != 2 {
		t.Fatalf("expected entry sell and first QLC buy, got %d: %+v", len(txs), txs)
	}
	if txs[0].OrderKind != types.OrderMOC || txs[0].Shares != 100 || txs[0].Price != 200 {
		t.Errorf("unexpected entry sell %+v", txs[0])
	}
	if txs[0].Note != "Enter QLC Mode: T=39.1. Initial 1/4 loss cut." {
		t.Errorf("entry note = %q", txs[0].Note)
	}
	if txs[1].Side != types.SideBuy || txs[1].Shares != 11 || txs[1].Note != "QLC Buy #1" {
		t.Errorf("unexpected QLC buy %+v", txs[1])
	}

	q, ok := p.mode.(quarterLossCut)
	if !ok {
		t.Fatalf("expected QLC mode, got %T", p.mode)
	}
	if q.purchaseCount != 1 || q.cycleInvestment != 22000 || q.purchaseAttemptAmount != 2200 {
		t.Errorf("unexpected QLC state %+v", q)
	}
	if sim.ledger.stats.QLCEntries != 1 {
		t.Errorf("QLCEntries = %d", sim.ledger.stats.QLCEntries)
	}
}

func TestStepEntersQuarterLossCutWithNoShares(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{cash: 2000, cumulative: 98000, mode: normalMode{}}

	p = sim.step(p, flat("2025-03-03", 100))
	if n := len(sim.ledger.transactions()); n != 0 {
		t.Errorf("expected no transactions, got %d", n)
	}
	q, ok := p.mode.(quarterLossCut)
	if !ok {
		t.Fatalf("expected QLC mode, got %T", p.mode)
	}
	if q.cycleInvestment != 2000 || q.purchaseAttemptAmount != 200 {
		t.Errorf("unexpected QLC state %+v", q)
	}
}

func TestStepQuarterLossCutExit(t *testing.T) {
	tests := []struct {
		name       string
		bar        types.DailyBar
		wantKind   types.OrderKind
		wantShares float64
		wantNote   string
	}{
		{
			name:       "LOC exit",
			bar:        ohlc("2025-03-10", 46, 47, 44, 46),
			wantKind:   types.OrderLOC,
			wantShares: 25,
			wantNote:   "QLC LOC Sell, exiting mode.",
		},
		{
			name:       "limit exit",
			bar:        ohlc("2025-03-10", 41, 56, 39, 40),
			wantKind:   types.OrderLimit,
			wantShares: 100,
			wantNote:   "QLC Limit Sell, exiting mode.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := newSimulation(context.Background(), 100000)
			p := portfolio{
				cash: 5000, shares: 100, avgPrice: 50, cumulative: 99000,
				mode: quarterLossCut{purchaseCount: 3, cycleInvestment: 10000, purchaseAttemptAmount: 1000},
			}

			p = sim.step(p, tt.bar)
			txs := sim.ledger.transactions()
			if len(txs) != 1 {
				t.Fatalf("expected only the exit sell, got %d: %+v", len(txs), txs)
			}
			if txs[0].OrderKind != tt.wantKind || txs[0].Shares != tt.wantShares || txs[0].Note != tt.wantNote {
				t.Errorf("unexpected exit %+v", txs[0])
			}
			if _, ok := p.mode.(normalMode); !ok {
				t.Errorf("expected NORMAL after exit, got %T", p.mode)
			}
			if sim.ledger.stats.QLCExits != 1 {
				t.Errorf("QLCExits = %d", sim.ledger.stats.QLCExits)
			}
		})
	}
}

func TestStepQuarterLossCutCycleReset(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{
		cash: 1500, shares: 200, avgPrice: 50, cumulative: 99000,
		mode: quarterLossCut{purchaseCount: 9, cycleInvestment: 10000, purchaseAttemptAmount: 1000},
	}

	p = sim.step(p, flat("2025-03-10", 40))
	txs := sim.ledger.transactions()
	if len(txs) != 2 {
		t.Fatalf("expected buy and cycle sell, got %d: %+v", len(txs), txs)
	}
	if txs[0].Note != "QLC Buy #10" || txs[0].Shares != 25 || txs[0].AvgPriceAfter != 48.89 {
		t.Errorf("unexpected 10th buy %+v", txs[0])
	}
	if txs[1].OrderKind != types.OrderMOC || txs[1].Shares != 56.25 {
		t.Errorf("unexpected cycle sell %+v", txs[1])
	}
	if txs[1].Note != "QLC 10th buy cycle end. 1/4 MOC sell." {
		t.Errorf("cycle note = %q", txs[1].Note)
	}

	q, ok := p.mode.(quarterLossCut)
	if !ok {
		t.Fatalf("expected QLC mode, got %T", p.mode)
	}
	if q.purchaseCount != 0 || q.cycleInvestment != 2750 || q.purchaseAttemptAmount != 275 {
		t.Errorf("unexpected reset state %+v", q)
	}
	if p.shares != 168.75 || p.cash != 2750 {
		t.Errorf("shares=%v cash=%v", p.shares, p.cash)
	}
	if sim.ledger.stats.QLCCycles != 1 {
		t.Errorf("QLCCycles = %d", sim.ledger.stats.QLCCycles)
	}
}

func TestStepQuarterLossCutBuyNeedsCash(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{
		cash: 500, shares: 100, avgPrice: 50, cumulative: 99000,
		mode: quarterLossCut{purchaseCount: 2, cycleInvestment: 10000, purchaseAttemptAmount: 1000},
	}

	p = sim.step(p, flat("2025-03-10", 40))
	if n := len(sim.ledger.transactions()); n != 0 {
		t.Errorf("expected no trades, got %d", n)
	}
	q, ok := p.mode.(quarterLossCut)
	if !ok || q.purchaseCount != 2 {
		t.Errorf("purchase count moved without a fill: %+v", p.mode)
	}
}

func TestLedgerKeepsExactFills(t *testing.T) {
	sim := newSimulation(context.Background(), 100000)
	p := portfolio{cash: 97000, shares: 30, avgPrice: 100, cumulative: 2500, mode: normalMode{}}
	sim.step(p, ohlc("2025-02-03", 100, 111, 99, 105))

	sell := sim.ledger.transactions()[0]
	if sell.Price != 110 {
		t.Errorf("ledger price = %v, want 110", sell.Price)
	}
	if sell.Exact.Price != 100*limitSellMarkup || sell.Exact.Shares != 30 {
		t.Errorf("unexpected exact fill %+v", sell.Exact)
	}
}
