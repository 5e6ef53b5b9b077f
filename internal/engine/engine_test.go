package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"dca-backtester/internal/types"
)

func runEngine(t *testing.T, req types.SimulationRequest) *types.SimulationResult {
	t.Helper()
	res, err := New().Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// decliningBars closes 3% lower every day, so the strategy deploys all its
// cash, enters QLC and keeps cycling.
func decliningBars(n int) []types.DailyBar {
	bars := make([]types.DailyBar, n)
	start := day("2025-01-01")
	px := 100.0
	for i := range bars {
		bars[i] = types.DailyBar{Date: start.AddDate(0, 0, i), Open: px, High: px, Low: px, Close: px}
		px *= 0.97
	}
	return bars
}

func fullRange(bars []types.DailyBar, investment float64) types.SimulationRequest {
	return types.SimulationRequest{
		Bars:       bars,
		Investment: investment,
		StartDate:  bars[0].Date,
		EndDate:    bars[len(bars)-1].Date,
	}
}

func TestRunEmptyRange(t *testing.T) {
	bars := []types.DailyBar{flat("2025-01-02", 50), flat("2025-01-03", 51)}
	res, err := New().Run(context.Background(), types.SimulationRequest{
		Bars:       bars,
		Investment: 100000,
		StartDate:  day("2024-01-01"),
		EndDate:    day("2024-12-31"),
	})
	if !errors.Is(err, ErrEmptyDateRange) {
		t.Fatalf("expected ErrEmptyDateRange, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no result, got %+v", res)
	}
}

func TestRunValidation(t *testing.T) {
	bars := []types.DailyBar{flat("2025-01-02", 50)}
	tests := []struct {
		name string
		req  types.SimulationRequest
		want error
	}{
		{
			name: "zero investment",
			req:  types.SimulationRequest{Bars: bars, Investment: 0, StartDate: day("2025-01-01"), EndDate: day("2025-01-31")},
			want: ErrInvalidInvestment,
		},
		{
			name: "NaN investment",
			req:  types.SimulationRequest{Bars: bars, Investment: math.NaN(), StartDate: day("2025-01-01"), EndDate: day("2025-01-31")},
			want: ErrInvalidInvestment,
		},
		{
			name: "start after end",
			req:  types.SimulationRequest{Bars: bars, Investment: 1000, StartDate: day("2025-02-01"), EndDate: day("2025-01-01")},
			want: ErrInvalidDateRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New().Run(context.Background(), tt.req); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRunSingleBarBuysTwoHalfLots(t *testing.T) {
	bars := []types.DailyBar{flat("2025-01-02", 50)}
	res := runEngine(t, fullRange(bars, 100000))

	if len(res.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(res.Transactions))
	}
	wantNotes := []string{"T=0, Target Price: 50.00", "T=0, Target Price: 55.00"}
	wantHeld := []float64{25, 50}
	wantCash := []float64{98750, 97500}
	for i, tx := range res.Transactions {
		if tx.Side != types.SideBuy || tx.OrderKind != types.OrderLOC {
			t.Errorf("tx %d: expected LOC buy, got %s %s", i, tx.OrderKind, tx.Side)
		}
		if tx.Shares != 25 || tx.Price != 50 || tx.Value != 1250 {
			t.Errorf("tx %d: unexpected fill %+v", i, tx)
		}
		if tx.SharesHeldAfter != wantHeld[i] || tx.CashAfter != wantCash[i] || tx.AvgPriceAfter != 50 {
			t.Errorf("tx %d: unexpected snapshot %+v", i, tx)
		}
		if tx.Note != wantNotes[i] {
			t.Errorf("tx %d: note = %q, want %q", i, tx.Note, wantNotes[i])
		}
		if tx.Date != "2025-01-02" {
			t.Errorf("tx %d: date = %q", i, tx.Date)
		}
	}

	if res.FinalCash != 97500 || res.FinalShares != 50 {
		t.Errorf("final cash=%v shares=%v", res.FinalCash, res.FinalShares)
	}
	if res.FinalPortfolioValue != 100000 || res.NetProfit != 0 || res.NetProfitPercent != 0 {
		t.Errorf("unexpected summary %+v", res)
	}
	if res.StartDate != "2025-01-02" || res.EndDate != "2025-01-02" {
		t.Errorf("dates %s..%s", res.StartDate, res.EndDate)
	}
	if len(res.EquityCurve) != 1 || res.EquityCurve[0].T != 1 || res.EquityCurve[0].Mode != types.ModeNormal {
		t.Errorf("unexpected equity curve %+v", res.EquityCurve)
	}
	if res.Stats.Bars != 1 || res.Stats.Buys != 2 || res.Stats.Sells != 0 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
}

func TestRunFiltersOutsideRange(t *testing.T) {
	bars := []types.DailyBar{
		flat("2025-01-06", 48),
		flat("2025-01-02", 50),
		flat("2024-12-31", 10),
		flat("2025-01-03", 49),
	}
	res := runEngine(t, types.SimulationRequest{
		Bars:       bars,
		Investment: 100000,
		StartDate:  day("2025-01-01"),
		EndDate:    day("2025-01-03"),
	})
	if res.StartDate != "2025-01-02" || res.EndDate != "2025-01-03" {
		t.Errorf("dates %s..%s", res.StartDate, res.EndDate)
	}
	if res.Stats.Bars != 2 {
		t.Errorf("bars = %d, want 2", res.Stats.Bars)
	}
	if bars[0].Close != 48 {
		t.Error("input bars were reordered")
	}
}

func TestRunDeterministic(t *testing.T) {
	req := fullRange(decliningBars(90), 100000)
	a := runEngine(t, req)
	b := runEngine(t, req)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("two runs over the same input differ")
	}

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("serialized results differ")
	}
	if strings.Contains(string(ja), "Exact") {
		t.Error("exact fills leaked into the JSON ledger")
	}
}

func TestRunReplayMatchesFinalState(t *testing.T) {
	res := runEngine(t, fullRange(decliningBars(150), 100000))
	if len(res.Transactions) == 0 {
		t.Fatal("expected trades")
	}

	for i := range res.Transactions {
		cash, shares := Replay(res.InitialInvestment, res.Transactions[:i+1])
		if cash < 0 || shares < 0 {
			t.Fatalf("after tx %d: cash=%v shares=%v", i, cash, shares)
		}
	}

	cash, shares := Replay(res.InitialInvestment, res.Transactions)
	if cash != res.FinalCash || shares != res.FinalShares {
		t.Errorf("replay (%v, %v) != final (%v, %v)", cash, shares, res.FinalCash, res.FinalShares)
	}
}

func TestReplayDecodedLedger(t *testing.T) {
	bar := types.DailyBar{Date: day("2025-01-02"), Open: 50, High: 50, Low: 50, Close: 50}
	single := runEngine(t, fullRange([]types.DailyBar{bar}, 100000))

	decode := func(res *types.SimulationResult) *types.SimulationResult {
		t.Helper()
		raw, err := json.Marshal(res)
		if err != nil {
			t.Fatal(err)
		}
		var out types.SimulationResult
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatal(err)
		}
		return &out
	}

	got := decode(single)
	cash, shares := Replay(got.InitialInvestment, got.Transactions)
	if cash != 97500 || shares != 50 {
		t.Errorf("replay of decoded ledger = (%v, %v), want (97500, 50)", cash, shares)
	}

	// Rounded fills drift by at most half a cent per share and half a
	// ten-thousandth of a share per transaction.
	long := decode(runEngine(t, fullRange(decliningBars(150), 100000)))
	var cashTol, sharesTol float64
	for _, tx := range long.Transactions {
		cashTol += 0.005*tx.Shares + 0.00005*tx.Price + 1e-6
		sharesTol += 0.00005 + 1e-9
	}
	cash, shares = Replay(long.InitialInvestment, long.Transactions)
	if math.Abs(cash-long.FinalCash) > cashTol || math.Abs(shares-long.FinalShares) > sharesTol {
		t.Errorf("replay (%v, %v) too far from final (%v, %v)", cash, shares, long.FinalCash, long.FinalShares)
	}
	if cash == long.InitialInvestment {
		t.Error("decoded ledger replayed as if empty")
	}
}

func TestRunEntersQuarterLossCutAfterT39(t *testing.T) {
	res := runEngine(t, fullRange(decliningBars(150), 100000))
	curve := res.EquityCurve

	idx := -1
	for i, pt := range curve {
		if pt.Mode == types.ModeQuarterLossCut {
			idx = i
			break
		}
	}
	if idx <= 0 {
		t.Fatalf("expected QLC entry after the first bar, got index %d", idx)
	}
	if curve[idx-1].T <= qlcEntryLevel {
		t.Errorf("entered QLC with T=%v at the start of the bar", curve[idx-1].T)
	}
	for j := 0; j < idx-1; j++ {
		if curve[j].T > qlcEntryLevel {
			t.Errorf("T=%v after bar %d should have triggered entry earlier", curve[j].T, j)
		}
	}
	for j := idx; j < len(curve); j++ {
		if curve[j].Mode != types.ModeQuarterLossCut {
			t.Fatalf("left QLC at bar %d in a falling market", j)
		}
	}

	var entry *types.Transaction
	for i := range res.Transactions {
		if res.Transactions[i].Date == curve[idx].Date {
			entry = &res.Transactions[i]
			break
		}
	}
	if entry == nil {
		t.Fatal("no transaction on the entry bar")
	}
	if entry.OrderKind != types.OrderMOC || !strings.HasPrefix(entry.Note, "Enter QLC Mode: T=") {
		t.Errorf("unexpected entry transaction %+v", entry)
	}
	if entry.Exact.Shares != curve[idx-1].Shares/4 {
		t.Errorf("entry sold %v, want a quarter of %v", entry.Exact.Shares, curve[idx-1].Shares)
	}
	if res.Stats.QLCEntries != 1 {
		t.Errorf("QLCEntries = %d", res.Stats.QLCEntries)
	}
}

func TestRunQuarterLossCutCycles(t *testing.T) {
	res := runEngine(t, fullRange(decliningBars(150), 100000))
	txs := res.Transactions

	cycles := 0
	for i, tx := range txs {
		if tx.Note != "QLC Buy #10" {
			continue
		}
		if i+1 >= len(txs) {
			t.Fatal("10th QLC buy is the last transaction")
		}
		next := txs[i+1]
		if next.OrderKind != types.OrderMOC || next.Side != types.SideSell || next.Date != tx.Date {
			t.Errorf("expected same-day MOC sell after %+v, got %+v", tx, next)
		}
		if next.Note != "QLC 10th buy cycle end. 1/4 MOC sell." {
			t.Errorf("cycle note = %q", next.Note)
		}
		_, held := Replay(res.InitialInvestment, txs[:i+1])
		if next.Exact.Shares != held/4 {
			t.Errorf("cycle sold %v, want a quarter of %v", next.Exact.Shares, held)
		}
		if i+2 < len(txs) && txs[i+2].Note != "QLC Buy #1" {
			t.Errorf("next cycle should restart at #1, got %q", txs[i+2].Note)
		}
		cycles++
	}
	if cycles == 0 {
		t.Fatal("expected at least one completed QLC cycle")
	}
	if res.Stats.QLCCycles != cycles {
		t.Errorf("QLCCycles = %d, counted %d", res.Stats.QLCCycles, cycles)
	}
}

// The ledger rounds only what it displays; the running avg, shares and cash
// stay at full precision.
func TestRunLedgerRoundingDoesNotFeedBack(t *testing.T) {
	res := runEngine(t, fullRange(decliningBars(150), 100000))

	var cash, shares, avg float64 = res.InitialInvestment, 0, 0
	for i, tx := range res.Transactions {
		f := tx.Exact
		if tx.Side == types.SideBuy {
			cost := f.Shares * f.Price
			if shares > 0 {
				avg = (avg*shares + cost) / (shares + f.Shares)
			} else {
				avg = f.Price
			}
			shares += f.Shares
			cash -= cost
		} else {
			shares -= f.Shares
			cash += f.Shares * f.Price
		}

		if tx.AvgPriceAfter != roundMoney(avg) {
			t.Fatalf("tx %d: avg %v, want %v", i, tx.AvgPriceAfter, roundMoney(avg))
		}
		if tx.SharesHeldAfter != roundShares(shares) || tx.CashAfter != roundMoney(cash) {
			t.Fatalf("tx %d: snapshot (%v, %v), want (%v, %v)", i,
				tx.SharesHeldAfter, tx.CashAfter, roundShares(shares), roundMoney(cash))
		}
	}
	last := res.EquityCurve[len(res.EquityCurve)-1]
	if last.Shares != shares || last.Cash != cash {
		t.Errorf("curve end (%v, %v) != shadow (%v, %v)", last.Shares, last.Cash, shares, cash)
	}
}

func TestRunStats(t *testing.T) {
	res := runEngine(t, fullRange(decliningBars(60), 100000))
	if res.Stats.Bars != 60 {
		t.Errorf("bars = %d", res.Stats.Bars)
	}
	if res.Stats.Buys+res.Stats.Sells != len(res.Transactions) {
		t.Errorf("buys %d + sells %d != %d transactions", res.Stats.Buys, res.Stats.Sells, len(res.Transactions))
	}
	if res.Stats.MaxDrawdownPct <= 0 || res.Stats.PeakValue < res.InitialInvestment*0.99 {
		t.Errorf("unexpected drawdown stats %+v", res.Stats)
	}
	if res.NetProfit >= 0 {
		t.Errorf("expected a loss in a falling market, got %v", res.NetProfit)
	}
}
