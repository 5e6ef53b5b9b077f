package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"dca-backtester/internal/types"
)

// WriteSummaryCSV writes the run's headline figures as metric,value rows,
// followed by the per side and order kind flows.
func WriteSummaryCSV(w io.Writer, symbol string, res *types.SimulationResult) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"symbol", symbol},
		{"start_date", res.StartDate},
		{"end_date", res.EndDate},
		{"bars", strconv.Itoa(res.Stats.Bars)},
		{"initial_investment", fmtMoney(res.InitialInvestment)},
		{"final_cash", fmtMoney(res.FinalCash)},
		{"final_shares", fmtShares(res.FinalShares)},
		{"final_portfolio_value", fmtMoney(res.FinalPortfolioValue)},
		{"net_profit", fmtMoney(res.NetProfit)},
		{"net_profit_percent", fmtMoney(res.NetProfitPercent)},
		{"peak_value", fmtMoney(res.Stats.PeakValue)},
		{"max_drawdown_percent", fmtMoney(res.Stats.MaxDrawdownPct)},
		{"buys", strconv.Itoa(res.Stats.Buys)},
		{"sells", strconv.Itoa(res.Stats.Sells)},
		{"qlc_entries", strconv.Itoa(res.Stats.QLCEntries)},
		{"qlc_exits", strconv.Itoa(res.Stats.QLCExits)},
		{"qlc_cycles", strconv.Itoa(res.Stats.QLCCycles)},
	}
	for _, f := range aggregateFlows(res.Transactions) {
		prefix := strings.ToLower(string(f.Side) + "_" + string(f.Kind))
		rows = append(rows,
			[]string{prefix + "_count", strconv.Itoa(f.Count)},
			[]string{prefix + "_shares", fmtShares(f.Shares)},
			[]string{prefix + "_avg_price", fmtMoney(f.avgPrice())},
			[]string{prefix + "_gross_value", fmtMoney(f.GrossFlow)},
		)
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteSummaryText prints an aligned console report. With ledger set the
// full transaction table follows the summary.
func WriteSummaryText(w io.Writer, symbol string, res *types.SimulationResult, ledger bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Backtest %s %s .. %s (%d bars)\n\n", symbol, res.StartDate, res.EndDate, res.Stats.Bars)
	fmt.Fprintf(tw, "Initial investment\t%s\n", fmtMoney(res.InitialInvestment))
	fmt.Fprintf(tw, "Final cash\t%s\n", fmtMoney(res.FinalCash))
	fmt.Fprintf(tw, "Final shares\t%s\n", fmtShares(res.FinalShares))
	fmt.Fprintf(tw, "Final portfolio value\t%s\n", fmtMoney(res.FinalPortfolioValue))
	fmt.Fprintf(tw, "Net profit\t%s (%s)\n", fmtMoney(res.NetProfit), fmtPct(res.NetProfitPercent))
	fmt.Fprintf(tw, "Max drawdown\t%s (peak %s)\n", fmtPct(res.Stats.MaxDrawdownPct), fmtMoney(res.Stats.PeakValue))
	fmt.Fprintf(tw, "Trades\t%d buys / %d sells\n", res.Stats.Buys, res.Stats.Sells)
	fmt.Fprintf(tw, "QLC\t%d entries, %d exits, %d cycles\n", res.Stats.QLCEntries, res.Stats.QLCExits, res.Stats.QLCCycles)

	if flows := aggregateFlows(res.Transactions); len(flows) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "SIDE\tKIND\tCOUNT\tSHARES\tAVG PRICE\tGROSS")
		for _, f := range flows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
				f.Side, f.Kind, f.Count, fmtShares(f.Shares), fmtMoney(f.avgPrice()), fmtMoney(f.GrossFlow))
		}
	}

	if ledger && len(res.Transactions) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "DATE\tSIDE\tKIND\tSHARES\tPRICE\tVALUE\tHELD\tAVG\tCASH\tNOTE")
		for _, tx := range res.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.Date, tx.Side, tx.OrderKind,
				fmtShares(tx.Shares), fmtMoney(tx.Price), fmtMoney(tx.Value),
				fmtShares(tx.SharesHeldAfter), fmtMoney(tx.AvgPriceAfter), fmtMoney(tx.CashAfter),
				tx.Note)
		}
	}
	return tw.Flush()
}
