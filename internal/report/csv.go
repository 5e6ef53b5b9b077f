package report

import (
	"encoding/csv"
	"io"

	"dca-backtester/internal/types"
)

var ledgerHeader = []string{
	"date", "side", "order_kind", "shares", "price", "value",
	"shares_held_after", "avg_price_after", "cash_after", "note",
}

// WriteLedgerCSV writes the ledger with money at 2 decimals and quantities
// at 4.
func WriteLedgerCSV(w io.Writer, txs []types.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ledgerHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		rec := []string{
			tx.Date,
			string(tx.Side),
			string(tx.OrderKind),
			fmtShares(tx.Shares),
			fmtMoney(tx.Price),
			fmtMoney(tx.Value),
			fmtShares(tx.SharesHeldAfter),
			fmtMoney(tx.AvgPriceAfter),
			fmtMoney(tx.CashAfter),
			tx.Note,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
