package engine

import "dca-backtester/internal/types"

// Replay re-applies the fills of a ledger, in order, to a fresh portfolio
// funded with investment. For a complete ledger from the engine the result
// equals the run's FinalCash and FinalShares. Transactions decoded from JSON
// carry no exact fill and replay from their rounded shares and price.
func Replay(investment float64, txs []types.Transaction) (cash, shares float64) {
	cash = investment
	for _, tx := range txs {
		fill := tx.Exact
		if fill.Shares == 0 {
			fill = types.Fill{Shares: tx.Shares, Price: tx.Price}
		}
		amount := fill.Shares * fill.Price
		switch tx.Side {
		case types.SideBuy:
			shares += fill.Shares
			cash -= amount
		case types.SideSell:
			shares -= fill.Shares
			cash += amount
		}
	}
	return cash, shares
}
