package report

import (
	"sort"

	"dca-backtester/internal/types"
)

// flowRow aggregates the fills of one side and order kind.
type flowRow struct {
	Side      types.Side
	Kind      types.OrderKind
	Count     int
	Shares    float64
	GrossFlow float64
}

func (r flowRow) avgPrice() float64 {
	if r.Shares == 0 {
		return 0
	}
	return r.GrossFlow / r.Shares
}

// aggregateFlows sums the fills per side and order kind, buys first.
func aggregateFlows(txs []types.Transaction) []flowRow {
	type key struct {
		side types.Side
		kind types.OrderKind
	}
	aggs := map[key]*flowRow{}
	for _, tx := range txs {
		k := key{tx.Side, tx.OrderKind}
		row := aggs[k]
		if row == nil {
			row = &flowRow{Side: tx.Side, Kind: tx.OrderKind}
			aggs[k] = row
		}
		// Results decoded from JSON carry no exact fill.
		fill := tx.Exact
		if fill.Shares == 0 {
			fill = types.Fill{Shares: tx.Shares, Price: tx.Price}
		}
		row.Count++
		row.Shares += fill.Shares
		row.GrossFlow += fill.Shares * fill.Price
	}

	out := make([]flowRow, 0, len(aggs))
	for _, r := range aggs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Side != out[j].Side {
			return out[i].Side == types.SideBuy
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
