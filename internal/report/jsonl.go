package report

import (
	"encoding/json"
	"fmt"
	"io"

	"dca-backtester/internal/types"
)

// WriteLedgerJSONL writes one JSON object per transaction, in ledger order.
func WriteLedgerJSONL(w io.Writer, txs []types.Transaction) error {
	for i, tx := range txs {
		b, err := json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("marshal transaction %d: %w", i, err)
		}
		if _, err := fmt.Fprintln(w, string(b)); err != nil {
			return err
		}
	}
	return nil
}
