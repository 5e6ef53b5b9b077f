package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"dca-backtester/internal/types"
)

// Options selects the files ExportAll writes.
type Options struct {
	LedgerJSONL bool
	LedgerCSV   bool
	SummaryCSV  bool
	ChartPNG    bool
}

// ExportAll writes the enabled outputs of one result into dir and returns
// the paths written. Files are named <symbol>_<start>_<end>_<kind>.
func ExportAll(dir, symbol string, res *types.SimulationResult, opts Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	stem := filepath.Join(dir, fmt.Sprintf("%s_%s_%s", symbol, res.StartDate, res.EndDate))

	var written []string
	write := func(suffix string, fn func(w io.Writer) error) error {
		p := stem + suffix
		if err := writeFile(p, fn); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
		written = append(written, p)
		return nil
	}

	if opts.LedgerJSONL {
		if err := write("_ledger.jsonl", func(w io.Writer) error {
			return WriteLedgerJSONL(w, res.Transactions)
		}); err != nil {
			return written, err
		}
	}
	if opts.LedgerCSV {
		if err := write("_ledger.csv", func(w io.Writer) error {
			return WriteLedgerCSV(w, res.Transactions)
		}); err != nil {
			return written, err
		}
	}
	if opts.SummaryCSV {
		if err := write("_summary.csv", func(w io.Writer) error {
			return WriteSummaryCSV(w, symbol, res)
		}); err != nil {
			return written, err
		}
	}
	if opts.ChartPNG {
		img, err := RenderEquityChart(symbol, res)
		if err != nil {
			return written, err
		}
		if err := write("_equity.png", func(w io.Writer) error {
			_, err := w.Write(img)
			return err
		}); err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
