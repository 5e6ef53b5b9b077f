package bars

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"dca-backtester/internal/types"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVSource reads daily bars from a CSV export. Columns are located by
// header name when a header row is present, else taken positionally as
// date,open,high,low,close[,volume].
type CSVSource struct {
	Path string
}

func (s *CSVSource) Name() string { return "csv:" + s.Path }

func (s *CSVSource) Load(ctx context.Context) ([]types.DailyBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

type csvColumns struct {
	date, open, high, low, close, volume int
}

var positional = csvColumns{date: 0, open: 1, high: 2, low: 3, close: 4, volume: 5}

// ReadCSV parses bars from r. UTF-16 input with a BOM is decoded; a UTF-8
// BOM is dropped.
func ReadCSV(r io.Reader) ([]types.DailyBar, error) {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) == 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		tr := transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		br = bufio.NewReader(tr)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	cols := positional
	var out []types.DailyBar
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, row, err)
		}
		if row == 1 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			if hdr, ok := headerColumns(rec); ok {
				cols = hdr
				continue
			}
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		bar, ok, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, row, err)
		}
		if ok {
			out = append(out, bar)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoBars
	}
	return out, nil
}

// headerColumns maps a header row. It reports false when rec looks like data.
func headerColumns(rec []string) (csvColumns, bool) {
	cols := csvColumns{date: -1, open: -1, high: -1, low: -1, close: -1, volume: -1}
	for i, name := range rec {
		switch strings.ToLower(strings.TrimSpace(strings.Trim(name, `"`))) {
		case "date", "timestamp", "timestamp_ms", "time":
			cols.date = i
		case "open":
			cols.open = i
		case "high":
			cols.high = i
		case "low":
			cols.low = i
		case "close":
			cols.close = i
		case "volume":
			cols.volume = i
		}
	}
	if cols.date < 0 && cols.close < 0 {
		return positional, false
	}
	return cols, true
}

// parseRecord reports ok=false for sessions with no close, which some
// exports emit as "null" rows.
func parseRecord(rec []string, cols csvColumns) (types.DailyBar, bool, error) {
	cell := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return rec[i]
	}
	if cols.date < 0 || cols.close < 0 || cols.date >= len(rec) || cols.close >= len(rec) {
		return types.DailyBar{}, false, fmt.Errorf("expected date and close columns, got %d fields", len(rec))
	}

	date, err := parseDate(rec[cols.date])
	if err != nil {
		return types.DailyBar{}, false, fmt.Errorf("date: %v", err)
	}
	closePx, ok, err := parsePrice(cell(cols.close))
	if err != nil {
		return types.DailyBar{}, false, fmt.Errorf("close: %v", err)
	}
	if !ok {
		return types.DailyBar{}, false, nil
	}

	bar := types.DailyBar{Date: date, Open: closePx, High: closePx, Low: closePx, Close: closePx}
	for _, f := range []struct {
		name string
		idx  int
		dst  *float64
	}{
		{"open", cols.open, &bar.Open},
		{"high", cols.high, &bar.High},
		{"low", cols.low, &bar.Low},
		{"volume", cols.volume, &bar.Volume},
	} {
		v, ok, err := parsePrice(cell(f.idx))
		if err != nil {
			return types.DailyBar{}, false, fmt.Errorf("%s: %v", f.name, err)
		}
		if ok {
			*f.dst = v
		}
	}
	return bar, true, nil
}
