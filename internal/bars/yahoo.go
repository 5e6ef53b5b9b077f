package bars

import (
	"context"
	"fmt"
	"os"

	"dca-backtester/internal/types"

	"github.com/tidwall/gjson"
)

// YahooJSONSource reads a saved Yahoo Finance v8 chart response.
type YahooJSONSource struct {
	Path string
}

func (s *YahooJSONSource) Name() string { return "yahoo-json:" + s.Path }

func (s *YahooJSONSource) Load(ctx context.Context) ([]types.DailyBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	body, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return ParseYahooChart(body)
}

// ParseYahooChart extracts daily bars from a v8 chart payload. Points with a
// null or zero close are skipped; missing open/high/low fall back to close.
func ParseYahooChart(body []byte) ([]types.DailyBar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedRow)
	}
	if e := gjson.GetBytes(body, "chart.error.description"); e.Exists() && e.String() != "" {
		return nil, fmt.Errorf("yahoo chart error: %s", e.String())
	}

	result := gjson.GetBytes(body, "chart.result.0")
	ts := result.Get("timestamp")
	if !ts.Exists() || !ts.IsArray() {
		return nil, ErrNoBars
	}
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	at := func(arr []gjson.Result, i int) (float64, bool) {
		if i >= len(arr) || arr[i].Type != gjson.Number {
			return 0, false
		}
		return arr[i].Float(), true
	}

	stamps := ts.Array()
	out := make([]types.DailyBar, 0, len(stamps))
	for i, stamp := range stamps {
		c, ok := at(closes, i)
		if !ok || c == 0 {
			continue
		}
		bar := types.DailyBar{Date: unixDay(stamp.Int()), Open: c, High: c, Low: c, Close: c}
		if v, ok := at(opens, i); ok {
			bar.Open = v
		}
		if v, ok := at(highs, i); ok {
			bar.High = v
		}
		if v, ok := at(lows, i); ok {
			bar.Low = v
		}
		if v, ok := at(volumes, i); ok {
			bar.Volume = v
		}
		out = append(out, bar)
	}

	if len(out) == 0 {
		return nil, ErrNoBars
	}
	return out, nil
}
