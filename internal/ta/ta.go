package ta

import (
	"sort"
	"time"

	"dca-backtester/internal/types"
)

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FilterRange returns the bars whose day falls in [start, end], sorted by
// date. The input slice is not modified.
func FilterRange(bars []types.DailyBar, start, end time.Time) []types.DailyBar {
	lo, hi := Day(start), Day(end)
	out := make([]types.DailyBar, 0, len(bars))
	for _, b := range bars {
		d := Day(b.Date)
		if d.Before(lo) || d.After(hi) {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DateRange returns the earliest and latest bar dates.
func DateRange(bars []types.DailyBar) (min, max time.Time, ok bool) {
	if len(bars) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = bars[0].Date, bars[0].Date
	for _, b := range bars[1:] {
		if b.Date.Before(min) {
			min = b.Date
		}
		if b.Date.After(max) {
			max = b.Date
		}
	}
	return Day(min), Day(max), true
}

// MaxDrawdown returns the peak value and the largest peak-to-trough decline
// in percent.
func MaxDrawdown(vals []float64) (peak, ddPct float64) {
	for _, v := range vals {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak * 100; dd > ddPct {
				ddPct = dd
			}
		}
	}
	return peak, ddPct
}
