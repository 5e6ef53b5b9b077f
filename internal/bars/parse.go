package bars

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dca-backtester/internal/ta"
	"dca-backtester/internal/types"
)

// unixMillisCutoff separates unix seconds from milliseconds. Seconds only
// pass it in the year 5138.
const unixMillisCutoff = 100_000_000_000

var dateLayouts = []string{
	types.DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// parseDate accepts a calendar date, a datetime, or a unix timestamp in
// seconds or milliseconds. The result is the UTC day.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ta.Day(t), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	return unixDay(n), nil
}

func unixDay(n int64) time.Time {
	if n >= unixMillisCutoff {
		return ta.Day(time.UnixMilli(n))
	}
	return ta.Day(time.Unix(n, 0))
}

// parsePrice parses a numeric cell. ok is false for the empty and "null"
// cells some exports use for missing sessions.
func parsePrice(s string) (v float64, ok bool, err error) {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" || strings.EqualFold(s, "null") {
		return 0, false, nil
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
