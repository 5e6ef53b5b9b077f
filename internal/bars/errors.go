package bars

import "errors"

var (
	// ErrNoBars is returned when a source parses cleanly but yields no bars.
	ErrNoBars = errors.New("bars: no bars in source")

	// ErrMalformedRow wraps row-level parse failures; the wrapping error
	// names the row and column.
	ErrMalformedRow = errors.New("bars: malformed row")
)
