package bars

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"dca-backtester/internal/ta"
	"dca-backtester/internal/types"

	"github.com/ClickHouse/clickhouse-go/v2"
	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite     = "sqlite3"
	DriverClickHouse = "clickhouse"
)

var (
	tableName  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	columnName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// SQLSource reads bars from a table with columns date, open, high, low,
// close and volume. Rows are filtered on SymbolColumn = Symbol only when
// both are set; single-instrument tables leave SymbolColumn empty.
type SQLSource struct {
	Driver       string
	DSN          string
	Table        string
	SymbolColumn string
	Symbol       string
}

func (s *SQLSource) Name() string { return s.Driver + ":" + s.Table }

// OpenDB opens a database/sql handle for driver. ClickHouse DSNs are parsed
// with the native driver's option parser.
func OpenDB(driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		return sql.Open(DriverSQLite, dsn)
	case DriverClickHouse:
		opts, err := clickhouse.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse DSN: %w", err)
		}
		return clickhouse.OpenDB(opts), nil
	default:
		return nil, fmt.Errorf("unsupported driver '%s'", driver)
	}
}

func (s *SQLSource) Load(ctx context.Context) ([]types.DailyBar, error) {
	db, err := OpenDB(s.Driver, s.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return QueryBars(ctx, db, s.Table, s.SymbolColumn, s.Symbol)
}

// QueryBars selects the bars in table, oldest first. With a symbol column
// and symbol it keeps only that instrument's rows.
func QueryBars(ctx context.Context, db *sql.DB, table, symbolColumn, symbol string) ([]types.DailyBar, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name '%s'", table)
	}
	q := fmt.Sprintf("SELECT date, open, high, low, close, volume FROM %s", table)
	var args []any
	if symbolColumn != "" && symbol != "" {
		if !columnName.MatchString(symbolColumn) {
			return nil, fmt.Errorf("invalid symbol column '%s'", symbolColumn)
		}
		q += fmt.Sprintf(" WHERE %s = ?", symbolColumn)
		args = append(args, symbol)
	}
	q += " ORDER BY date"

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var out []types.DailyBar
	for row := 1; rows.Next(); row++ {
		var (
			rawDate any
			bar     types.DailyBar
			volume  sql.NullFloat64
		)
		if err := rows.Scan(&rawDate, &bar.Open, &bar.High, &bar.Low, &bar.Close, &volume); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedRow, row, err)
		}
		date, err := dateValue(rawDate)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: date: %v", ErrMalformedRow, row, err)
		}
		bar.Date = date
		bar.Volume = volume.Float64
		out = append(out, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}

	if len(out) == 0 {
		return nil, ErrNoBars
	}
	return out, nil
}

// dateValue normalizes what the drivers hand back for a date column: text in
// SQLite, time.Time from ClickHouse Date/DateTime, or an integer timestamp.
func dateValue(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return ta.Day(d), nil
	case string:
		return parseDate(d)
	case []byte:
		return parseDate(string(d))
	case int64:
		return unixDay(d), nil
	case nil:
		return time.Time{}, fmt.Errorf("null date")
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", v)
	}
}
