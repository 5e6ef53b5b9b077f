package bars

import (
	"fmt"

	"dca-backtester/internal/bars/barsobs"
	"dca-backtester/internal/interfaces"
	"dca-backtester/internal/store"
)

// NewSource builds the bar source selected by data.source, wrapped with
// logging and tracing.
func NewSource(cfg *store.Config) (interfaces.BarSource, error) {
	var src interfaces.BarSource
	switch cfg.Data.Source {
	case store.SourceCSV:
		src = &CSVSource{Path: cfg.Data.Path}
	case store.SourceJSON:
		src = &YahooJSONSource{Path: cfg.Data.Path}
	case store.SourceSQLite:
		src = &SQLSource{
			Driver:       DriverSQLite,
			DSN:          cfg.Data.DSN,
			Table:        cfg.Data.Table,
			SymbolColumn: cfg.Data.SymbolColumn,
			Symbol:       cfg.Symbol,
		}
	case store.SourceClickHouse:
		src = &SQLSource{
			Driver:       DriverClickHouse,
			DSN:          cfg.Data.DSN,
			Table:        cfg.Data.Table,
			SymbolColumn: cfg.Data.SymbolColumn,
			Symbol:       cfg.Symbol,
		}
	default:
		return nil, fmt.Errorf("unknown data source '%s'", cfg.Data.Source)
	}
	return barsobs.Wrap(src), nil
}
