package interfaces

import (
	"context"

	"dca-backtester/internal/types"
)

// BarSource loads a daily bar series for a single instrument.
type BarSource interface {
	Name() string
	Load(ctx context.Context) ([]types.DailyBar, error)
}
