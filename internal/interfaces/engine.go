package interfaces

import (
	"context"

	"dca-backtester/internal/types"
)

type Simulator interface {
	Run(ctx context.Context, req types.SimulationRequest) (*types.SimulationResult, error)
}
