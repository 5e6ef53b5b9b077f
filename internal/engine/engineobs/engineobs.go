package engineobs

import (
	"context"
	"time"

	"dca-backtester/internal/interfaces"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/trace"
	"dca-backtester/internal/types"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type runIDKey struct{}

// WithRunID tags ctx with the ID the decorator reports for the run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run ID carried by ctx, if any.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

type observableSimulator struct {
	sim interfaces.Simulator
}

var _ interfaces.Simulator = (*observableSimulator)(nil)

func Wrap(sim interfaces.Simulator) interfaces.Simulator {
	return &observableSimulator{
		sim: sim,
	}
}

func (o *observableSimulator) Run(ctx context.Context, req types.SimulationRequest) (*types.SimulationResult, error) {
	runID := RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = WithRunID(ctx, runID)
	}

	ctx, span := trace.StartSpan(ctx, "engine.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runID),
		attribute.Float64("investment", req.Investment),
		attribute.Int("bars_supplied", len(req.Bars)),
	)

	start := time.Now()
	logger.InfoSkip(ctx, 1, "Simulation started",
		"run_id", runID,
		"investment", req.Investment,
		"start_date", req.StartDate.Format(types.DateLayout),
		"end_date", req.EndDate.Format(types.DateLayout),
	)

	result, err := o.sim.Run(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Simulation failed", err,
			"run_id", runID,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("transactions", len(result.Transactions)),
		attribute.Float64("net_profit", result.NetProfit),
	)
	logger.InfoSkip(ctx, 1, "Simulation completed",
		"run_id", runID,
		"bars", result.Stats.Bars,
		"transactions", len(result.Transactions),
		"final_value", result.FinalPortfolioValue,
		"net_profit_pct", result.NetProfitPercent,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return result, nil
}
