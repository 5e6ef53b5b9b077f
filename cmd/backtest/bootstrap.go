package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"dca-backtester/internal/bars"
	"dca-backtester/internal/engine"
	"dca-backtester/internal/engine/engineobs"
	"dca-backtester/internal/interfaces"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/store"
	"dca-backtester/internal/trace"
	"dca-backtester/internal/types"

	"github.com/joho/godotenv"
)

// initializeSystem loads .env and initializes the logger and tracer
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func shutdownTracer() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = trace.Shutdown(ctx)
}

// overrides are the command-line values that take precedence over the
// config file. Zero values leave the config untouched.
type overrides struct {
	investment float64
	start, end string
	data       string
	out        string
	chart      bool
}

// loadConfig reads the config, applies flag overrides and validates the
// result. Remote runs skip the local data-source checks.
func loadConfig(ctx context.Context, path string, o overrides, remote bool) (*store.Config, error) {
	cfg, err := store.ReadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}

	if o.investment != 0 {
		cfg.Investment = o.investment
	}
	if o.start != "" {
		cfg.StartDate = o.start
	}
	if o.end != "" {
		cfg.EndDate = o.end
	}
	if o.data != "" {
		cfg.Data.Path = o.data
	}
	if o.out != "" {
		cfg.Output.Dir = o.out
	}
	if o.chart {
		cfg.Output.ChartPNG = true
	}

	if remote {
		return cfg, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// clampToRange narrows the configured dates to the bars a server holds and
// adopts the server's symbol. A range entirely outside the server's data is
// an error naming the available dates.
func clampToRange(cfg *store.Config, rng *types.BarRangeResponse) error {
	if rng.Count == 0 || rng.MinDate == "" || rng.MaxDate == "" {
		return fmt.Errorf("server has no bars loaded")
	}
	if cfg.EndDate < rng.MinDate || cfg.StartDate > rng.MaxDate {
		return fmt.Errorf("requested %s..%s is outside the server's data %s..%s",
			cfg.StartDate, cfg.EndDate, rng.MinDate, rng.MaxDate)
	}
	if cfg.StartDate < rng.MinDate {
		cfg.StartDate = rng.MinDate
	}
	if cfg.EndDate > rng.MaxDate {
		cfg.EndDate = rng.MaxDate
	}
	if rng.Symbol != "" {
		cfg.Symbol = rng.Symbol
	}
	return nil
}

// loadBars reads the configured bar source through its observability wrapper
func loadBars(ctx context.Context, cfg *store.Config) ([]types.DailyBar, error) {
	src, err := bars.NewSource(cfg)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

// initializeSimulator returns the engine wrapped with observability
func initializeSimulator() interfaces.Simulator {
	return engineobs.Wrap(engine.New())
}

func buildRequest(cfg *store.Config, series []types.DailyBar) (types.SimulationRequest, error) {
	start, err := cfg.Start()
	if err != nil {
		return types.SimulationRequest{}, err
	}
	end, err := cfg.End()
	if err != nil {
		return types.SimulationRequest{}, err
	}
	return types.SimulationRequest{
		Bars:       series,
		Investment: cfg.Investment,
		StartDate:  start,
		EndDate:    end,
	}, nil
}
