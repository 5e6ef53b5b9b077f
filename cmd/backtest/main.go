package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"dca-backtester/internal/api"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/report"
	"dca-backtester/internal/store"
	"dca-backtester/internal/types"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $BACKTEST_CONFIG)")
	investment := flag.Float64("investment", 0, "initial investment, overrides config")
	start := flag.String("start", "", "first day to simulate, YYYY-MM-DD")
	end := flag.String("end", "", "last day to simulate, YYYY-MM-DD")
	data := flag.String("data", "", "bar data file, overrides data.path")
	out := flag.String("out", "", "output directory, overrides output.dir")
	chart := flag.Bool("chart", false, "write the equity chart PNG")
	quiet := flag.Bool("quiet", false, "print the summary without the ledger")
	remote := flag.String("remote", "", "run on a backtest server at this base URL instead of locally")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *configPath, overrides{
		investment: *investment,
		start:      *start,
		end:        *end,
		data:       *data,
		out:        *out,
		chart:      *chart,
	}, *remote, *quiet)
	cancel()
	shutdownTracer()

	if err != nil {
		logger.ErrorWithErr(context.Background(), "Backtest failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, o overrides, remote string, quiet bool) error {
	cfg, err := loadConfig(ctx, configPath, o, remote != "")
	if err != nil {
		return err
	}

	var res *types.SimulationResult
	if remote != "" {
		res, err = runRemote(ctx, remote, cfg)
	} else {
		res, err = runLocal(ctx, cfg)
	}
	if err != nil {
		return err
	}

	if err := report.WriteSummaryText(os.Stdout, cfg.Symbol, res, !quiet); err != nil {
		return err
	}

	opts := report.Options{
		LedgerJSONL: cfg.Output.LedgerJSONL,
		LedgerCSV:   cfg.Output.LedgerCSV,
		SummaryCSV:  cfg.Output.SummaryCSV,
		ChartPNG:    cfg.Output.ChartPNG,
	}
	op := logger.StartOperation(ctx, "report.Export", "dir", cfg.Output.Dir)
	paths, err := report.ExportAll(cfg.Output.Dir, cfg.Symbol, res, opts)
	if err != nil {
		op.EndWithError(err, "files", len(paths))
		return err
	}
	for _, p := range paths {
		logger.Debug(op.Context(), "Output written", "path", p)
	}
	op.End("files", len(paths))
	return nil
}

func runLocal(ctx context.Context, cfg *store.Config) (*types.SimulationResult, error) {
	series, err := loadBars(ctx, cfg)
	if err != nil {
		return nil, err
	}
	req, err := buildRequest(cfg, series)
	if err != nil {
		return nil, err
	}
	return initializeSimulator().Run(ctx, req)
}

func runRemote(ctx context.Context, baseURL string, cfg *store.Config) (*types.SimulationResult, error) {
	client := api.NewClient(baseURL, api.WithLogging(true))

	rng, err := client.BarRange(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch server bar range: %w", err)
	}
	if err := clampToRange(cfg, rng); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Remote bar range",
		"server", baseURL,
		"symbol", rng.Symbol,
		"min_date", rng.MinDate,
		"max_date", rng.MaxDate,
		"start", cfg.StartDate,
		"end", cfg.EndDate,
	)

	resp, err := client.RunSimulation(ctx, types.SimulationParams{
		Investment: cfg.Investment,
		StartDate:  cfg.StartDate,
		EndDate:    cfg.EndDate,
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Remote simulation completed", "server", baseURL, "run_id", resp.RunID)
	return resp.Result, nil
}
