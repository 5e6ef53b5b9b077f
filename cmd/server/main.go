package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dca-backtester/internal/bars"
	"dca-backtester/internal/engine"
	"dca-backtester/internal/engine/engineobs"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/server"
	"dca-backtester/internal/store"
	"dca-backtester/internal/trace"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default $BACKTEST_CONFIG)")
	addr := flag.String("addr", "", "listen address, overrides server.addr")
	flag.Parse()

	_ = godotenv.Load()
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *configPath, *addr)
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	_ = trace.Shutdown(shutdownCtx)
	stop()

	if err != nil {
		logger.ErrorWithErr(context.Background(), "Server failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, addr string) error {
	cfg, err := store.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	src, err := bars.NewSource(cfg)
	if err != nil {
		return err
	}
	series, err := src.Load(ctx)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(engineobs.Wrap(engine.New()), series, server.WithSymbol(cfg.Symbol))
	return srv.Run(ctx, cfg.Server.Addr)
}
