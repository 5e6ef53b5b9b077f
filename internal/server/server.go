package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"dca-backtester/internal/interfaces"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/ta"
	"dca-backtester/internal/types"

	"github.com/gin-gonic/gin"
)

// Server exposes the simulator over HTTP against one loaded bar set. The
// bars are shared read-only across requests; every request runs a fresh
// simulation.
type Server struct {
	sim    interfaces.Simulator
	bars   []types.DailyBar
	symbol string
	router *gin.Engine
}

// Option configures a Server
type Option func(*Server)

// WithSymbol sets the instrument name reported by the API
func WithSymbol(symbol string) Option {
	return func(s *Server) {
		s.symbol = symbol
	}
}

func New(sim interfaces.Simulator, bars []types.DailyBar, opts ...Option) *Server {
	s := &Server{
		sim:  sim,
		bars: bars,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	s.setupRoutes(r)
	s.router = r
	return s
}

func (s *Server) setupRoutes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealthCheck)
	api := r.Group("/api/v1")
	{
		api.POST("/simulations", s.handleSimulation)
		api.GET("/bars/range", s.handleBarRange)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", addr, "symbol", s.symbol, "bars", len(s.bars))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info(context.Background(), "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"bars":      len(s.bars),
	})
}

func (s *Server) handleBarRange(c *gin.Context) {
	resp := types.BarRangeResponse{Symbol: s.symbol, Count: len(s.bars)}
	if lo, hi, ok := ta.DateRange(s.bars); ok {
		resp.MinDate = lo.Format(types.DateLayout)
		resp.MaxDate = hi.Format(types.DateLayout)
	}
	c.JSON(http.StatusOK, resp)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
