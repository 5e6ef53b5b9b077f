package server

import (
	"errors"
	"net/http"
	"time"

	"dca-backtester/internal/engine"
	"dca-backtester/internal/engine/engineobs"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/ta"
	"dca-backtester/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleSimulation(c *gin.Context) {
	var params types.SimulationParams
	if err := c.ShouldBindJSON(&params); err != nil {
		abortWithError(c, http.StatusBadRequest, types.CodeInvalidParams, "Invalid request body", err)
		return
	}

	req, err := s.buildRequest(params)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, types.CodeInvalidParams, "Invalid parameters provided", err)
		return
	}

	runID := uuid.NewString()
	ctx := engineobs.WithRunID(c.Request.Context(), runID)
	res, err := s.sim.Run(ctx, req)
	if err != nil {
		status, code, msg := classify(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorWithErr(ctx, "Simulation request failed", err, "run_id", runID)
		}
		abortWithError(c, status, code, msg, err)
		return
	}

	c.JSON(http.StatusOK, types.SimulationResponse{RunID: runID, Result: res})
}

// buildRequest resolves omitted dates to the loaded data's range.
func (s *Server) buildRequest(p types.SimulationParams) (types.SimulationRequest, error) {
	lo, hi, _ := ta.DateRange(s.bars)
	req := types.SimulationRequest{
		Bars:       s.bars,
		Investment: p.Investment,
		StartDate:  lo,
		EndDate:    hi,
	}
	if p.StartDate != "" {
		t, err := time.Parse(types.DateLayout, p.StartDate)
		if err != nil {
			return req, errors.New("start_date must be YYYY-MM-DD")
		}
		req.StartDate = t
	}
	if p.EndDate != "" {
		t, err := time.Parse(types.DateLayout, p.EndDate)
		if err != nil {
			return req, errors.New("end_date must be YYYY-MM-DD")
		}
		req.EndDate = t
	}
	return req, nil
}

func classify(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, engine.ErrEmptyDateRange):
		return http.StatusUnprocessableEntity, types.CodeDataNotFound, "No historical data available for the selected period"
	case errors.Is(err, engine.ErrInvalidInvestment), errors.Is(err, engine.ErrInvalidDateRange):
		return http.StatusBadRequest, types.CodeInvalidParams, "Invalid parameters provided"
	default:
		return http.StatusInternalServerError, types.CodeExecutionFailed, "Simulation failed"
	}
}

func abortWithError(c *gin.Context, status int, code, msg string, err error) {
	apiErr := &types.APIError{Code: code, Message: msg}
	if err != nil {
		apiErr.Details = err.Error()
	}
	c.AbortWithStatusJSON(status, apiErr)
}
