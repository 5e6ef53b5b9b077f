package types

import "fmt"

// SimulationParams is the HTTP request body for a run. Empty dates default
// to the edges of the loaded bar set.
type SimulationParams struct {
	Investment float64 `json:"investment"`
	StartDate  string  `json:"start_date,omitempty"`
	EndDate    string  `json:"end_date,omitempty"`
}

type SimulationResponse struct {
	RunID  string            `json:"run_id"`
	Result *SimulationResult `json:"result"`
}

type BarRangeResponse struct {
	Symbol  string `json:"symbol"`
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
	Count   int    `json:"count"`
}

// Error codes carried by APIError.
const (
	CodeInvalidParams   = "INVALID_PARAMS"
	CodeDataNotFound    = "DATA_NOT_FOUND"
	CodeExecutionFailed = "EXECUTION_FAILED"
)

// APIError is the JSON error body of the HTTP API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
