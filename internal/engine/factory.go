package engine

import "dca-backtester/internal/interfaces"

func New() interfaces.Simulator {
	return newEngine()
}
