package engine

import "dca-backtester/internal/types"

// modeState is the strategy mode. The QLC counters live on quarterLossCut
// and are unreachable while the portfolio is in normalMode.
type modeState interface {
	kind() types.Mode
}

type normalMode struct{}

func (normalMode) kind() types.Mode { return types.ModeNormal }

type quarterLossCut struct {
	purchaseCount         int
	cycleInvestment       float64
	purchaseAttemptAmount float64
}

func (quarterLossCut) kind() types.Mode { return types.ModeQuarterLossCut }

// newQuarterLossCut starts a QLC cycle funded by the cash on hand.
func newQuarterLossCut(cash float64) quarterLossCut {
	return quarterLossCut{
		cycleInvestment:       cash,
		purchaseAttemptAmount: cash / qlcPurchaseLimit,
	}
}
