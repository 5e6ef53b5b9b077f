package types

import "time"

// DailyBar is one trading day of OHLC data. Date carries no time component.
type DailyBar struct {
	Date                   time.Time
	Open, High, Low, Close float64
	Volume                 float64
}

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

type OrderKind string

const (
	OrderLOC   OrderKind = "LOC"
	OrderLimit OrderKind = "LIMIT"
	OrderMOC   OrderKind = "MOC"
)

type Mode string

const (
	ModeNormal         Mode = "NORMAL"
	ModeQuarterLossCut Mode = "QUARTER_LOSS_CUT"
)

// Fill is the unrounded execution behind a ledger entry.
type Fill struct {
	Shares float64
	Price  float64
}

// Transaction is one executed order plus the post-trade portfolio snapshot.
// Quantities are rounded to 4 decimals and money to 2; Exact keeps the fill
// the engine actually applied.
type Transaction struct {
	Date            string    `json:"date"`
	Side            Side      `json:"side"`
	OrderKind       OrderKind `json:"orderKind"`
	Shares          float64   `json:"shares"`
	Price           float64   `json:"price"`
	Value           float64   `json:"value"`
	SharesHeldAfter float64   `json:"sharesHeldAfter"`
	AvgPriceAfter   float64   `json:"avgPriceAfter"`
	CashAfter       float64   `json:"cashAfter"`
	Note            string    `json:"note,omitempty"`
	Exact           Fill      `json:"-"`
}

// EquityPoint is the end-of-bar portfolio snapshot.
type EquityPoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Cash   float64 `json:"cash"`
	Shares float64 `json:"shares"`
	Value  float64 `json:"value"`
	Mode   Mode    `json:"mode"`
	T      float64 `json:"t"`
}

type RunStats struct {
	Bars           int     `json:"bars"`
	Buys           int     `json:"buys"`
	Sells          int     `json:"sells"`
	QLCEntries     int     `json:"qlcEntries"`
	QLCExits       int     `json:"qlcExits"`
	QLCCycles      int     `json:"qlcCycles"`
	PeakValue      float64 `json:"peakValue"`
	MaxDrawdownPct float64 `json:"maxDrawdownPct"`
}

type SimulationRequest struct {
	Bars       []DailyBar
	Investment float64
	StartDate  time.Time
	EndDate    time.Time
}

type SimulationResult struct {
	Transactions        []Transaction `json:"transactions"`
	InitialInvestment   float64       `json:"initialInvestment"`
	FinalCash           float64       `json:"finalCash"`
	FinalShares         float64       `json:"finalShares"`
	FinalPortfolioValue float64       `json:"finalPortfolioValue"`
	NetProfit           float64       `json:"netProfit"`
	NetProfitPercent    float64       `json:"netProfitPercent"`
	StartDate           string        `json:"startDate"`
	EndDate             string        `json:"endDate"`
	EquityCurve         []EquityPoint `json:"equityCurve"`
	Stats               RunStats      `json:"stats"`
}

// DateLayout is the calendar-day format used for every date string in results.
const DateLayout = "2006-01-02"
