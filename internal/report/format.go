package report

import "github.com/shopspring/decimal"

func fmtMoney(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

func fmtShares(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(4)
}

func fmtPct(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2) + "%"
}
