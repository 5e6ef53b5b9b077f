package report

import (
	"errors"
	"fmt"

	"dca-backtester/internal/types"

	"github.com/vicanso/go-charts/v2"
)

// RenderEquityChart draws the portfolio value against buying and holding
// the whole investment at the first close. It returns PNG bytes.
func RenderEquityChart(symbol string, res *types.SimulationResult) ([]byte, error) {
	curve := res.EquityCurve
	if len(curve) == 0 {
		return nil, errors.New("no equity curve to chart")
	}

	xLabels := make([]string, len(curve))
	values := make([]float64, len(curve))
	hold := make([]float64, len(curve))
	first := curve[0].Close
	for i, pt := range curve {
		xLabels[i] = pt.Date
		values[i] = pt.Value
		if first > 0 {
			hold[i] = res.InitialInvestment / first * pt.Close
		}
	}

	minVal, maxVal := values[0], values[0]
	for _, series := range [][]float64{values, hold} {
		for _, v := range series {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	yMin := minVal - padding
	yMax := maxVal + padding

	splitNum := 6
	if len(xLabels) <= 30 {
		splitNum = len(xLabels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	title := fmt.Sprintf("%s graduated DCA", symbol)
	subtitle := fmt.Sprintf("Return: %s | MaxDD: %s | %s .. %s",
		fmtPct(res.NetProfitPercent), fmtPct(res.Stats.MaxDrawdownPct), res.StartDate, res.EndDate)

	p, err := charts.LineRender(
		[][]float64{values, hold},
		charts.TitleTextOptionFunc(title, subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        xLabels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.LegendOptionFunc(charts.LegendOption{Data: []string{"Strategy", "Buy & hold"}}),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(600),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
