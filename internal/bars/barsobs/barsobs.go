package barsobs

import (
	"context"
	"time"

	"dca-backtester/internal/interfaces"
	"dca-backtester/internal/logger"
	"dca-backtester/internal/ta"
	"dca-backtester/internal/trace"
	"dca-backtester/internal/types"

	"go.opentelemetry.io/otel/attribute"
)

type observableSource struct {
	src interfaces.BarSource
}

var _ interfaces.BarSource = (*observableSource)(nil)

func Wrap(src interfaces.BarSource) interfaces.BarSource {
	return &observableSource{
		src: src,
	}
}

// Unwrap returns the decorated source.
func (o *observableSource) Unwrap() interfaces.BarSource {
	return o.src
}

func (o *observableSource) Name() string {
	return o.src.Name()
}

func (o *observableSource) Load(ctx context.Context) ([]types.DailyBar, error) {
	ctx, span := trace.StartSpan(ctx, "bars.Load")
	defer span.End()
	span.SetAttributes(attribute.String("source", o.src.Name()))

	start := time.Now()
	bars, err := o.src.Load(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Bar load failed", err,
			"source", o.src.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	span.SetAttributes(attribute.Int("bars", len(bars)))
	fields := []any{
		"source", o.src.Name(),
		"bars", len(bars),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if lo, hi, ok := ta.DateRange(bars); ok {
		fields = append(fields, "min_date", lo.Format(types.DateLayout), "max_date", hi.Format(types.DateLayout))
	}
	logger.InfoSkip(ctx, 1, "Bars loaded", fields...)

	return bars, nil
}
