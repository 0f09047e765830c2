// Package forecast has prediction strategies for contribution series.
package forecast

import (
	"fmt"

	"github.com/farmsight/farmsight/core/agg"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// Strategy produces future points for an observed series. Implementations are
// deterministic: the same series and horizon always yield the same forecast.
type Strategy interface {
	// Name identifies the strategy in output and audit rows.
	Name() schema.Strategy

	// Predict returns horizon future points following the observed series.
	// An empty series yields an empty forecast, never an error.
	Predict(series *schema.AggregatedSeries, horizon int) ([]schema.ForecastPoint, error)
}

// ForStrategy returns the configured prediction strategy.
func ForStrategy(cfg *contract.Config) (Strategy, error) {
	switch cfg.Strategy {
	case schema.LinearRegression:
		return &LinearRegression{}, nil
	case schema.MovingAverage:
		return NewMovingAverage(cfg.MAWindow)
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", contract.ErrInvalidConfiguration, cfg.Strategy)
	}
}

// Run applies a strategy to a series and wraps the outcome for output.
func Run(strategy Strategy, series *schema.AggregatedSeries, horizon int) (*schema.ForecastResult, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("%w: horizon must be at least 1 (received %d)", contract.ErrInvalidConfiguration, horizon)
	}

	points, err := strategy.Predict(series, horizon)
	if err != nil {
		return nil, err
	}

	return &schema.ForecastResult{
		MemberID: series.MemberID,
		Strategy: strategy.Name(),
		Observed: *series,
		Points:   points,
	}, nil
}

// futureStarts returns the period starts for the horizon buckets that follow
// the observed series.
func futureStarts(series *schema.AggregatedSeries, horizon int) []schema.ForecastPoint {
	points := make([]schema.ForecastPoint, 0, horizon)
	last, ok := series.Last()
	if !ok {
		return points
	}

	start := last.PeriodStart
	for i := 0; i < horizon; i++ {
		start = agg.NextBucket(start, series.Granularity)
		points = append(points, schema.ForecastPoint{PeriodStart: start})
	}
	return points
}
