package forecast

import (
	"fmt"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// MovingAverage predicts each future point as the mean of the trailing
// window. Predictions feed back into the window, so a long horizon decays
// toward a steady value instead of repeating the first prediction.
type MovingAverage struct {
	Window int
}

// NewMovingAverage validates the window size.
func NewMovingAverage(window int) (*MovingAverage, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: moving-average window must be at least 1 (received %d)", contract.ErrInvalidConfiguration, window)
	}
	return &MovingAverage{Window: window}, nil
}

// Name implements the Strategy interface.
func (s *MovingAverage) Name() schema.Strategy {
	return schema.MovingAverage
}

// Predict implements the Strategy interface. A window longer than the
// observed series is clamped to the series length.
func (s *MovingAverage) Predict(series *schema.AggregatedSeries, horizon int) ([]schema.ForecastPoint, error) {
	if s.Window < 1 {
		return nil, fmt.Errorf("%w: moving-average window must be at least 1 (received %d)", contract.ErrInvalidConfiguration, s.Window)
	}

	n := len(series.Points)
	if n == 0 {
		return []schema.ForecastPoint{}, nil
	}

	window := s.Window
	if window > n {
		window = n
	}

	working := make([]float64, 0, n+horizon)
	for _, p := range series.Points {
		working = append(working, float64(p.Value))
	}

	points := futureStarts(series, horizon)
	for i := range points {
		var sum float64
		for _, v := range working[len(working)-window:] {
			sum += v
		}
		next := sum / float64(window)
		points[i].Value = next
		working = append(working, next)
	}
	return points, nil
}
