package forecast

import (
	"github.com/farmsight/farmsight/schema"
)

// LinearRegression fits an ordinary least squares line through the observed
// values, indexed 0..n-1, and extrapolates it over the horizon.
type LinearRegression struct{}

// Name implements the Strategy interface.
func (s *LinearRegression) Name() schema.Strategy {
	return schema.LinearRegression
}

// Predict implements the Strategy interface. A single-point series has no
// slope to fit, so the forecast stays flat at the last observed value.
func (s *LinearRegression) Predict(series *schema.AggregatedSeries, horizon int) ([]schema.ForecastPoint, error) {
	n := len(series.Points)
	if n == 0 {
		return []schema.ForecastPoint{}, nil
	}

	points := futureStarts(series, horizon)

	if n == 1 {
		flat := float64(series.Points[0].Value)
		for i := range points {
			points[i].Value = flat
		}
		return points, nil
	}

	slope, intercept := fitLine(series.Points)
	for i := range points {
		x := float64(n + i)
		points[i].Value = slope*x + intercept
	}
	return points, nil
}

// fitLine computes the OLS slope and intercept over values indexed 0..n-1.
// The x variance is nonzero for any series of two or more points, so the
// denominator never vanishes here.
func fitLine(observed []schema.SeriesPoint) (slope, intercept float64) {
	n := float64(len(observed))

	var sumX, sumY, sumXY, sumXX float64
	for i, p := range observed {
		x := float64(i)
		y := float64(p.Value)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}
