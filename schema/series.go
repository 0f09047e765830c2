package schema

import "time"

// SeriesPoint is a single bucket of an aggregated series.
type SeriesPoint struct {
	PeriodStart time.Time `json:"period_start"`
	Value       int64     `json:"value"`
}

// AggregatedSeries is a derived, never-persisted view of a member's daily
// records, bucketed by granularity. Series covering the same range and
// granularity always have the same length regardless of gaps in the raw
// records.
type AggregatedSeries struct {
	MemberID    string        `json:"member_id"`
	Granularity Granularity   `json:"granularity"`
	ValueMode   ValueMode     `json:"value_mode"`
	Points      []SeriesPoint `json:"points"`
}

// Last returns the final point of the series, and false when it is empty.
func (s AggregatedSeries) Last() (SeriesPoint, bool) {
	if len(s.Points) == 0 {
		return SeriesPoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// ForecastPoint is a single projected bucket.
type ForecastPoint struct {
	PeriodStart time.Time `json:"period_start"`
	Value       float64   `json:"value"`
}

// ForecastResult pairs the observed series with its projection.
type ForecastResult struct {
	MemberID string           `json:"member_id"`
	Strategy Strategy         `json:"strategy"`
	Observed AggregatedSeries `json:"observed"`
	Points   []ForecastPoint  `json:"points"`
}
