// Package agg has aggregation logic for contribution series data.
package agg

import (
	"fmt"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// Aggregate rolls a member's daily records up into period buckets over the
// half-open range [rng.Start, rng.End). Every bucket in the range appears in
// the output: periods without activity carry zero in interval mode and repeat
// the running total in cumulative mode. Cumulative totals accumulate from
// rng.Start, not from the beginning of history.
//
// A member with no records inside the range yields all-zero buckets, so series
// over equal ranges always have equal length.
func Aggregate(memberID string, records []schema.ContributionRecord, rng schema.DateRange, granularity schema.Granularity, mode schema.ValueMode) (*schema.AggregatedSeries, error) {
	if err := validateInputs(rng, granularity, mode); err != nil {
		return nil, err
	}

	series := &schema.AggregatedSeries{
		MemberID:    memberID,
		Granularity: granularity,
		ValueMode:   mode,
	}

	totals := sumIntoBuckets(records, rng, granularity)

	// Walk every bucket in the range so gaps are filled deterministically,
	// including when no record falls inside the range at all.
	var running int64
	for start := BucketStart(rng.Start, granularity); start.Before(rng.End); start = NextBucket(start, granularity) {
		running += totals[start]

		value := totals[start]
		if mode == schema.Cumulative {
			value = running
		}
		series.Points = append(series.Points, schema.SeriesPoint{
			PeriodStart: start,
			Value:       value,
		})
	}

	return series, nil
}

// validateInputs rejects malformed aggregation parameters before any
// computation runs.
func validateInputs(rng schema.DateRange, granularity schema.Granularity, mode schema.ValueMode) error {
	if !rng.IsValid() {
		return fmt.Errorf("%w: range start %s must be before end %s",
			contract.ErrInvalidConfiguration, rng.Start.Format(schema.DayFormat), rng.End.Format(schema.DayFormat))
	}
	if _, ok := schema.ValidGranularities[granularity]; !ok {
		return fmt.Errorf("%w: unknown granularity %q", contract.ErrInvalidConfiguration, granularity)
	}
	if _, ok := schema.ValidValueModes[mode]; !ok {
		return fmt.Errorf("%w: unknown value mode %q", contract.ErrInvalidConfiguration, mode)
	}
	return nil
}

// sumIntoBuckets accumulates in-range record deltas keyed by bucket start.
// Records outside the range are ignored, which is what makes cumulative
// totals range-relative.
func sumIntoBuckets(records []schema.ContributionRecord, rng schema.DateRange, granularity schema.Granularity) map[time.Time]int64 {
	totals := make(map[time.Time]int64)
	for _, rec := range records {
		if !rng.Contains(rec.Date) {
			continue
		}
		totals[BucketStart(rec.Date, granularity)] += rec.Points
	}
	return totals
}

// BucketStart maps a point in time to the UTC start of its period bucket.
// Weeks start on Monday, months on the 1st, years on January 1st.
func BucketStart(t time.Time, granularity schema.Granularity) time.Time {
	day := contract.Day(t)
	switch granularity {
	case schema.Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case schema.Monthly:
		return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	case schema.Yearly:
		return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// NextBucket advances a bucket start to the start of the following period.
func NextBucket(start time.Time, granularity schema.Granularity) time.Time {
	switch granularity {
	case schema.Weekly:
		return start.AddDate(0, 0, 7)
	case schema.Monthly:
		return start.AddDate(0, 1, 0)
	case schema.Yearly:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// PeriodLength returns the nominal duration of one bucket at the given
// granularity, anchored at start. Months and years vary, so the length is
// computed from the calendar rather than a constant.
func PeriodLength(start time.Time, granularity schema.Granularity) time.Duration {
	return NextBucket(start, granularity).Sub(start)
}
