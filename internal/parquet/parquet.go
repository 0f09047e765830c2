// Package parquet provides data structures and functions for exporting
// compliance data to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/farmsight/farmsight/schema"
)

// VerdictRow is one recorded milestone verdict, flattened for export.
// This struct maps to the milestone_states database table.
type VerdictRow struct {
	MemberID    string    `parquet:"member_id,snappy"`
	WindowKind  string    `parquet:"window_kind,snappy"`
	WindowStart time.Time `parquet:"window_start,snappy"`
	WindowSeq   int32     `parquet:"window_seq,snappy"`
	WindowEnd   time.Time `parquet:"window_end,snappy"`
	Threshold   int64     `parquet:"threshold,snappy"`
	Points      int64     `parquet:"points,snappy"`
	Computed    string    `parquet:"computed,snappy"`

	// Override is nil when no admin override was recorded.
	Override *string `parquet:"override,optional,snappy"`

	Forgiven    bool      `parquet:"forgiven,snappy"`
	Final       bool      `parquet:"final,snappy"`
	EvaluatedAt time.Time `parquet:"evaluated_at,snappy"`
}

// TransitionRow is one milestone transition, flattened for export.
// This struct maps to the milestone_transitions database table.
type TransitionRow struct {
	ID             int64     `parquet:"id,snappy"`
	MemberID       string    `parquet:"member_id,snappy"`
	WindowKind     string    `parquet:"window_kind,snappy"`
	Previous       string    `parquet:"previous,snappy"`
	New            string    `parquet:"new,snappy"`
	Class          string    `parquet:"class,snappy"`
	ForgivenBefore bool      `parquet:"forgiven_before,snappy"`
	ForgivenAfter  bool      `parquet:"forgiven_after,snappy"`
	Timestamp      time.Time `parquet:"timestamp,snappy"`
}

// RecordRow is one daily contribution record, flattened for export.
// This struct maps to the contribution_records database table.
type RecordRow struct {
	MemberID string    `parquet:"member_id,snappy"`
	Date     time.Time `parquet:"date,snappy"`
	Points   int64     `parquet:"points,snappy"`
}

// SeriesRow is one aggregated series bucket, flattened for export.
type SeriesRow struct {
	MemberID    string    `parquet:"member_id,snappy"`
	Granularity string    `parquet:"granularity,snappy"`
	ValueMode   string    `parquet:"value_mode,snappy"`
	PeriodStart time.Time `parquet:"period_start,snappy"`
	Value       int64     `parquet:"value,snappy"`
}

// ForecastRow is one observed or projected bucket of a forecast run.
type ForecastRow struct {
	MemberID    string    `parquet:"member_id,snappy"`
	Strategy    string    `parquet:"strategy,snappy"`
	PeriodStart time.Time `parquet:"period_start,snappy"`
	Value       float64   `parquet:"value,snappy"`
	Projected   bool      `parquet:"projected,snappy"`
}

// ConvertSeries converts an aggregated series for Parquet export.
func ConvertSeries(series schema.AggregatedSeries) []SeriesRow {
	result := make([]SeriesRow, len(series.Points))
	for i, p := range series.Points {
		result[i] = SeriesRow{
			MemberID:    series.MemberID,
			Granularity: string(series.Granularity),
			ValueMode:   string(series.ValueMode),
			PeriodStart: p.PeriodStart,
			Value:       p.Value,
		}
	}
	return result
}

// ConvertForecast flattens a forecast result, observed buckets first and
// projected buckets after, distinguished by the projected flag.
func ConvertForecast(result schema.ForecastResult) []ForecastRow {
	rows := make([]ForecastRow, 0, len(result.Observed.Points)+len(result.Points))
	for _, p := range result.Observed.Points {
		rows = append(rows, ForecastRow{
			MemberID:    result.MemberID,
			Strategy:    string(result.Strategy),
			PeriodStart: p.PeriodStart,
			Value:       float64(p.Value),
		})
	}
	for _, p := range result.Points {
		rows = append(rows, ForecastRow{
			MemberID:    result.MemberID,
			Strategy:    string(result.Strategy),
			PeriodStart: p.PeriodStart,
			Value:       p.Value,
			Projected:   true,
		})
	}
	return rows
}

// ConvertStates converts schema.MilestoneState rows for Parquet export.
func ConvertStates(states []schema.MilestoneState) []VerdictRow {
	result := make([]VerdictRow, len(states))
	for i, s := range states {
		row := VerdictRow{
			MemberID:    s.MemberID,
			WindowKind:  string(s.WindowKind),
			WindowStart: s.WindowStart,
			WindowSeq:   int32(s.WindowSeq),
			WindowEnd:   s.WindowEnd,
			Threshold:   s.Threshold,
			Points:      s.Points,
			Computed:    string(s.Computed),
			Forgiven:    s.Forgiven,
			Final:       s.Final,
			EvaluatedAt: s.EvaluatedAt,
		}
		if s.Override != schema.VerdictNone {
			override := string(s.Override)
			row.Override = &override
		}
		result[i] = row
	}
	return result
}

// ConvertTransitions converts schema.MilestoneTransition rows for Parquet export.
func ConvertTransitions(transitions []schema.MilestoneTransition) []TransitionRow {
	result := make([]TransitionRow, len(transitions))
	for i, t := range transitions {
		result[i] = TransitionRow{
			ID:             t.ID,
			MemberID:       t.MemberID,
			WindowKind:     string(t.WindowKind),
			Previous:       string(t.Previous),
			New:            string(t.New),
			Class:          string(t.Class()),
			ForgivenBefore: t.ForgivenBefore,
			ForgivenAfter:  t.ForgivenAfter,
			Timestamp:      t.Timestamp,
		}
	}
	return result
}

// ConvertRecords converts schema.ContributionRecord rows for Parquet export.
func ConvertRecords(records []schema.ContributionRecord) []RecordRow {
	result := make([]RecordRow, len(records))
	for i, r := range records {
		result[i] = RecordRow{
			MemberID: r.MemberID,
			Date:     r.Date,
			Points:   r.Points,
		}
	}
	return result
}

// WriteVerdictsParquet writes verdict rows to a Parquet file.
func WriteVerdictsParquet(data []VerdictRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteTransitionsParquet writes transition rows to a Parquet file.
func WriteTransitionsParquet(data []TransitionRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRecordsParquet writes contribution record rows to a Parquet file.
func WriteRecordsParquet(data []RecordRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteSeriesParquet writes aggregated series rows to a Parquet file.
func WriteSeriesParquet(data []SeriesRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteForecastParquet writes forecast rows to a Parquet file.
func WriteForecastParquet(data []ForecastRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes any row type to a Parquet file, with the schema
// inferred from struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	defer func() { _ = writer.Close() }()

	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}

	return nil
}
