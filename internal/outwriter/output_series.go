package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/internal/parquet"
	"github.com/farmsight/farmsight/schema"
)

// PrintSeries outputs an aggregated series, dispatching based on the output format configured.
func PrintSeries(series schema.AggregatedSeries, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, series)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeriesCSV(w, series)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := requireOutputFile(cfg.OutputFile, "series"); err != nil {
			return err
		}
		if err := parquet.WriteSeriesParquet(parquet.ConvertSeries(series), cfg.OutputFile); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSeriesTable(w, series)
		}, "Wrote table")
	}
}

// writeSeriesCSV writes series buckets in CSV form.
func writeSeriesCSV(w io.Writer, series schema.AggregatedSeries) error {
	header := []string{"member_id", "granularity", "value_mode", "period_start", "value"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range series.Points {
			row := []string{
				series.MemberID,
				string(series.Granularity),
				string(series.ValueMode),
				p.PeriodStart.Format(schema.DayFormat),
				strconv.FormatInt(p.Value, 10),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeSeriesTable generates and writes the human-readable table.
func writeSeriesTable(w io.Writer, series schema.AggregatedSeries) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Period", "Value"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, p := range series.Points {
		data = append(data, []string{
			p.PeriodStart.Format(schema.DayFormat),
			schema.FormatPoints(p.Value),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s | %s %s | %d periods\n",
		series.MemberID, string(series.Granularity), string(series.ValueMode), len(series.Points))
	return nil
}
