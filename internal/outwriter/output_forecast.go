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

// PrintForecast outputs a forecast result, dispatching based on the output format configured.
func PrintForecast(result schema.ForecastResult, cfg *contract.Config) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastCSV(w, result, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := requireOutputFile(cfg.OutputFile, "forecast"); err != nil {
			return err
		}
		if err := parquet.WriteForecastParquet(parquet.ConvertForecast(result), cfg.OutputFile); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeForecastTable(w, result, fmtFloat)
		}, "Wrote table")
	}
}

// writeForecastCSV writes observed and projected buckets in CSV form.
func writeForecastCSV(w io.Writer, result schema.ForecastResult, fmtFloat func(float64) string) error {
	header := []string{"member_id", "strategy", "period_start", "value", "projected"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range result.Observed.Points {
			row := []string{
				result.MemberID,
				string(result.Strategy),
				p.PeriodStart.Format(schema.DayFormat),
				strconv.FormatInt(p.Value, 10),
				"false",
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		for _, p := range result.Points {
			row := []string{
				result.MemberID,
				string(result.Strategy),
				p.PeriodStart.Format(schema.DayFormat),
				fmtFloat(p.Value),
				"true",
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeForecastTable generates and writes the human-readable table. Projected
// buckets are marked so the boundary between history and prediction is
// visible.
func writeForecastTable(w io.Writer, result schema.ForecastResult, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Period", "Value", "Kind"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, p := range result.Observed.Points {
		data = append(data, []string{
			p.PeriodStart.Format(schema.DayFormat),
			schema.FormatPoints(p.Value),
			"observed",
		})
	}
	for _, p := range result.Points {
		data = append(data, []string{
			p.PeriodStart.Format(schema.DayFormat),
			fmtFloat(p.Value),
			"projected",
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s | %s | %d observed -> %d projected\n",
		result.MemberID, string(result.Strategy), len(result.Observed.Points), len(result.Points))
	return nil
}
