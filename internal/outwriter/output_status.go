package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// PrintMemberStatuses outputs member statuses, dispatching based on the output format configured.
func PrintMemberStatuses(statuses []schema.MemberStatus, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, _ := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, statuses)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusCSV(w, statuses, fmtFloat)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for statuses; use the store export command")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStatusTable(w, statuses, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeStatusCSV writes status rows in CSV form.
func writeStatusCSV(w io.Writer, statuses []schema.MemberStatus, fmtFloat func(float64) string) error {
	header := []string{
		"member_id",
		"phase",
		"streak",
		"window_kind",
		"window_start",
		"window_end",
		"points",
		"threshold",
		"remaining",
		"days_left",
		"daily_rate",
		"daily_needed",
		"projected_total",
		"pace",
		"effective",
		"label",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, s := range statuses {
			row := []string{
				s.MemberID,
				string(s.Phase),
				strconv.Itoa(s.Streak),
				string(s.Window.Kind),
				s.Window.Start.Format(schema.DayFormat),
				s.Window.End.Format(schema.DayFormat),
				strconv.FormatInt(s.WindowPoints, 10),
				strconv.FormatInt(s.Window.Threshold, 10),
				strconv.FormatInt(s.Remaining, 10),
				strconv.Itoa(s.DaysLeft),
				fmtFloat(s.DailyRate),
				fmtFloat(s.DailyNeeded),
				fmtFloat(s.ProjectedTotal),
				s.Pace,
				string(s.Effective),
				contract.GetPlainVerdictLabel(s),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeStatusTable generates and writes the human-readable table.
func writeStatusTable(w io.Writer, statuses []schema.MemberStatus, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)

	table.Header([]string{"Rank", "Member", "Phase", "Points", "Target", "Days Left", "Need/Day", "Proj", "Label"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	label := contract.GetPlainVerdictLabel
	if cfg.UseColors {
		label = contract.GetColorVerdictLabel
	}

	var data [][]string
	for i, s := range statuses {
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncateID(s.MemberID, getMaxTableIDWidth(cfg)),
			string(s.Phase),
			schema.CompactPoints(s.WindowPoints),
			schema.CompactPoints(s.Window.Threshold),
			strconv.Itoa(s.DaysLeft),
			fmtFloat(s.DailyNeeded),
			schema.CompactPoints(int64(s.ProjectedTotal)),
			label(s),
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	atRisk := 0
	failed := 0
	for _, s := range statuses {
		if s.Pace == schema.PaceAtRisk {
			atRisk++
		}
		if s.Effective == schema.VerdictFail && !s.Forgiven {
			failed++
		}
	}

	if cfg.UseEmojis {
		fmt.Fprintf(w, "📊 %d members | %d at risk | %d failed | took %s\n",
			len(statuses), atRisk, failed, duration.Round(time.Millisecond))
	} else {
		fmt.Fprintf(w, "%d members | %d at risk | %d failed | took %s\n",
			len(statuses), atRisk, failed, duration.Round(time.Millisecond))
	}
	return nil
}
