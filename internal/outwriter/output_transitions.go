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

// PrintTransitions outputs the transition log, dispatching based on the output format configured.
func PrintTransitions(transitions []schema.MilestoneTransition, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, transitions)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTransitionsCSV(w, transitions)
		}, "Wrote CSV")
	case schema.ParquetOut:
		if err := requireOutputFile(cfg.OutputFile, "transitions"); err != nil {
			return err
		}
		if err := parquet.WriteTransitionsParquet(parquet.ConvertTransitions(transitions), cfg.OutputFile); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Wrote parquet to %s\n", cfg.OutputFile)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTransitionsTable(w, transitions, cfg)
		}, "Wrote table")
	}
}

// writeTransitionsCSV writes transition rows in CSV form.
func writeTransitionsCSV(w io.Writer, transitions []schema.MilestoneTransition) error {
	header := []string{"id", "member_id", "window_kind", "previous", "new", "class", "forgiven_before", "forgiven_after", "timestamp"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, t := range transitions {
			row := []string{
				strconv.FormatInt(t.ID, 10),
				t.MemberID,
				string(t.WindowKind),
				string(t.Previous),
				string(t.New),
				string(t.Class()),
				strconv.FormatBool(t.ForgivenBefore),
				strconv.FormatBool(t.ForgivenAfter),
				t.Timestamp.Format(contract.DateTimeFormat),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// writeTransitionsTable generates and writes the human-readable table.
func writeTransitionsTable(w io.Writer, transitions []schema.MilestoneTransition, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"When", "Member", "Window", "Change", "Class"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, t := range transitions {
		change := fmt.Sprintf("%s -> %s", t.Previous, t.New)
		if t.ForgivenBefore != t.ForgivenAfter {
			if t.ForgivenAfter {
				change += " (forgiven)"
			} else {
				change += " (unforgiven)"
			}
		}
		data = append(data, []string{
			t.Timestamp.Format(schema.DayFormat),
			contract.TruncateID(t.MemberID, getMaxTableIDWidth(cfg)),
			string(t.WindowKind),
			change,
			string(t.Class()),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d transitions\n", len(transitions))
	return nil
}
