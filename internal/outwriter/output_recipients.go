package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// PrintRecipients outputs the recipient roster, dispatching based on the output format configured.
func PrintRecipients(recipients []schema.Recipient, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, recipients)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"recipient_id", "classes"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, r := range recipients {
					if err := cw.Write([]string{r.RecipientID, schema.FormatEventClasses(r.Classes)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for recipients")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecipientsTable(w, recipients)
		}, "Wrote table")
	}
}

// writeRecipientsTable generates and writes the human-readable table.
func writeRecipientsTable(w io.Writer, recipients []schema.Recipient) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Recipient", "Subscriptions"})

	var data [][]string
	for _, r := range recipients {
		data = append(data, []string{r.RecipientID, schema.FormatEventClasses(r.Classes)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d recipients\n", len(recipients))
	return nil
}

// PrintOutcomes outputs notification audit rows, dispatching based on the output format configured.
func PrintOutcomes(outcomes []schema.NotificationOutcome, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, outcomes)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			header := []string{"recipient_id", "member_id", "class", "result", "timestamp"}
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, o := range outcomes {
					row := []string{
						o.RecipientID,
						o.MemberID,
						string(o.Class),
						o.Result,
						o.Timestamp.Format(contract.DateTimeFormat),
					}
					if err := cw.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("parquet output is not supported for outcomes")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeOutcomesTable(w, outcomes)
		}, "Wrote table")
	}
}

// writeOutcomesTable generates and writes the human-readable table.
func writeOutcomesTable(w io.Writer, outcomes []schema.NotificationOutcome) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"When", "Recipient", "Member", "Class", "Result"})

	var data [][]string
	for _, o := range outcomes {
		data = append(data, []string{
			o.Timestamp.Format(contract.DateTimeFormat),
			o.RecipientID,
			o.MemberID,
			string(o.Class),
			o.Result,
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d outcomes\n", len(outcomes))
	return nil
}
