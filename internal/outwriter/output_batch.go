package outwriter

import (
	"fmt"
	"io"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// PrintBatchReport outputs a batch evaluation summary. Batch reports are a
// console artifact, so the table form is plain text rather than tabular.
func PrintBatchReport(result schema.BatchResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON")
	case schema.CSVOut, schema.ParquetOut:
		return fmt.Errorf("%s output is not supported for batch reports", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeBatchText(w, result, cfg)
		}, "Wrote report")
	}
}

// writeBatchText writes the human-readable batch summary.
func writeBatchText(w io.Writer, result schema.BatchResult, cfg *contract.Config) error {
	prefix := ""
	if cfg.UseEmojis {
		prefix = "✅ "
	}

	fmt.Fprintf(w, "%sEvaluated %d members in %s\n",
		prefix, result.Evaluated, result.Duration.Round(time.Millisecond))
	if result.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d members (source unavailable, retried next cycle)\n", result.Skipped)
	}
	fmt.Fprintf(w, "Transitions: %d | Notified: %d | Suppressed: %d\n",
		len(result.Transitions), len(result.Intents), result.Suppressed())

	for _, t := range result.Transitions {
		fmt.Fprintf(w, "  %s [%s] %s -> %s (%s)\n",
			t.MemberID, t.WindowKind, t.Previous, t.New, t.Class())
	}
	return nil
}
