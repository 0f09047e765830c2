package outwriter

import (
	"fmt"
	"io"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// PrintStoreStatus outputs store and cache health for the status command.
func PrintStoreStatus(store schema.StoreStatus, cache *schema.CacheStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		payload := map[string]any{"store": store}
		if cache != nil {
			payload["cache"] = cache
		}
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, payload)
		}, "Wrote JSON")
	}

	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		fmt.Fprintf(w, "Store backend:  %s (%s)\n", store.Backend, store.Location)
		fmt.Fprintf(w, "Records:        %d\n", store.Records)
		fmt.Fprintf(w, "Members:        %d\n", store.Members)
		fmt.Fprintf(w, "Active windows: %d\n", store.Windows)
		fmt.Fprintf(w, "Verdicts:       %d\n", store.Verdicts)
		fmt.Fprintf(w, "Transitions:    %d\n", store.Transitions)
		fmt.Fprintf(w, "Recipients:     %d\n", store.Recipients)
		fmt.Fprintf(w, "Outcomes:       %d\n", store.Outcomes)
		if !store.OldestRecord.IsZero() {
			fmt.Fprintf(w, "Record range:   %s to %s\n",
				store.OldestRecord.Format(schema.DayFormat), store.NewestRecord.Format(schema.DayFormat))
		}
		if store.SizeBytes > 0 {
			fmt.Fprintf(w, "Size:           %.1f KB\n", float64(store.SizeBytes)/1024)
		}
		if cache != nil {
			fmt.Fprintf(w, "Cache backend:  %s (%s), %d entries\n", cache.Backend, cache.Location, cache.Entries)
		} else {
			fmt.Fprintln(w, "Cache backend:  none")
		}
		return nil
	}, "Wrote status")
}
