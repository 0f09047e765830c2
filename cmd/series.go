package cmd

import (
	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/spf13/cobra"
)

// seriesCmd aggregates a member's daily records into a time series.
var seriesCmd = &cobra.Command{
	Use:   "series <member-id>",
	Short: "Show a member's point series at a chosen granularity.",
	Long: `Aggregate a member's daily point records into a time series.

Buckets are calendar-aligned (ISO weeks, calendar months and years) and
empty buckets inside the requested range are filled with zeros, so gaps
in activity are visible rather than silently skipped.

Examples:
  # Daily intervals for the default lookback
  farmsight series alice

  # Weekly running totals for a fixed range
  farmsight series alice --granularity weekly --value-mode cumulative --start 2026-01-01 --end 2026-04-01

  # Monthly intervals as JSON
  farmsight series alice --granularity monthly --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSeries(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build series", err)
		}
	},
}
