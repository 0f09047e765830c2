package cmd

import (
	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/spf13/cobra"
)

// forecastCmd projects a member's future point production.
var forecastCmd = &cobra.Command{
	Use:   "forecast <member-id>",
	Short: "Project a member's future points from historical pace.",
	Long: `Project a member's future point production from their historical series.

Two strategies are available:
- linear: least-squares regression over the whole series
- moving-average: trailing mean over the last N days

When the member has an active compliance window the projection also
reports whether the current pace clears the window target in time.

Examples:
  # Four daily buckets ahead with linear regression
  farmsight forecast alice

  # Two weeks ahead using a 14 day moving average
  farmsight forecast alice --strategy moving-average --ma-window 14 --granularity weekly --horizon 2`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteForecast(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build forecast", err)
		}
	},
}
