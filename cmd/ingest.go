package cmd

import (
	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/spf13/cobra"
)

// ingestCmd loads leaderboard snapshot files into the series store.
var ingestCmd = &cobra.Command{
	Use:   "ingest <snapshot.csv> [snapshot.csv ...]",
	Short: "Load leaderboard snapshot files into the point store.",
	Long: `Load daily leaderboard snapshot files into the point store.

Each snapshot is a CSV of cumulative member totals whose date is taken
from the file name (YYYY-MM-DD). Consecutive snapshots are differenced
into per-day point records; re-ingesting a day replaces that day's
records rather than duplicating them.

Examples:
  # Ingest a week of snapshots
  farmsight ingest snapshots/2026-08-*.csv

  # Ingest a single day
  farmsight ingest snapshots/2026-08-28.csv`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteIngest(rootCtx, cfg, storeManager, args); err != nil {
			contract.LogFatal("Cannot ingest snapshots", err)
		}
	},
}
