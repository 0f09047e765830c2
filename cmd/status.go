package cmd

import (
	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/spf13/cobra"
)

// statusCmd shows the compliance status board.
var statusCmd = &cobra.Command{
	Use:   "status [member-id]",
	Short: "Show the compliance status board ranked by urgency.",
	Long: `Show each tracked member's compliance standing, ranked by urgency.

For every member under an active window this reports:
- The current phase (probation, monitoring, cleared, retired)
- Window progress: points earned against the target, days remaining
- The pace needed per day to still clear the window
- An at-risk flag when an unmet window is nearly out of runway

Pass a member ID to restrict the board to a single member.

Examples:
  # Show the full board
  farmsight status

  # Show one member
  farmsight status alice

  # Export the board to CSV for tracking
  farmsight status --output csv --output-file board.csv`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMemberStatus(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot build status board", err)
		}
	},
}
