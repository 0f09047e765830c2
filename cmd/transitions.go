package cmd

import (
	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/spf13/cobra"
)

// transitionsCmd lists recorded verdict transitions.
var transitionsCmd = &cobra.Command{
	Use:   "transitions [member-id]",
	Short: "List recorded verdict transitions, newest first.",
	Long: `List the verdict transitions recorded by evaluation runs.

Each transition captures the member, the previous and new verdict, the
window it belongs to and when it was observed. Pass a member ID to
restrict the listing to one member.

Examples:
  # Last 25 transitions across all members
  farmsight transitions

  # Transitions for one member
  farmsight transitions alice --limit 100`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTransitions(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list transitions", err)
		}
	},
}
