package cmd

import (
	"os"

	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/internal/notify"
	"github.com/spf13/cobra"
)

// evaluateCmd runs one batch evaluation cycle over all active windows.
var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate all active compliance windows and dispatch notifications.",
	Long: `Evaluate every member with an active compliance window.

For each member this recomputes the window verdict from the stored point
records, applies any admin override, advances the lifecycle when a window
has ended, records transitions, and dispatches notifications to matching
recipients subject to their per-period budget.

Evaluation is idempotent: re-running over the same data produces no new
transitions and no duplicate notifications.

Examples:
  # Evaluate with the default policy
  farmsight evaluate

  # Evaluate with a stricter probation target
  farmsight evaluate --probation-threshold 5000000

  # Evaluate against MySQL-backed storage
  farmsight evaluate --store-backend mysql --store-db-connect "user:pass@tcp(localhost:3306)/farmsight"`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteEvaluate(rootCtx, cfg, storeManager, &notify.LogDispatcher{Writer: os.Stdout}); err != nil {
			contract.LogFatal("Cannot run evaluation", err)
		}
	},
}
