package cmd

import (
	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
	"github.com/spf13/cobra"
)

// recipientCmd is the parent command for notification recipients.
var recipientCmd = &cobra.Command{
	Use:     "recipient",
	Aliases: []string{"recipients"},
	Short:   "Manage notification recipients.",
	Long:  `Manage notification recipients and inspect their delivery outcomes.`,
}

// recipientListCmd lists registered recipients.
var recipientListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered recipients and their subscriptions.",
	Long: `List registered notification recipients.

Each entry shows the recipient ID and the event classes it subscribes
to. Recipients with no matching subscription never receive a
notification.

Examples:
  farmsight recipient list`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRecipientsList(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list recipients", err)
		}
	},
}

// recipientSetCmd registers or updates a recipient.
var recipientSetCmd = &cobra.Command{
	Use:   "set <recipient-id> <classes>",
	Short: "Register a recipient with a set of event classes.",
	Long: `Register a notification recipient, or replace an existing
recipient's subscriptions.

Classes is a comma-separated subset of: fail, pass, relapse,
forgiveness, reset.

Examples:
  # Subscribe to failures only
  farmsight recipient set oncall fail,relapse

  # Subscribe to everything
  farmsight recipient set audit fail,pass,relapse,forgiveness,reset`,
	Args:    cobra.ExactArgs(2),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		classes, err := schema.ParseEventClasses(args[1])
		if err != nil {
			contract.LogFatal("Cannot parse event classes", err)
		}
		if err := core.ExecuteRecipientSet(rootCtx, cfg, storeManager, args[0], classes); err != nil {
			contract.LogFatal("Cannot set recipient", err)
		}
	},
}

// recipientDeleteCmd removes a recipient.
var recipientDeleteCmd = &cobra.Command{
	Use:   "delete <recipient-id>",
	Short: "Remove a recipient.",
	Long: `Remove a notification recipient.

Past delivery outcomes for the recipient are retained.

Examples:
  farmsight recipient delete oncall`,
	Args:    cobra.ExactArgs(1),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteRecipientDelete(rootCtx, cfg, storeManager, args[0]); err != nil {
			contract.LogFatal("Cannot delete recipient", err)
		}
	},
}

// recipientOutcomesCmd lists notification delivery outcomes.
var recipientOutcomesCmd = &cobra.Command{
	Use:   "outcomes [recipient-id]",
	Short: "List notification outcomes, newest first.",
	Long: `List notification delivery outcomes recorded by evaluation runs.

Suppressed notifications (budget exhausted) appear alongside delivered
ones so budget pressure is visible. Pass a recipient ID to restrict the
listing.

Examples:
  # All recent outcomes
  farmsight recipient outcomes

  # Outcomes for one recipient
  farmsight recipient outcomes oncall --limit 100`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		recipientID := ""
		if len(args) == 1 {
			recipientID = args[0]
		}
		if err := core.ExecuteOutcomes(rootCtx, cfg, storeManager, recipientID); err != nil {
			contract.LogFatal("Cannot list outcomes", err)
		}
	},
}
