package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/farmsight/farmsight/core"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
	"github.com/spf13/cobra"
)

// memberCmd is the parent command for member administration.
var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Administer tracked members.",
	Long:  `Open probation windows, override verdicts, forgive failures and retire members.`,
}

// memberProbationCmd opens a probation window for a member.
var memberProbationCmd = &cobra.Command{
	Use:   "probation <member-id> [start-date]",
	Short: "Open a probation window for a member.",
	Long: `Open a probation window for a member.

The window starts on the given date (or today when omitted) and runs for
the configured probation length. A member already under an active window
cannot enter probation again.

Examples:
  # Start probation today
  farmsight member probation alice

  # Backdate the window start
  farmsight member probation alice 2026-08-01`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		now := time.Now().UTC()
		start := contract.Day(now)
		if len(args) == 2 {
			parsed, err := time.Parse(schema.DayFormat, args[1])
			if err != nil {
				parsed, err = contract.ParseRelativeTime(args[1], now)
			}
			if err != nil {
				contract.LogFatal("Cannot parse start date", fmt.Errorf("expected YYYY-MM-DD or 'N [units] ago': %q", args[1]))
			}
			start = contract.Day(parsed)
		}
		if err := core.ExecuteStartProbation(rootCtx, cfg, storeManager, args[0], start); err != nil {
			contract.LogFatal("Cannot open probation window", err)
		}
	},
}

// memberOverrideCmd applies or clears an admin verdict override.
var memberOverrideCmd = &cobra.Command{
	Use:   "override <member-id> <pass|fail|none>",
	Short: "Override a member's current window verdict.",
	Long: `Apply an admin verdict override to a member's current window.

The override takes precedence over the computed verdict until cleared.
Pass 'none' to clear a previously set override.

Examples:
  # Force a pass for a disputed window
  farmsight member override alice pass

  # Clear the override
  farmsight member override alice none`,
	Args:    cobra.ExactArgs(2),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		verdict := schema.Verdict(args[1])
		if _, ok := schema.ValidVerdicts[verdict]; !ok {
			contract.LogFatal("Cannot parse verdict", fmt.Errorf("invalid verdict %q: must be pass, fail or none", args[1]))
		}
		if err := core.ExecuteOverride(rootCtx, cfg, storeManager, args[0], verdict); err != nil {
			contract.LogFatal("Cannot apply override", err)
		}
	},
}

// memberForgiveCmd flips the forgiveness flag on a member's latest verdict.
var memberForgiveCmd = &cobra.Command{
	Use:   "forgive <member-id> [true|false]",
	Short: "Forgive a member's failed window.",
	Long: `Mark a member's latest failed window as forgiven.

Forgiveness keeps the failure on record but stops it from counting
against the member's lifecycle. Pass 'false' to withdraw forgiveness.

Examples:
  # Forgive the latest failure
  farmsight member forgive alice

  # Withdraw forgiveness
  farmsight member forgive alice false`,
	Args:    cobra.RangeArgs(1, 2),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		forgiven := true
		if len(args) == 2 {
			parsed, err := strconv.ParseBool(args[1])
			if err != nil {
				contract.LogFatal("Cannot parse forgiveness flag", err)
			}
			forgiven = parsed
		}
		if err := core.ExecuteForgive(rootCtx, cfg, storeManager, args[0], forgiven); err != nil {
			contract.LogFatal("Cannot set forgiveness", err)
		}
	},
}

// memberRetireCmd removes a member from tracking.
var memberRetireCmd = &cobra.Command{
	Use:   "retire <member-id>",
	Short: "Retire a member from tracking.",
	Long: `Retire a member from compliance tracking.

Any active window is closed, history is retained, and no further
evaluations or notifications are produced for the member.

Examples:
  farmsight member retire alice`,
	Args:    cobra.ExactArgs(1),
	PreRunE: argSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteRetire(rootCtx, cfg, storeManager, args[0]); err != nil {
			contract.LogFatal("Cannot retire member", err)
		}
	},
}
