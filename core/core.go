package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/farmsight/farmsight/core/agg"
	"github.com/farmsight/farmsight/core/forecast"
	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/internal/outwriter"
	"github.com/farmsight/farmsight/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// ExecuteMemberStatus reports compliance status. With a member argument it
// reports that member alone; otherwise it reports every tracked member,
// ranked by urgency. It serves as the main entry point for the 'status'
// command.
func ExecuteMemberStatus(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	logStatusHeader(ctx, cfg)

	ranked, err := GetMemberStatusResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintMemberStatuses(ranked, cfg, time.Since(start))
}

// GetMemberStatusResults computes urgency-ranked member statuses without
// printing them. This is exposed for the MCP server.
func GetMemberStatusResults(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) ([]schema.MemberStatus, error) {
	engine := NewEngine(cfg, mgr)
	store := mgr.GetComplianceStore()
	cache := mgr.GetCacheStore()
	now := time.Now().UTC()

	var members []schema.Member
	if cfg.MemberID != "" {
		member, err := store.LoadMember(ctx, cfg.MemberID)
		if err != nil {
			return nil, err
		}
		if member == nil {
			return nil, fmt.Errorf("%w: %s", contract.ErrMemberNotFound, cfg.MemberID)
		}
		members = []schema.Member{*member}
	} else {
		var err error
		members, err = store.ListMembers(ctx)
		if err != nil {
			return nil, err
		}
	}

	statuses := make([]schema.MemberStatus, 0, len(members))
	for _, member := range members {
		window, err := store.LoadWindow(ctx, member.MemberID)
		if err != nil {
			return nil, err
		}
		state, err := store.LoadState(ctx, member.MemberID)
		if err != nil {
			return nil, err
		}

		status, err := cachedMemberStatus(ctx, engine, cache, member, window, state, now)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}

	return rankStatuses(statuses, cfg.ResultLimit), nil
}

// ExecuteSeries aggregates a member's records over the configured range and
// prints the result. It serves as the main entry point for the 'series'
// command.
func ExecuteSeries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	series, err := buildSeries(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintSeries(*series, cfg)
}

// ExecuteForecast aggregates a member's records and extends the series with
// the configured prediction strategy. It serves as the main entry point for
// the 'forecast' command.
func ExecuteForecast(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	result, err := GetForecastResult(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.PrintForecast(*result, cfg)
}

// GetForecastResult aggregates a member's records and runs the configured
// prediction strategy without printing. This is exposed for the MCP server.
func GetForecastResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.ForecastResult, error) {
	series, err := buildSeries(ctx, cfg, mgr)
	if err != nil {
		return nil, err
	}
	strategy, err := forecast.ForStrategy(cfg)
	if err != nil {
		return nil, err
	}
	return forecast.Run(strategy, series, cfg.Horizon)
}

// GetSeriesResult aggregates one member's records over the configured range
// without printing. This is exposed for the MCP server.
func GetSeriesResult(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.AggregatedSeries, error) {
	return buildSeries(ctx, cfg, mgr)
}

// buildSeries fetches and aggregates one member's records over the
// configured range.
func buildSeries(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (*schema.AggregatedSeries, error) {
	if cfg.MemberID == "" {
		return nil, fmt.Errorf("%w: a member id is required", contract.ErrInvalidConfiguration)
	}

	rng := schema.DateRange{Start: cfg.StartTime, End: cfg.EndTime}
	records, err := mgr.GetSeriesStore().FetchRecords(ctx, cfg.MemberID, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contract.ErrSourceUnavailable, err)
	}

	return agg.Aggregate(cfg.MemberID, records, rng, cfg.Granularity, cfg.ValueMode)
}

// ExecuteEvaluate runs one batch evaluation cycle over all active windows.
// It serves as the main entry point for the 'evaluate' command.
func ExecuteEvaluate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, dispatcher contract.Dispatcher) error {
	result, err := RunBatch(ctx, cfg, mgr, dispatcher)
	if err != nil {
		return err
	}
	return outwriter.PrintBatchReport(*result, cfg)
}

// ExecuteIngest loads leaderboard snapshot files into the series store,
// converting cumulative totals into per-day deltas. It serves as the main
// entry point for the 'ingest' command.
func ExecuteIngest(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one snapshot file is required", contract.ErrInvalidConfiguration)
	}

	snapshots := make([]agg.Snapshot, 0, len(paths))
	for _, path := range paths {
		date, err := agg.ParseSnapshotDate(path)
		if err != nil {
			return err
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening snapshot %s: %w", path, err)
		}
		totals, err := agg.ParseSnapshotCSV(file)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("parsing snapshot %s: %w", path, err)
		}

		snapshots = append(snapshots, agg.Snapshot{Date: date, Totals: totals})
	}

	records := agg.BuildRecords(snapshots)
	if err := mgr.GetSeriesStore().AppendRecords(ctx, records); err != nil {
		return err
	}

	if cfg.UseEmojis {
		fmt.Printf("📥 Ingested %d snapshots into %d records\n", len(snapshots), len(records))
	} else {
		fmt.Printf("Ingested %d snapshots into %d records\n", len(snapshots), len(records))
	}
	return nil
}

// ExecuteStartProbation opens a probation window for a member. It serves as
// the entry point for the 'admin probation' command.
func ExecuteStartProbation(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, memberID string, start time.Time) error {
	engine := NewEngine(cfg, mgr)
	window, err := engine.StartProbation(ctx, memberID, start)
	if err != nil {
		return err
	}

	fmt.Printf("Probation window %d opened for %s: %s to %s, target %s\n",
		window.Sequence, memberID,
		window.Start.Format(schema.DayFormat), window.End.Format(schema.DayFormat),
		schema.FormatPoints(window.Threshold))
	return nil
}

// ExecuteOverride applies or clears an admin verdict override. It serves as
// the entry point for the 'admin override' command.
func ExecuteOverride(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, memberID string, verdict schema.Verdict) error {
	engine := NewEngine(cfg, mgr)
	transition, err := engine.SetOverride(ctx, memberID, verdict, time.Now().UTC())
	if err != nil {
		return err
	}

	if transition == nil {
		fmt.Printf("No change for %s\n", memberID)
		return nil
	}
	fmt.Printf("Override recorded for %s: %s -> %s\n", memberID, transition.Previous, transition.New)
	return nil
}

// ExecuteForgive flips the forgiveness flag on a member's latest verdict. It
// serves as the entry point for the 'admin forgive' command.
func ExecuteForgive(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, memberID string, forgiven bool) error {
	engine := NewEngine(cfg, mgr)
	transition, err := engine.SetForgiven(ctx, memberID, forgiven, time.Now().UTC())
	if err != nil {
		return err
	}

	if transition == nil {
		fmt.Printf("No change for %s\n", memberID)
		return nil
	}
	fmt.Printf("Forgiveness for %s set to %t\n", memberID, forgiven)
	return nil
}

// ExecuteRetire removes a member from tracking. It serves as the entry point
// for the 'admin retire' command.
func ExecuteRetire(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, memberID string) error {
	engine := NewEngine(cfg, mgr)
	if err := engine.Retire(ctx, memberID, time.Now().UTC()); err != nil {
		return err
	}
	fmt.Printf("Retired %s from tracking\n", memberID)
	return nil
}

// ExecuteTransitions prints the transition log, optionally filtered to one
// member. It serves as the main entry point for the 'transitions' command.
func ExecuteTransitions(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	transitions, err := mgr.GetComplianceStore().ListTransitions(ctx, cfg.MemberID, cfg.ResultLimit)
	if err != nil {
		return err
	}
	return outwriter.PrintTransitions(transitions, cfg)
}

// ExecuteRecipientsList prints the recipient roster. It serves as the entry
// point for the 'recipients list' command.
func ExecuteRecipientsList(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	recipients, err := mgr.GetComplianceStore().ListRecipients(ctx)
	if err != nil {
		return err
	}
	return outwriter.PrintRecipients(recipients, cfg)
}

// ExecuteRecipientSet creates or updates a recipient's subscriptions. It
// serves as the entry point for the 'recipients set' command.
func ExecuteRecipientSet(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, recipientID string, classes []schema.EventClass) error {
	if recipientID == "" {
		return fmt.Errorf("%w: a recipient id is required", contract.ErrInvalidConfiguration)
	}
	if len(classes) == 0 {
		return fmt.Errorf("%w: at least one event class is required", contract.ErrInvalidConfiguration)
	}

	recipient := schema.Recipient{RecipientID: recipientID, Classes: classes}
	if err := mgr.GetComplianceStore().SaveRecipient(ctx, recipient); err != nil {
		return err
	}
	fmt.Printf("Recipient %s subscribed to %s\n", recipientID, schema.FormatEventClasses(classes))
	return nil
}

// ExecuteRecipientDelete removes a recipient. It serves as the entry point
// for the 'recipients delete' command.
func ExecuteRecipientDelete(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, recipientID string) error {
	if err := mgr.GetComplianceStore().DeleteRecipient(ctx, recipientID); err != nil {
		return err
	}
	fmt.Printf("Recipient %s removed\n", recipientID)
	return nil
}

// ExecuteOutcomes prints the notification audit log, optionally filtered to
// one recipient. It serves as the entry point for the 'recipients outcomes'
// command.
func ExecuteOutcomes(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, recipientID string) error {
	outcomes, err := mgr.GetComplianceStore().ListOutcomes(ctx, recipientID, cfg.ResultLimit)
	if err != nil {
		return err
	}
	return outwriter.PrintOutcomes(outcomes, cfg)
}

// logStatusHeader prints the run header for table output.
func logStatusHeader(ctx context.Context, cfg *contract.Config) {
	if shouldSuppressHeader(ctx) || cfg.Output != schema.TextOut {
		return
	}

	target := "all members"
	if cfg.MemberID != "" {
		target = cfg.MemberID
	}
	if cfg.UseEmojis {
		fmt.Printf("🔍 Compliance status for %s\n", target)
	} else {
		fmt.Printf("Compliance status for %s\n", target)
	}
}
