package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/internal/notify"
	"github.com/farmsight/farmsight/schema"
)

// evalOutcome carries one member's result out of the worker pool.
type evalOutcome struct {
	memberID   string
	evaluation *schema.MemberEvaluation
	err        error
}

// RunBatch evaluates every member with an active window using a worker pool,
// then routes the resulting transitions through the notification policy.
// Members whose series source is unavailable are skipped and retried on the
// next cycle; any other member error aborts the batch.
func RunBatch(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager, dispatcher contract.Dispatcher) (*schema.BatchResult, error) {
	start := time.Now()
	engine := NewEngine(cfg, mgr)
	store := mgr.GetComplianceStore()

	windows, err := store.ListActiveWindows(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := evaluateAll(ctx, cfg, engine, windows, start)

	result := &schema.BatchResult{StartedAt: start}
	for _, out := range outcomes {
		switch {
		case out.err == nil:
			result.Evaluated++
			if out.evaluation.Transition != nil {
				result.Transitions = append(result.Transitions, *out.evaluation.Transition)
			}
		case errors.Is(out.err, contract.ErrSourceUnavailable):
			result.Skipped++
			contract.LogWarn("skipping member "+out.memberID, out.err)
		case errors.Is(out.err, context.Canceled):
			return nil, out.err
		default:
			return nil, out.err
		}
	}

	if err := notifyTransitions(ctx, cfg, store, dispatcher, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	return result, nil
}

// evaluateAll fans the windows out over cfg.Workers goroutines. Each worker
// checks for cancellation before picking up the next member, so a canceled
// batch stops at a member boundary instead of mid-write.
func evaluateAll(ctx context.Context, cfg *contract.Config, engine *Engine, windows []schema.ComplianceWindow, now time.Time) []evalOutcome {
	windowCh := make(chan schema.ComplianceWindow, len(windows))
	outcomeCh := make(chan evalOutcome, len(windows))

	var wg sync.WaitGroup
	for range cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for window := range windowCh {
				select {
				case <-ctx.Done():
					outcomeCh <- evalOutcome{memberID: window.MemberID, err: ctx.Err()}
					continue
				default:
				}

				evaluation, err := engine.EvaluateMember(ctx, window.MemberID, now)
				outcomeCh <- evalOutcome{memberID: window.MemberID, evaluation: evaluation, err: err}
			}
		}()
	}

	for _, window := range windows {
		windowCh <- window
	}
	close(windowCh)
	wg.Wait()
	close(outcomeCh)

	outcomes := make([]evalOutcome, 0, len(windows))
	for out := range outcomeCh {
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// notifyTransitions fans the batch's transitions out to recipients, hands
// intents to the dispatcher, and records every outcome, suppressed ones
// included.
func notifyTransitions(ctx context.Context, cfg *contract.Config, store contract.ComplianceStore, dispatcher contract.Dispatcher, result *schema.BatchResult) error {
	if len(result.Transitions) == 0 {
		return nil
	}

	recipients, err := store.ListRecipients(ctx)
	if err != nil {
		return err
	}

	ledger := notify.NewBudgetLedger(cfg.BudgetMax, cfg.BudgetPeriod)
	now := time.Now()

	// Seed the ledger from the audit log so sends recorded by earlier runs
	// inside the same period still count against the budget.
	sent, err := store.CountNotifiedSince(ctx, ledger.PeriodStart(now))
	if err != nil {
		return err
	}
	for recipientID, n := range sent {
		ledger.Seed(recipientID, n, now)
	}

	policy := notify.NewPolicy(ledger)

	for _, transition := range result.Transitions {
		intents, outcomes := policy.Evaluate(transition, recipients, now)

		for _, intent := range intents {
			if err := dispatcher.Dispatch(ctx, intent); err != nil {
				// Delivery failures are the dispatcher's problem; the
				// decision is already recorded.
				contract.LogWarn("dispatch to "+intent.RecipientID+" failed", err)
			}
		}
		for _, outcome := range outcomes {
			if err := store.AppendOutcome(ctx, outcome); err != nil {
				return err
			}
		}

		result.Intents = append(result.Intents, intents...)
		result.Outcomes = append(result.Outcomes, outcomes...)
	}

	return nil
}
