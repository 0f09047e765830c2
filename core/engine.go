package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// Engine owns the member lifecycle state machine. All mutations to a member
// go through a per-member lock, so concurrent evaluations and admin actions
// interleave safely without a store-level transaction.
type Engine struct {
	cfg    *contract.Config
	source contract.SeriesSource
	store  contract.ComplianceStore
	locks  sync.Map // memberID -> *sync.Mutex
}

// NewEngine builds an engine on top of the configured stores.
func NewEngine(cfg *contract.Config, mgr contract.StoreManager) *Engine {
	return &Engine{
		cfg:    cfg,
		source: mgr.GetSeriesStore(),
		store:  mgr.GetComplianceStore(),
	}
}

// lockMember acquires the member's mutex and returns the unlock function.
func (e *Engine) lockMember(memberID string) func() {
	entry, _ := e.locks.LoadOrStore(memberID, &sync.Mutex{})
	mu := entry.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// baselineState is the clean-slate comparison point for a window with no
// recorded verdict yet.
func baselineState() schema.MilestoneState {
	return schema.MilestoneState{
		Computed: schema.VerdictNone,
		Override: schema.VerdictNone,
	}
}

// StartProbation opens a probation window for a member, creating the member
// record on first contact. A member can only hold one active window.
func (e *Engine) StartProbation(ctx context.Context, memberID string, start time.Time) (*schema.ComplianceWindow, error) {
	unlock := e.lockMember(memberID)
	defer unlock()

	member, err := e.store.LoadMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member != nil && member.Retired() {
		return nil, fmt.Errorf("%w: %s", contract.ErrAlreadyRetired, memberID)
	}

	existing, err := e.store.LoadWindow(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", contract.ErrActiveWindowExists, memberID)
	}

	seq, err := e.nextSequence(ctx, memberID)
	if err != nil {
		return nil, err
	}

	window := e.buildWindow(memberID, schema.ProbationWindow, start, seq)
	if err := e.store.SaveWindow(ctx, window); err != nil {
		return nil, err
	}

	if member == nil {
		member = &schema.Member{MemberID: memberID}
	}
	member.Phase = schema.PhaseProbation
	member.Streak = 0
	if err := e.store.SaveMember(ctx, *member); err != nil {
		return nil, err
	}

	return &window, nil
}

// EvaluateMember runs one evaluation cycle for a member's active window:
// compute the window total, decide the verdict, record state, emit a
// transition when the effective verdict changed, and advance the lifecycle
// when the window closed.
func (e *Engine) EvaluateMember(ctx context.Context, memberID string, now time.Time) (*schema.MemberEvaluation, error) {
	unlock := e.lockMember(memberID)
	defer unlock()

	member, err := e.store.LoadMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %s", contract.ErrMemberNotFound, memberID)
	}
	if member.Retired() {
		return nil, fmt.Errorf("%w: %s", contract.ErrAlreadyRetired, memberID)
	}

	window, err := e.store.LoadWindow(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, fmt.Errorf("%w: %s", contract.ErrNoActiveWindow, memberID)
	}

	prev, err := e.store.LoadState(ctx, memberID)
	if err != nil {
		return nil, err
	}

	// A finalized verdict never changes on re-evaluation.
	if sameWindow(prev, *window) && prev.Final {
		status, err := e.buildStatus(ctx, *member, window, prev, now)
		if err != nil {
			return nil, err
		}
		return &schema.MemberEvaluation{Status: *status, Finalized: true}, nil
	}

	status, err := e.buildStatus(ctx, *member, window, prev, now)
	if err != nil {
		return nil, err
	}

	computed, final := computeVerdict(*window, status.WindowPoints, now)

	next := schema.MilestoneState{
		MemberID:    memberID,
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
		Threshold:   window.Threshold,
		Points:      status.WindowPoints,
		Computed:    computed,
		Override:    schema.VerdictNone,
		Final:       final,
		EvaluatedAt: now,
	}

	base := baselineState()
	if sameWindow(prev, *window) {
		base = *prev
		next.Override = prev.Override
		next.Forgiven = prev.Forgiven
	}

	transition := deriveTransition(memberID, window.Kind, base, next, now)

	if err := e.store.SaveState(ctx, next); err != nil {
		return nil, err
	}
	if transition != nil {
		if err := e.store.AppendTransition(ctx, *transition); err != nil {
			return nil, err
		}
	}

	if final {
		if err := e.advanceLifecycle(ctx, member, *window, next, now); err != nil {
			return nil, err
		}
	}

	status.Phase = member.Phase
	status.Streak = member.Streak
	applyVerdictFields(status, next)

	return &schema.MemberEvaluation{
		Status:     *status,
		Transition: transition,
		Finalized:  final,
	}, nil
}

// SetOverride records an admin override for the member's latest verdict.
// Overriding an open window to Pass or Fail closes it on the spot; clearing
// an override (VerdictNone) restores the computed verdict. Lifecycle changes
// already applied by an earlier finalization are not rewound.
func (e *Engine) SetOverride(ctx context.Context, memberID string, verdict schema.Verdict, now time.Time) (*schema.MilestoneTransition, error) {
	if _, ok := schema.ValidVerdicts[verdict]; !ok {
		return nil, fmt.Errorf("%w: unknown verdict %q", contract.ErrInvalidConfiguration, verdict)
	}

	unlock := e.lockMember(memberID)
	defer unlock()

	member, err := e.store.LoadMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %s", contract.ErrMemberNotFound, memberID)
	}

	prev, err := e.store.LoadState(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, fmt.Errorf("%w: %s has no recorded verdict", contract.ErrNoActiveWindow, memberID)
	}

	next := *prev
	next.Override = verdict
	next.EvaluatedAt = now
	if !prev.Final && verdict != schema.VerdictNone {
		next.Final = true
	}

	transition := deriveTransition(memberID, prev.WindowKind, *prev, next, now)
	if transition == nil {
		return nil, nil
	}

	if err := e.store.SaveState(ctx, next); err != nil {
		return nil, err
	}
	if err := e.store.AppendTransition(ctx, *transition); err != nil {
		return nil, err
	}

	if next.Final && !prev.Final {
		window, err := e.store.LoadWindow(ctx, memberID)
		if err != nil {
			return nil, err
		}
		if window != nil && sameWindow(&next, *window) {
			if err := e.advanceLifecycle(ctx, member, *window, next, now); err != nil {
				return nil, err
			}
		}
	}

	return transition, nil
}

// SetForgiven flips the forgiveness flag on the member's latest verdict.
// Forgiveness suppresses the consequences of a Fail without erasing it, and
// never finalizes an open window by itself.
func (e *Engine) SetForgiven(ctx context.Context, memberID string, forgiven bool, now time.Time) (*schema.MilestoneTransition, error) {
	unlock := e.lockMember(memberID)
	defer unlock()

	member, err := e.store.LoadMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, fmt.Errorf("%w: %s", contract.ErrMemberNotFound, memberID)
	}

	prev, err := e.store.LoadState(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return nil, fmt.Errorf("%w: %s has no recorded verdict", contract.ErrNoActiveWindow, memberID)
	}

	if prev.Forgiven == forgiven {
		return nil, nil
	}

	next := *prev
	next.Forgiven = forgiven
	next.EvaluatedAt = now

	transition := deriveTransition(memberID, prev.WindowKind, *prev, next, now)

	if err := e.store.SaveState(ctx, next); err != nil {
		return nil, err
	}
	if transition != nil {
		if err := e.store.AppendTransition(ctx, *transition); err != nil {
			return nil, err
		}
	}

	return transition, nil
}

// Retire removes a member from tracking. Any active window is closed without
// a verdict and no further evaluations run for the member.
func (e *Engine) Retire(ctx context.Context, memberID string, now time.Time) error {
	unlock := e.lockMember(memberID)
	defer unlock()

	member, err := e.store.LoadMember(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("%w: %s", contract.ErrMemberNotFound, memberID)
	}
	if member.Retired() {
		return fmt.Errorf("%w: %s", contract.ErrAlreadyRetired, memberID)
	}

	window, err := e.store.LoadWindow(ctx, memberID)
	if err != nil {
		return err
	}
	if window != nil {
		if err := e.store.CloseWindow(ctx, memberID); err != nil {
			return err
		}
	}

	member.Phase = schema.PhaseRetired
	retiredAt := now
	member.RetiredAt = &retiredAt
	return e.store.SaveMember(ctx, *member)
}

// buildStatus assembles the member's status snapshot from the series source.
func (e *Engine) buildStatus(ctx context.Context, member schema.Member, window *schema.ComplianceWindow, state *schema.MilestoneState, now time.Time) (*schema.MemberStatus, error) {
	return NewMemberStatusBuilder(e.cfg, e.source, member, now).
		WithWindow(window).
		FetchWindowPoints(ctx).
		ComputePace().
		WithVerdict(state).
		Build()
}

// buildWindow creates the next window of a kind from the configured policy,
// aligned to UTC day boundaries.
func (e *Engine) buildWindow(memberID string, kind schema.WindowKind, start time.Time, seq int) schema.ComplianceWindow {
	duration := e.cfg.ProbationDuration
	threshold := e.cfg.ProbationThreshold
	if kind == schema.MonitoringWindow {
		duration = e.cfg.MonitoringDuration
		threshold = e.cfg.MonitoringThreshold
	}

	day := contract.Day(start)
	return schema.ComplianceWindow{
		MemberID:  memberID,
		Kind:      kind,
		Start:     day,
		End:       day.Add(duration),
		Threshold: threshold,
		Sequence:  seq,
	}
}

// nextSequence derives the ordinal for a member's next window from the
// highest sequence already present in verdict history.
func (e *Engine) nextSequence(ctx context.Context, memberID string) (int, error) {
	history, err := e.store.VerdictHistory(ctx, memberID)
	if err != nil {
		return 0, err
	}

	highest := 0
	for _, s := range history {
		highest = max(highest, s.WindowSeq)
	}
	return highest + 1, nil
}

// advanceLifecycle applies the phase rules once a window has a final verdict.
// The next window, when one opens, starts on the day the verdict landed.
func (e *Engine) advanceLifecycle(ctx context.Context, member *schema.Member, window schema.ComplianceWindow, state schema.MilestoneState, now time.Time) error {
	if err := e.store.CloseWindow(ctx, member.MemberID); err != nil {
		return err
	}

	openNext := func(kind schema.WindowKind) error {
		next := e.buildWindow(member.MemberID, kind, now, window.Sequence+1)
		return e.store.SaveWindow(ctx, next)
	}

	effective := state.Effective()
	switch {
	case effective == schema.VerdictPass && window.Kind == schema.ProbationWindow:
		member.Phase = schema.PhaseMonitoring
		member.Streak = 0
		if err := openNext(schema.MonitoringWindow); err != nil {
			return err
		}

	case effective == schema.VerdictPass && window.Kind == schema.MonitoringWindow:
		member.Streak++
		if member.Streak >= e.cfg.ClearStreak {
			member.Phase = schema.PhaseCleared
		} else {
			if err := openNext(schema.MonitoringWindow); err != nil {
				return err
			}
		}

	case effective == schema.VerdictFail && state.Forgiven:
		// A forgiven failure keeps the member where they are: same kind of
		// window, streak untouched.
		if err := openNext(window.Kind); err != nil {
			return err
		}

	case effective == schema.VerdictFail:
		member.Phase = schema.PhaseProbation
		member.Streak = 0
		if err := openNext(schema.ProbationWindow); err != nil {
			return err
		}
	}

	return e.store.SaveMember(ctx, *member)
}
