package core

import (
	"context"
	"fmt"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// MemberStatusBuilder assembles a member's status snapshot step by step:
// window totals first, then pace metrics, then the verdict fields.
type MemberStatusBuilder struct {
	cfg    *contract.Config
	source contract.SeriesSource
	status *schema.MemberStatus
	window *schema.ComplianceWindow
	now    time.Time
	err    error
}

// NewMemberStatusBuilder is the starting point for building a status snapshot.
func NewMemberStatusBuilder(cfg *contract.Config, source contract.SeriesSource, member schema.Member, now time.Time) *MemberStatusBuilder {
	return &MemberStatusBuilder{
		cfg:    cfg,
		source: source,
		now:    now,
		status: &schema.MemberStatus{
			MemberID: member.MemberID,
			Phase:    member.Phase,
			Streak:   member.Streak,
		},
	}
}

// WithWindow attaches the member's active window. A nil window leaves the
// snapshot without pace metrics, which is valid for cleared or retired
// members.
func (b *MemberStatusBuilder) WithWindow(window *schema.ComplianceWindow) *MemberStatusBuilder {
	if window != nil {
		b.window = window
		b.status.Window = *window
	}
	return b
}

// FetchWindowPoints pulls the member's records for the window range and sums
// them. Source failures surface as ErrSourceUnavailable so callers can skip
// instead of failing the member.
func (b *MemberStatusBuilder) FetchWindowPoints(ctx context.Context) *MemberStatusBuilder {
	if b.err != nil || b.window == nil {
		return b
	}

	records, err := b.source.FetchRecords(ctx, b.status.MemberID, b.window.Range())
	if err != nil {
		b.err = fmt.Errorf("%w: %v", contract.ErrSourceUnavailable, err)
		return b
	}

	var total int64
	for _, rec := range records {
		if b.window.Range().Contains(rec.Date) {
			total += rec.Points
		}
	}

	b.status.WindowPoints = total
	b.status.Remaining = max(b.window.Threshold-total, 0)
	return b
}

// ComputePace derives elapsed/left day counts, daily rates and the advisory
// projection for an open window.
func (b *MemberStatusBuilder) ComputePace() *MemberStatusBuilder {
	if b.err != nil || b.window == nil {
		return b
	}

	totalDays := contract.DaysBetween(b.window.Start, b.window.End)
	elapsed := contract.DaysBetween(b.window.Start, b.now)
	elapsed = min(max(elapsed, 0), totalDays)

	b.status.DaysElapsed = elapsed
	b.status.DaysLeft = totalDays - elapsed

	if elapsed > 0 {
		b.status.DailyRate = float64(b.status.WindowPoints) / float64(elapsed)
	} else {
		b.status.DailyRate = float64(b.status.WindowPoints)
	}
	if b.status.DaysLeft > 0 {
		b.status.DailyNeeded = float64(b.status.Remaining) / float64(b.status.DaysLeft)
	} else {
		b.status.DailyNeeded = float64(b.status.Remaining)
	}

	b.status.ProjectedTotal = float64(b.status.WindowPoints) + b.status.DailyRate*float64(b.status.DaysLeft)

	switch {
	case b.status.WindowPoints >= b.window.Threshold:
		b.status.Pace = schema.PaceAchieved
	case b.status.DaysLeft <= b.cfg.AtRiskDaysLeft:
		b.status.Pace = schema.PaceAtRisk
	case b.status.ProjectedTotal < float64(b.window.Threshold):
		b.status.Pace = schema.PaceAtRisk
	default:
		b.status.Pace = schema.PaceOnTrack
	}

	// Advisory only. The projected verdict never finalizes anything.
	if b.status.ProjectedTotal >= float64(b.window.Threshold) {
		b.status.Projected = schema.VerdictPass
	} else {
		b.status.Projected = schema.VerdictFail
	}

	return b
}

// WithVerdict copies the verdict fields from the member's recorded state,
// when that state belongs to the attached window.
func (b *MemberStatusBuilder) WithVerdict(state *schema.MilestoneState) *MemberStatusBuilder {
	if b.err != nil {
		return b
	}

	if b.window != nil && sameWindow(state, *b.window) {
		b.status.Computed = state.Computed
		b.status.Override = state.Override
		b.status.Forgiven = state.Forgiven
		b.status.Effective = state.Effective()
	} else {
		b.status.Computed = schema.VerdictNone
		b.status.Override = schema.VerdictNone
		b.status.Effective = schema.VerdictNone
	}
	return b
}

// applyVerdictFields copies a freshly computed state onto a status snapshot.
func applyVerdictFields(status *schema.MemberStatus, state schema.MilestoneState) {
	status.Computed = state.Computed
	status.Override = state.Override
	status.Forgiven = state.Forgiven
	status.Effective = state.Effective()
}

// Build returns the assembled status or the first error hit along the way.
func (b *MemberStatusBuilder) Build() (*schema.MemberStatus, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.status, nil
}
