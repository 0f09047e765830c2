// Package core has core logic for compliance evaluation, forecasting and
// member lifecycle management.
package core

import (
	"time"

	"github.com/farmsight/farmsight/schema"
)

// computeVerdict decides the verdict for a window given its running total.
// A verdict only exists once the window has fully elapsed; hitting the target
// early keeps the window open and is surfaced through pace fields instead, so
// the window cadence stays fixed.
func computeVerdict(window schema.ComplianceWindow, points int64, now time.Time) (verdict schema.Verdict, final bool) {
	if now.Before(window.End) {
		return schema.VerdictNone, false
	}
	if points >= window.Threshold {
		return schema.VerdictPass, true
	}
	return schema.VerdictFail, true
}

// deriveTransition compares two verdict states and returns the transition
// between them, or nil when the effective verdict and forgiveness flag are
// both unchanged. Same-state re-evaluations never produce log entries.
func deriveTransition(memberID string, kind schema.WindowKind, prev, next schema.MilestoneState, now time.Time) *schema.MilestoneTransition {
	prevEffective := prev.Effective()
	nextEffective := next.Effective()

	if prevEffective == nextEffective && prev.Forgiven == next.Forgiven {
		return nil
	}

	return &schema.MilestoneTransition{
		MemberID:       memberID,
		WindowKind:     kind,
		Previous:       prevEffective,
		New:            nextEffective,
		ForgivenBefore: prev.Forgiven,
		ForgivenAfter:  next.Forgiven,
		Timestamp:      now,
	}
}

// sameWindow reports whether a recorded state belongs to the given window.
// Verdict state never carries across windows: a fresh window starts from a
// clean slate. The sequence check matters when a successor window of the same
// kind opens on the day its predecessor closed, as both then share a start.
func sameWindow(state *schema.MilestoneState, window schema.ComplianceWindow) bool {
	return state != nil &&
		state.WindowKind == window.Kind &&
		state.WindowSeq == window.Sequence &&
		state.WindowStart.Equal(window.Start) &&
		state.WindowEnd.Equal(window.End)
}
