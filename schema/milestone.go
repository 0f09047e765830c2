package schema

import "time"

// ComplianceWindow is the evaluation period a member must satisfy. A member
// has at most one active window at a time. Range is half-open [Start, End).
type ComplianceWindow struct {
	MemberID  string     `json:"member_id"`
	Kind      WindowKind `json:"kind"`
	Start     time.Time  `json:"start"`
	End       time.Time  `json:"end"`
	Threshold int64      `json:"threshold"`
	Sequence  int        `json:"sequence"` // ordinal of this window for the member
}

// Range returns the window bounds as a DateRange.
func (w ComplianceWindow) Range() DateRange {
	return DateRange{Start: w.Start, End: w.End}
}

// MilestoneState is one recorded verdict for a member's window. Each window
// keeps a single state row that re-evaluations update until the verdict is
// final; finalized rows are never rewritten.
type MilestoneState struct {
	MemberID    string     `json:"member_id"`
	WindowKind  WindowKind `json:"window_kind"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	WindowSeq   int        `json:"window_seq"` // matches ComplianceWindow.Sequence
	Threshold   int64      `json:"threshold"`
	Points      int64      `json:"points"` // window total at evaluation time
	Computed    Verdict    `json:"computed"`
	Override    Verdict    `json:"override"` // VerdictNone when unset
	Forgiven    bool       `json:"forgiven"`
	Final       bool       `json:"final"` // window end reached, verdict closed
	EvaluatedAt time.Time  `json:"evaluated_at"`
}

// Effective returns the override when set, otherwise the computed verdict.
func (s MilestoneState) Effective() Verdict {
	if s.Override != VerdictNone {
		return s.Override
	}
	return s.Computed
}

// Member is the tracked lifecycle record for one team member.
type Member struct {
	MemberID  string     `json:"member_id"`
	Phase     Phase      `json:"phase"`
	Streak    int        `json:"streak"` // consecutive compliant monitoring windows
	RetiredAt *time.Time `json:"retired_at,omitempty"`
}

// Retired reports whether the member has been retired from tracking.
func (m Member) Retired() bool {
	return m.Phase == PhaseRetired
}
