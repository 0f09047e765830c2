package schema

import "time"

// MilestoneTransition is emitted when a member's effective verdict or
// forgiveness flag changes. Re-evaluating to the same effective state
// produces no transition. The transition log is append-only.
type MilestoneTransition struct {
	ID             int64      `json:"id,omitempty"`
	MemberID       string     `json:"member_id"`
	WindowKind     WindowKind `json:"window_kind"`
	Previous       Verdict    `json:"previous"`
	New            Verdict    `json:"new"`
	ForgivenBefore bool       `json:"forgiven_before"`
	ForgivenAfter  bool       `json:"forgiven_after"`
	Timestamp      time.Time  `json:"timestamp"`
}

// Class derives the notification class of the transition. A Fail reached in
// a monitoring window is a relapse, distinct from a first-time failure.
func (t MilestoneTransition) Class() EventClass {
	if t.ForgivenBefore != t.ForgivenAfter && t.Previous == t.New {
		return ClassForgiveness
	}
	switch t.New {
	case VerdictFail:
		if t.WindowKind == MonitoringWindow {
			return ClassRelapse
		}
		return ClassFail
	case VerdictPass:
		return ClassPass
	default:
		// Reaching VerdictNone only happens when an override is cleared on
		// an open window: the member is back to undecided, not passing.
		if t.ForgivenBefore != t.ForgivenAfter {
			return ClassForgiveness
		}
		return ClassReset
	}
}
