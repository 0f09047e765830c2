package schema

import "time"

// Pace labels for an open window.
const (
	PaceOnTrack  = "on_track"
	PaceAtRisk   = "at_risk"
	PaceAchieved = "achieved"
)

// MemberStatus is the display-oriented snapshot of one member's compliance
// position, combining the lifecycle phase, the active window, pace metrics
// and the current verdict.
type MemberStatus struct {
	MemberID string `json:"member_id"`
	Phase    Phase  `json:"phase"`
	Streak   int    `json:"streak"`

	// Active window, zero-valued when the member has none.
	Window       ComplianceWindow `json:"window"`
	WindowPoints int64            `json:"window_points"`
	Remaining    int64            `json:"remaining"`
	DaysElapsed  int              `json:"days_elapsed"`
	DaysLeft     int              `json:"days_left"`

	// Pace metrics for an open window.
	DailyRate      float64 `json:"daily_rate"`
	DailyNeeded    float64 `json:"daily_needed"`
	ProjectedTotal float64 `json:"projected_total"`
	Pace           string  `json:"pace,omitempty"`

	// Verdict fields. Projected is advisory only and never finalizes state.
	Computed  Verdict `json:"computed"`
	Override  Verdict `json:"override"`
	Forgiven  bool    `json:"forgiven"`
	Effective Verdict `json:"effective"`
	Projected Verdict `json:"projected"`
}

// Urgency scores how badly a member needs attention, for ranking status
// output. Failed members sort first, then open windows by shortfall.
func (s MemberStatus) Urgency() float64 {
	switch {
	case s.Effective == VerdictFail && !s.Forgiven:
		return 3e18
	case s.Pace == PaceAtRisk:
		return 2e18 + float64(s.Remaining)
	case s.Pace == PaceOnTrack:
		return 1e18 + float64(s.Remaining)
	default:
		return float64(s.Remaining)
	}
}

// MemberEvaluation is the outcome of evaluating one member in a batch.
type MemberEvaluation struct {
	Status     MemberStatus         `json:"status"`
	Transition *MilestoneTransition `json:"transition,omitempty"`
	Finalized  bool                 `json:"finalized"`
}

// BatchResult summarizes one scheduled evaluation pass.
type BatchResult struct {
	StartedAt   time.Time             `json:"started_at"`
	Duration    time.Duration         `json:"duration"`
	Evaluated   int                   `json:"evaluated"`
	Skipped     int                   `json:"skipped"` // source failures, retried next cycle
	Transitions []MilestoneTransition `json:"transitions"`
	Intents     []NotificationIntent  `json:"intents"`
	Outcomes    []NotificationOutcome `json:"outcomes"`
}

// Suppressed counts the outcomes withheld by budget limits.
func (b BatchResult) Suppressed() int {
	n := 0
	for _, o := range b.Outcomes {
		if o.Result == OutcomeSuppressed {
			n++
		}
	}
	return n
}

// StoreStatus reports store health and row counts for the status command.
type StoreStatus struct {
	Backend      DatabaseBackend `json:"backend"`
	Location     string          `json:"location"`
	Records      int64           `json:"records"`
	Members      int64           `json:"members"`
	Windows      int64           `json:"windows"`
	Verdicts     int64           `json:"verdicts"`
	Transitions  int64           `json:"transitions"`
	Recipients   int64           `json:"recipients"`
	Outcomes     int64           `json:"outcomes"`
	SizeBytes    int64           `json:"size_bytes,omitempty"`
	OldestRecord time.Time       `json:"oldest_record,omitzero"`
	NewestRecord time.Time       `json:"newest_record,omitzero"`
}

// CacheStatus reports cache store health for the status command.
type CacheStatus struct {
	Backend  DatabaseBackend `json:"backend"`
	Location string          `json:"location"`
	Entries  int64           `json:"entries"`
}
