package schema

import "time"

// Recipient is a notification target with per-class subscriptions.
type Recipient struct {
	RecipientID string       `json:"recipient_id"`
	Classes     []EventClass `json:"classes"`
}

// SubscribedTo reports whether the recipient wants the given event class.
func (r Recipient) SubscribedTo(class EventClass) bool {
	for _, c := range r.Classes {
		if c == class {
			return true
		}
	}
	return false
}

// NotificationIntent is a decided notification, handed to an external
// dispatcher for delivery. The engine never delivers anything itself.
type NotificationIntent struct {
	RecipientID string              `json:"recipient_id"`
	Transition  MilestoneTransition `json:"transition"`
	MessageKind EventClass          `json:"message_kind"`
}

// Outcome results for notification decisions.
const (
	OutcomeNotified   = "notified"
	OutcomeSuppressed = "suppressed"
)

// NotificationOutcome is the audit record of a notification decision,
// including suppressions, which must stay observable rather than being
// silently dropped.
type NotificationOutcome struct {
	RecipientID string     `json:"recipient_id"`
	MemberID    string     `json:"member_id"`
	Class       EventClass `json:"class"`
	Result      string     `json:"result"`
	Timestamp   time.Time  `json:"timestamp"`
}

// NotificationBudget is the per-recipient anti-spam counter for the current
// period.
type NotificationBudget struct {
	RecipientID string    `json:"recipient_id"`
	PeriodStart time.Time `json:"period_start"`
	MaxSent     int       `json:"max_sent"`
	SentCount   int       `json:"sent_count"`
}
