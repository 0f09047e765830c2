package notify

import (
	"time"

	"github.com/farmsight/farmsight/schema"
)

// Policy turns milestone transitions into notification intents, filtered by
// recipient subscriptions and throttled by the budget ledger. Suppressions
// are recorded as outcomes instead of disappearing.
type Policy struct {
	budget *BudgetLedger
}

// NewPolicy builds a policy around a shared budget ledger.
func NewPolicy(budget *BudgetLedger) *Policy {
	return &Policy{budget: budget}
}

// Evaluate fans one transition out to the subscribed recipients. Every
// subscribed recipient produces exactly one outcome row; only recipients with
// budget left also produce an intent.
func (p *Policy) Evaluate(transition schema.MilestoneTransition, recipients []schema.Recipient, now time.Time) ([]schema.NotificationIntent, []schema.NotificationOutcome) {
	class := transition.Class()

	var intents []schema.NotificationIntent
	var outcomes []schema.NotificationOutcome

	for _, recipient := range recipients {
		if !recipient.SubscribedTo(class) {
			continue
		}

		outcome := schema.NotificationOutcome{
			RecipientID: recipient.RecipientID,
			MemberID:    transition.MemberID,
			Class:       class,
			Timestamp:   now,
		}

		if p.budget.Allow(recipient.RecipientID, now) {
			outcome.Result = schema.OutcomeNotified
			intents = append(intents, schema.NotificationIntent{
				RecipientID: recipient.RecipientID,
				Transition:  transition,
				MessageKind: class,
			})
		} else {
			outcome.Result = schema.OutcomeSuppressed
		}
		outcomes = append(outcomes, outcome)
	}

	return intents, outcomes
}
