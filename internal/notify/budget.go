// Package notify decides who hears about milestone transitions and enforces
// per-recipient notification budgets.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/farmsight/farmsight/schema"
)

// BudgetLedger tracks per-recipient send counts per budget period. Each
// recipient's state is a single packed uint64: the period index in the high
// 32 bits and the count in the low 32. One CAS both rolls the period over and
// claims a slot, so concurrent callers can never exceed the budget and the
// counter resets exactly once per period.
type BudgetLedger struct {
	max    int
	period time.Duration
	counts sync.Map // recipientID -> *atomic.Uint64
}

// NewBudgetLedger builds a ledger allowing max sends per recipient per
// period. Periods are tracked at second resolution, so anything shorter than
// a second is rounded up to one.
func NewBudgetLedger(max int, period time.Duration) *BudgetLedger {
	if period < time.Second {
		period = time.Second
	}
	return &BudgetLedger{max: max, period: period}
}

const countMask = uint64(1)<<32 - 1

func pack(period uint32, count uint32) uint64 {
	return uint64(period)<<32 | uint64(count)
}

// periodIndex maps a wall-clock instant to its budget period, counted from
// the Unix epoch.
func (l *BudgetLedger) periodIndex(now time.Time) uint32 {
	return uint32(now.UTC().Unix() / int64(l.period/time.Second))
}

// PeriodStart returns the start of the budget period containing now.
func (l *BudgetLedger) PeriodStart(now time.Time) time.Time {
	seconds := int64(l.period / time.Second)
	return time.Unix(now.UTC().Unix()/seconds*seconds, 0).UTC()
}

// Allow claims one send slot for the recipient in the period containing now.
// It returns false once the recipient's budget for the period is spent.
func (l *BudgetLedger) Allow(recipientID string, now time.Time) bool {
	entry, _ := l.counts.LoadOrStore(recipientID, &atomic.Uint64{})
	state := entry.(*atomic.Uint64)
	period := l.periodIndex(now)

	for {
		old := state.Load()
		oldPeriod := uint32(old >> 32)
		oldCount := uint32(old & countMask)

		var next uint64
		switch {
		case l.max < 1:
			return false
		case oldPeriod != period:
			// First claim of a new period.
			next = pack(period, 1)
		case int(oldCount) >= l.max:
			return false
		default:
			next = pack(period, oldCount+1)
		}

		if state.CompareAndSwap(old, next) {
			return true
		}
	}
}

// Seed primes a recipient's counter with sends already recorded during the
// period containing now, so budgets hold across process runs. A counter that
// is already ahead of the seed is left alone.
func (l *BudgetLedger) Seed(recipientID string, sent int, now time.Time) {
	if sent < 1 {
		return
	}

	entry, _ := l.counts.LoadOrStore(recipientID, &atomic.Uint64{})
	state := entry.(*atomic.Uint64)
	period := l.periodIndex(now)

	for {
		old := state.Load()
		if uint32(old>>32) == period && uint32(old&countMask) >= uint32(sent) {
			return
		}
		if state.CompareAndSwap(old, pack(period, uint32(sent))) {
			return
		}
	}
}

// Usage reports the recipient's budget state for the period containing now.
func (l *BudgetLedger) Usage(recipientID string, now time.Time) schema.NotificationBudget {
	budget := schema.NotificationBudget{
		RecipientID: recipientID,
		PeriodStart: l.PeriodStart(now),
		MaxSent:     l.max,
	}

	entry, ok := l.counts.Load(recipientID)
	if !ok {
		return budget
	}
	old := entry.(*atomic.Uint64).Load()
	if uint32(old>>32) == l.periodIndex(now) {
		budget.SentCount = int(uint32(old & countMask))
	}
	return budget
}
