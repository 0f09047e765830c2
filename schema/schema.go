// Package schema holds the public data model shared by the compliance engine,
// the stores and the output writers. It contains pure data structures without
// any business logic beyond simple derivations.
package schema

import "time"

// ContributionRecord is a single day of earned points for one member.
// Points are the delta earned on that day, not the running leaderboard total;
// ingestion converts cumulative snapshots into deltas. Records are immutable
// once ingested.
type ContributionRecord struct {
	MemberID string    `json:"member_id"`
	Date     time.Time `json:"date"`
	Points   int64     `json:"points"`
}

// DateRange is a half-open interval [Start, End).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the half-open range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// IsValid reports whether the range is well formed.
func (r DateRange) IsValid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.Before(r.End)
}
