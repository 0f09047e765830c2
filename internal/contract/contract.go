// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/farmsight/farmsight/schema"
)

// Sentinel errors in the engine's taxonomy. Callers match with errors.Is.
var (
	// ErrNoActiveWindow is returned when a member is evaluated without an
	// active compliance window.
	ErrNoActiveWindow = errors.New("no active compliance window")

	// ErrSourceUnavailable means a series fetch failed. The member's
	// evaluation is skipped for this cycle and retried next cycle; it is
	// never treated as a Fail.
	ErrSourceUnavailable = errors.New("series source unavailable")

	// ErrInvalidConfiguration rejects malformed parameters before any
	// computation runs.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrAlreadyRetired is returned when retiring a retired member.
	ErrAlreadyRetired = errors.New("member already retired")

	// ErrActiveWindowExists rejects opening a second concurrent window.
	ErrActiveWindowExists = errors.New("member already has an active window")

	// ErrMemberNotFound is returned for admin actions on unknown members.
	ErrMemberNotFound = errors.New("member not found")
)

// SeriesSource delivers validated contribution records for a member.
// Implementations must return strictly date-ordered, deduplicated records or
// fail with ErrSourceUnavailable.
type SeriesSource interface {
	// FetchRecords returns the member's daily records inside the half-open range.
	FetchRecords(ctx context.Context, memberID string, rng schema.DateRange) ([]schema.ContributionRecord, error)

	// RecordCount returns how many records exist for the member, used for
	// cache invalidation.
	RecordCount(ctx context.Context, memberID string) (int64, error)
}

// SeriesStore extends SeriesSource with ingestion. Duplicate (member, date)
// pairs overwrite on ingest.
type SeriesStore interface {
	SeriesSource

	// AppendRecords upserts a batch of daily records.
	AppendRecords(ctx context.Context, records []schema.ContributionRecord) error

	// Close closes the underlying connection.
	Close() error
}

// ComplianceStore persists members, windows, verdict history, the transition
// log, recipients and notification outcomes. Calls are assumed durable once
// they return success.
type ComplianceStore interface {
	// --- Members ---

	LoadMember(ctx context.Context, memberID string) (*schema.Member, error)
	SaveMember(ctx context.Context, m schema.Member) error
	ListMembers(ctx context.Context) ([]schema.Member, error)

	// --- Windows ---

	// LoadWindow returns the member's active window, or nil when none exists.
	LoadWindow(ctx context.Context, memberID string) (*schema.ComplianceWindow, error)
	SaveWindow(ctx context.Context, w schema.ComplianceWindow) error
	CloseWindow(ctx context.Context, memberID string) error
	ListActiveWindows(ctx context.Context) ([]schema.ComplianceWindow, error)

	// --- Verdicts ---

	// SaveState inserts or updates the verdict row for the state's window.
	// Each window keeps exactly one row; finalized rows are never rewritten
	// by the engine.
	SaveState(ctx context.Context, s schema.MilestoneState) error
	// LoadState returns the member's most recent verdict row, or nil.
	LoadState(ctx context.Context, memberID string) (*schema.MilestoneState, error)
	VerdictHistory(ctx context.Context, memberID string) ([]schema.MilestoneState, error)

	// --- Transitions ---

	AppendTransition(ctx context.Context, t schema.MilestoneTransition) error
	ListTransitions(ctx context.Context, memberID string, limit int) ([]schema.MilestoneTransition, error)

	// --- Recipients ---

	ListRecipients(ctx context.Context) ([]schema.Recipient, error)
	SaveRecipient(ctx context.Context, r schema.Recipient) error
	DeleteRecipient(ctx context.Context, recipientID string) error

	// --- Notification audit ---

	AppendOutcome(ctx context.Context, o schema.NotificationOutcome) error
	ListOutcomes(ctx context.Context, recipientID string, limit int) ([]schema.NotificationOutcome, error)
	// CountNotifiedSince counts notified outcomes per recipient at or after
	// the given instant. Budget ledgers seed from it so per-period limits
	// hold across evaluation runs.
	CountNotifiedSince(ctx context.Context, since time.Time) (map[string]int, error)

	// GetStatus returns row counts for the store status command.
	GetStatus(ctx context.Context) (schema.StoreStatus, error)

	// Close closes the underlying connection.
	Close() error
}

// CacheStore is the key/value cache for computed member statuses.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// Dispatcher delivers notification intents. The engine only hands over
// intents; delivery, retries and failures are the dispatcher's concern.
type Dispatcher interface {
	Dispatch(ctx context.Context, intent schema.NotificationIntent) error
}

// StoreManager provides access to the configured stores. It allows the
// persistence layer to be mocked for testing.
type StoreManager interface {
	GetSeriesStore() SeriesStore
	GetComplianceStore() ComplianceStore
	GetCacheStore() CacheStore
}
