package contract

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/farmsight/farmsight/schema"
)

// MockSeriesStore is a mock implementation of SeriesStore for testing.
type MockSeriesStore struct {
	mock.Mock
}

var _ SeriesStore = &MockSeriesStore{} // Compile-time check

// FetchRecords implements the SeriesSource interface.
func (m *MockSeriesStore) FetchRecords(ctx context.Context, memberID string, rng schema.DateRange) ([]schema.ContributionRecord, error) {
	args := m.Called(ctx, memberID, rng)
	records, _ := args.Get(0).([]schema.ContributionRecord)
	return records, args.Error(1)
}

// RecordCount implements the SeriesSource interface.
func (m *MockSeriesStore) RecordCount(ctx context.Context, memberID string) (int64, error) {
	args := m.Called(ctx, memberID)
	return args.Get(0).(int64), args.Error(1)
}

// AppendRecords implements the SeriesStore interface.
func (m *MockSeriesStore) AppendRecords(ctx context.Context, records []schema.ContributionRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// Close implements the SeriesStore interface.
func (m *MockSeriesStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockComplianceStore is a mock implementation of ComplianceStore for testing.
type MockComplianceStore struct {
	mock.Mock
}

var _ ComplianceStore = &MockComplianceStore{} // Compile-time check

// LoadMember implements the ComplianceStore interface.
func (m *MockComplianceStore) LoadMember(ctx context.Context, memberID string) (*schema.Member, error) {
	args := m.Called(ctx, memberID)
	member, _ := args.Get(0).(*schema.Member)
	return member, args.Error(1)
}

// SaveMember implements the ComplianceStore interface.
func (m *MockComplianceStore) SaveMember(ctx context.Context, member schema.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// ListMembers implements the ComplianceStore interface.
func (m *MockComplianceStore) ListMembers(ctx context.Context) ([]schema.Member, error) {
	args := m.Called(ctx)
	members, _ := args.Get(0).([]schema.Member)
	return members, args.Error(1)
}

// LoadWindow implements the ComplianceStore interface.
func (m *MockComplianceStore) LoadWindow(ctx context.Context, memberID string) (*schema.ComplianceWindow, error) {
	args := m.Called(ctx, memberID)
	window, _ := args.Get(0).(*schema.ComplianceWindow)
	return window, args.Error(1)
}

// SaveWindow implements the ComplianceStore interface.
func (m *MockComplianceStore) SaveWindow(ctx context.Context, w schema.ComplianceWindow) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

// CloseWindow implements the ComplianceStore interface.
func (m *MockComplianceStore) CloseWindow(ctx context.Context, memberID string) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

// ListActiveWindows implements the ComplianceStore interface.
func (m *MockComplianceStore) ListActiveWindows(ctx context.Context) ([]schema.ComplianceWindow, error) {
	args := m.Called(ctx)
	windows, _ := args.Get(0).([]schema.ComplianceWindow)
	return windows, args.Error(1)
}

// SaveState implements the ComplianceStore interface.
func (m *MockComplianceStore) SaveState(ctx context.Context, s schema.MilestoneState) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

// LoadState implements the ComplianceStore interface.
func (m *MockComplianceStore) LoadState(ctx context.Context, memberID string) (*schema.MilestoneState, error) {
	args := m.Called(ctx, memberID)
	state, _ := args.Get(0).(*schema.MilestoneState)
	return state, args.Error(1)
}

// VerdictHistory implements the ComplianceStore interface.
func (m *MockComplianceStore) VerdictHistory(ctx context.Context, memberID string) ([]schema.MilestoneState, error) {
	args := m.Called(ctx, memberID)
	states, _ := args.Get(0).([]schema.MilestoneState)
	return states, args.Error(1)
}

// AppendTransition implements the ComplianceStore interface.
func (m *MockComplianceStore) AppendTransition(ctx context.Context, t schema.MilestoneTransition) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

// ListTransitions implements the ComplianceStore interface.
func (m *MockComplianceStore) ListTransitions(ctx context.Context, memberID string, limit int) ([]schema.MilestoneTransition, error) {
	args := m.Called(ctx, memberID, limit)
	transitions, _ := args.Get(0).([]schema.MilestoneTransition)
	return transitions, args.Error(1)
}

// ListRecipients implements the ComplianceStore interface.
func (m *MockComplianceStore) ListRecipients(ctx context.Context) ([]schema.Recipient, error) {
	args := m.Called(ctx)
	recipients, _ := args.Get(0).([]schema.Recipient)
	return recipients, args.Error(1)
}

// SaveRecipient implements the ComplianceStore interface.
func (m *MockComplianceStore) SaveRecipient(ctx context.Context, r schema.Recipient) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// DeleteRecipient implements the ComplianceStore interface.
func (m *MockComplianceStore) DeleteRecipient(ctx context.Context, recipientID string) error {
	args := m.Called(ctx, recipientID)
	return args.Error(0)
}

// AppendOutcome implements the ComplianceStore interface.
func (m *MockComplianceStore) AppendOutcome(ctx context.Context, o schema.NotificationOutcome) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

// ListOutcomes implements the ComplianceStore interface.
func (m *MockComplianceStore) ListOutcomes(ctx context.Context, recipientID string, limit int) ([]schema.NotificationOutcome, error) {
	args := m.Called(ctx, recipientID, limit)
	outcomes, _ := args.Get(0).([]schema.NotificationOutcome)
	return outcomes, args.Error(1)
}

// CountNotifiedSince implements the ComplianceStore interface.
func (m *MockComplianceStore) CountNotifiedSince(ctx context.Context, since time.Time) (map[string]int, error) {
	args := m.Called(ctx, since)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

// GetStatus implements the ComplianceStore interface.
func (m *MockComplianceStore) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	args := m.Called(ctx)
	status, _ := args.Get(0).(schema.StoreStatus)
	return status, args.Error(1)
}

// Close implements the ComplianceStore interface.
func (m *MockComplianceStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockCacheStore is a mock implementation of CacheStore for testing.
type MockCacheStore struct {
	mock.Mock
}

var _ CacheStore = &MockCacheStore{} // Compile-time check

// Get implements the CacheStore interface.
func (m *MockCacheStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	data, _ := args.Get(0).([]byte)
	return data, args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the CacheStore interface.
func (m *MockCacheStore) Set(key string, value []byte, version int, timestamp int64) error {
	args := m.Called(key, value, version, timestamp)
	return args.Error(0)
}

// GetStatus implements the CacheStore interface.
func (m *MockCacheStore) GetStatus() (schema.CacheStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.CacheStatus)
	return status, args.Error(1)
}

// Close implements the CacheStore interface.
func (m *MockCacheStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockDispatcher is a mock implementation of Dispatcher for testing.
type MockDispatcher struct {
	mock.Mock
}

var _ Dispatcher = &MockDispatcher{} // Compile-time check

// Dispatch implements the Dispatcher interface.
func (m *MockDispatcher) Dispatch(ctx context.Context, intent schema.NotificationIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ StoreManager = &MockStoreManager{} // Compile-time check

// GetSeriesStore implements the StoreManager interface.
func (m *MockStoreManager) GetSeriesStore() SeriesStore {
	ret := m.Called()
	store, _ := ret.Get(0).(SeriesStore)
	return store
}

// GetComplianceStore implements the StoreManager interface.
func (m *MockStoreManager) GetComplianceStore() ComplianceStore {
	ret := m.Called()
	store, _ := ret.Get(0).(ComplianceStore)
	return store
}

// GetCacheStore implements the StoreManager interface.
func (m *MockStoreManager) GetCacheStore() CacheStore {
	ret := m.Called()
	store, _ := ret.Get(0).(CacheStore)
	return store
}
