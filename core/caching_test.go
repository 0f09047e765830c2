package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

func TestCachedMemberStatusHit(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	cache := &contract.MockCacheStore{}
	engine := newTestEngine(series, store)

	member := schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}
	window := openWindow("alice", schema.ProbationWindow)
	now := windowStart.Add(30 * 24 * time.Hour)

	cached := schema.MemberStatus{MemberID: "alice", WindowPoints: 60, Pace: schema.PaceOnTrack}
	data, err := json.Marshal(cached)
	require.NoError(t, err)

	series.On("RecordCount", mock.Anything, "alice").Return(int64(12), nil)
	cache.On("Get", mock.Anything).Return(data, statusCacheVersion, now.Unix(), nil)

	status, err := cachedMemberStatus(context.Background(), engine, cache, member, window, nil, now)
	require.NoError(t, err)

	assert.Equal(t, int64(60), status.WindowPoints)
	series.AssertNotCalled(t, "FetchRecords", mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedMemberStatusMissPopulatesCache(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	cache := &contract.MockCacheStore{}
	engine := newTestEngine(series, store)

	member := schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}
	window := openWindow("alice", schema.ProbationWindow)
	now := windowStart.Add(30 * 24 * time.Hour)

	series.On("RecordCount", mock.Anything, "alice").Return(int64(12), nil)
	cache.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("cache miss"))
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 60), nil)
	cache.On("Set", mock.Anything, mock.Anything, statusCacheVersion, now.Unix()).Return(nil)

	status, err := cachedMemberStatus(context.Background(), engine, cache, member, window, nil, now)
	require.NoError(t, err)

	assert.Equal(t, int64(60), status.WindowPoints)
	cache.AssertExpectations(t)
}

func TestCachedMemberStatusRejectsStaleVersion(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	cache := &contract.MockCacheStore{}
	engine := newTestEngine(series, store)

	member := schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}
	window := openWindow("alice", schema.ProbationWindow)
	now := windowStart.Add(30 * 24 * time.Hour)

	data, err := json.Marshal(schema.MemberStatus{MemberID: "alice", WindowPoints: 999})
	require.NoError(t, err)

	series.On("RecordCount", mock.Anything, "alice").Return(int64(12), nil)
	cache.On("Get", mock.Anything).Return(data, statusCacheVersion-1, now.Unix(), nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 60), nil)
	cache.On("Set", mock.Anything, mock.Anything, statusCacheVersion, now.Unix()).Return(nil)

	status, err := cachedMemberStatus(context.Background(), engine, cache, member, window, nil, now)
	require.NoError(t, err)

	// The versioned entry is ignored and the snapshot rebuilt.
	assert.Equal(t, int64(60), status.WindowPoints)
}

func TestCachedMemberStatusExpiredEntry(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	cache := &contract.MockCacheStore{}
	engine := newTestEngine(series, store)

	member := schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}
	window := openWindow("alice", schema.ProbationWindow)
	now := windowStart.Add(30 * 24 * time.Hour)

	data, err := json.Marshal(schema.MemberStatus{MemberID: "alice", WindowPoints: 999})
	require.NoError(t, err)

	stale := time.Now().Add(-statusCacheTTL - time.Hour).Unix()
	series.On("RecordCount", mock.Anything, "alice").Return(int64(12), nil)
	cache.On("Get", mock.Anything).Return(data, statusCacheVersion, stale, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 60), nil)
	cache.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	status, err := cachedMemberStatus(context.Background(), engine, cache, member, window, nil, now)
	require.NoError(t, err)
	assert.Equal(t, int64(60), status.WindowPoints)
}

func TestCachedMemberStatusWithoutCache(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	member := schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}
	window := openWindow("alice", schema.ProbationWindow)
	now := windowStart.Add(30 * 24 * time.Hour)

	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 60), nil)

	status, err := cachedMemberStatus(context.Background(), engine, nil, member, window, nil, now)
	require.NoError(t, err)

	assert.Equal(t, int64(60), status.WindowPoints)
	series.AssertNotCalled(t, "RecordCount", mock.Anything, mock.Anything)
}

func TestStatusCacheKeyChangesWithInputs(t *testing.T) {
	window := *openWindow("alice", schema.ProbationWindow)
	now := windowStart.Add(30 * 24 * time.Hour)

	keyFor := func(count int64, now time.Time, state *schema.MilestoneState) string {
		series := &contract.MockSeriesStore{}
		series.On("RecordCount", mock.Anything, "alice").Return(count, nil)
		key, err := statusCacheKey(context.Background(), series, "alice", window, state, now)
		require.NoError(t, err)
		return key
	}

	base := keyFor(12, now, nil)
	assert.Equal(t, base, keyFor(12, now.Add(time.Hour), nil)) // same day, same key
	assert.NotEqual(t, base, keyFor(13, now, nil))
	assert.NotEqual(t, base, keyFor(12, now.Add(24*time.Hour), nil))
	assert.NotEqual(t, base, keyFor(12, now, &schema.MilestoneState{Computed: schema.VerdictFail, Override: schema.VerdictNone, Final: true}))

	// A successor window sharing the same bounds still gets its own key.
	successor := window
	successor.Sequence = 2
	series := &contract.MockSeriesStore{}
	series.On("RecordCount", mock.Anything, "alice").Return(int64(12), nil)
	successorKey, err := statusCacheKey(context.Background(), series, "alice", successor, nil, now)
	require.NoError(t, err)
	assert.NotEqual(t, base, successorKey)
}

func TestStatusCacheKeySourceFailure(t *testing.T) {
	series := &contract.MockSeriesStore{}
	series.On("RecordCount", mock.Anything, "alice").Return(int64(0), errors.New("connection refused"))

	_, err := statusCacheKey(context.Background(), series, "alice", *openWindow("alice", schema.ProbationWindow), nil, windowStart)
	assert.ErrorIs(t, err, contract.ErrSourceUnavailable)
}
