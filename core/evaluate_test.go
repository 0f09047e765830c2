package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

func newTestManager(series *contract.MockSeriesStore, store *contract.MockComplianceStore) *contract.MockStoreManager {
	mgr := &contract.MockStoreManager{}
	mgr.On("GetSeriesStore").Return(series)
	mgr.On("GetComplianceStore").Return(store)
	mgr.On("GetCacheStore").Return(nil)
	return mgr
}

func TestRunBatchEvaluatesAndNotifies(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	aliceWindow := *openWindow("alice", schema.ProbationWindow)
	store.On("ListActiveWindows", mock.Anything).Return([]schema.ComplianceWindow{aliceWindow}, nil)

	// Alice cleared the threshold and the window has elapsed, so the batch
	// finalizes a Pass.
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(&aliceWindow, nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 150), nil)
	store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	store.On("ListRecipients", mock.Anything).Return([]schema.Recipient{
		{RecipientID: "lead", Classes: []schema.EventClass{schema.ClassPass, schema.ClassFail}},
		{RecipientID: "bot", Classes: []schema.EventClass{schema.ClassRelapse}},
	}, nil)
	store.On("CountNotifiedSince", mock.Anything, mock.Anything).Return(nil, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(i schema.NotificationIntent) bool {
		return i.RecipientID == "lead" && i.MessageKind == schema.ClassPass
	})).Return(nil)
	store.On("AppendOutcome", mock.Anything, mock.Anything).Return(nil)

	result, err := RunBatch(context.Background(), testConfig(), mgr, dispatcher)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Evaluated)
	assert.Equal(t, 0, result.Skipped)
	require.Len(t, result.Transitions, 1)
	assert.Equal(t, schema.VerdictPass, result.Transitions[0].New)
	require.Len(t, result.Intents, 1)
	assert.Equal(t, "lead", result.Intents[0].RecipientID)
	// Unsubscribed recipients get no outcome row at all.
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, schema.OutcomeNotified, result.Outcomes[0].Result)
	assert.Positive(t, result.Duration)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestRunBatchSkipsUnavailableSource(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	bobWindow := *openWindow("bob", schema.ProbationWindow)
	store.On("ListActiveWindows", mock.Anything).Return([]schema.ComplianceWindow{bobWindow}, nil)

	store.On("LoadMember", mock.Anything, "bob").Return(&schema.Member{MemberID: "bob", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "bob").Return(&bobWindow, nil)
	store.On("LoadState", mock.Anything, "bob").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "bob", mock.Anything).Return(nil, errors.New("connection refused"))

	result, err := RunBatch(context.Background(), testConfig(), mgr, dispatcher)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Evaluated)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.Transitions)
	store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ListRecipients", mock.Anything)
}

func TestRunBatchAbortsOnStoreError(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	window := *openWindow("alice", schema.ProbationWindow)
	boom := errors.New("disk full")
	store.On("ListActiveWindows", mock.Anything).Return([]schema.ComplianceWindow{window}, nil)
	store.On("LoadMember", mock.Anything, "alice").Return(nil, boom)

	_, err := RunBatch(context.Background(), testConfig(), mgr, dispatcher)
	assert.ErrorIs(t, err, boom)
}

func TestRunBatchCanceledContext(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	windows := []schema.ComplianceWindow{
		*openWindow("alice", schema.ProbationWindow),
		*openWindow("bob", schema.ProbationWindow),
	}
	store.On("ListActiveWindows", mock.Anything).Return(windows, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunBatch(ctx, testConfig(), mgr, dispatcher)
	assert.ErrorIs(t, err, context.Canceled)
	store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
}

func TestRunBatchNoActiveWindows(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	store.On("ListActiveWindows", mock.Anything).Return(nil, nil)

	result, err := RunBatch(context.Background(), testConfig(), mgr, dispatcher)
	require.NoError(t, err)

	assert.Zero(t, result.Evaluated)
	assert.Empty(t, result.Transitions)
	store.AssertNotCalled(t, "ListRecipients", mock.Anything)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}

func TestRunBatchRecordsDispatchFailuresAsNotified(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	window := *openWindow("alice", schema.ProbationWindow)
	store.On("ListActiveWindows", mock.Anything).Return([]schema.ComplianceWindow{window}, nil)
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(&window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 150), nil)
	store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	store.On("ListRecipients", mock.Anything).Return([]schema.Recipient{
		{RecipientID: "lead", Classes: []schema.EventClass{schema.ClassPass}},
	}, nil)
	store.On("CountNotifiedSince", mock.Anything, mock.Anything).Return(nil, nil)
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(errors.New("smtp timeout"))
	store.On("AppendOutcome", mock.Anything, mock.Anything).Return(nil)

	// Delivery failure does not fail the batch; the decision stands and is
	// recorded.
	result, err := RunBatch(context.Background(), testConfig(), mgr, dispatcher)
	require.NoError(t, err)

	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, schema.OutcomeNotified, result.Outcomes[0].Result)
}

func TestRunBatchBudgetCountsEarlierRuns(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	dispatcher := &contract.MockDispatcher{}
	mgr := newTestManager(series, store)

	window := *openWindow("alice", schema.ProbationWindow)
	store.On("ListActiveWindows", mock.Anything).Return([]schema.ComplianceWindow{window}, nil)
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(&window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).
		Return(pointsOn("alice", windowStart.Add(24*time.Hour), 150), nil)
	store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveMember", mock.Anything, mock.Anything).Return(nil)

	store.On("ListRecipients", mock.Anything).Return([]schema.Recipient{
		{RecipientID: "lead", Classes: []schema.EventClass{schema.ClassPass}},
	}, nil)
	// An earlier batch in the same period already spent the lead's budget.
	store.On("CountNotifiedSince", mock.Anything, mock.Anything).Return(map[string]int{"lead": 1}, nil)
	store.On("AppendOutcome", mock.Anything, mock.Anything).Return(nil)

	cfg := testConfig()
	cfg.BudgetMax = 1

	result, err := RunBatch(context.Background(), cfg, mgr, dispatcher)
	require.NoError(t, err)

	assert.Empty(t, result.Intents)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, schema.OutcomeSuppressed, result.Outcomes[0].Result)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
}
