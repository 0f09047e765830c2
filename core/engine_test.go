package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

func testConfig() *contract.Config {
	return &contract.Config{
		Granularity:         schema.Daily,
		ValueMode:           schema.Interval,
		ProbationDuration:   90 * 24 * time.Hour,
		ProbationThreshold:  100,
		MonitoringDuration:  90 * 24 * time.Hour,
		MonitoringThreshold: 100,
		ClearStreak:         3,
		AtRiskDaysLeft:      5,
		Workers:             2,
		BudgetMax:           3,
		BudgetPeriod:        time.Hour,
		ResultLimit:         25,
	}
}

func newTestEngine(series *contract.MockSeriesStore, store *contract.MockComplianceStore) *Engine {
	mgr := &contract.MockStoreManager{}
	mgr.On("GetSeriesStore").Return(series)
	mgr.On("GetComplianceStore").Return(store)
	return NewEngine(testConfig(), mgr)
}

var windowStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func openWindow(memberID string, kind schema.WindowKind) *schema.ComplianceWindow {
	return &schema.ComplianceWindow{
		MemberID:  memberID,
		Kind:      kind,
		Start:     windowStart,
		End:       windowStart.Add(90 * 24 * time.Hour),
		Threshold: 100,
		Sequence:  1,
	}
}

func pointsOn(memberID string, day time.Time, points int64) []schema.ContributionRecord {
	return []schema.ContributionRecord{{MemberID: memberID, Date: day, Points: points}}
}

func TestStartProbationCreatesMember(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "alice").Return(nil, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(nil, nil)
	store.On("VerdictHistory", mock.Anything, "alice").Return(nil, nil)
	store.On("SaveWindow", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.MemberID == "alice" && m.Phase == schema.PhaseProbation && m.Streak == 0
	})).Return(nil)

	window, err := engine.StartProbation(context.Background(), "alice", windowStart.Add(6*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, schema.ProbationWindow, window.Kind)
	assert.Equal(t, windowStart, window.Start) // snapped to the day boundary
	assert.Equal(t, windowStart.Add(90*24*time.Hour), window.End)
	assert.Equal(t, int64(100), window.Threshold)
	assert.Equal(t, 1, window.Sequence)
	store.AssertExpectations(t)
}

func TestStartProbationRejectsActiveWindow(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(openWindow("alice", schema.ProbationWindow), nil)

	_, err := engine.StartProbation(context.Background(), "alice", windowStart)
	assert.ErrorIs(t, err, contract.ErrActiveWindowExists)
}

func TestStartProbationRejectsRetiredMember(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseRetired}, nil)

	_, err := engine.StartProbation(context.Background(), "alice", windowStart)
	assert.ErrorIs(t, err, contract.ErrAlreadyRetired)
}

func TestEvaluateMidWindowStaysOpen(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	now := windowStart.Add(30 * 24 * time.Hour)
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(openWindow("alice", schema.ProbationWindow), nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 50), nil)
	store.On("SaveState", mock.Anything, mock.MatchedBy(func(s schema.MilestoneState) bool {
		return s.MemberID == "alice" && s.Points == 50 && s.Computed == schema.VerdictNone && !s.Final
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", now)
	require.NoError(t, err)

	assert.False(t, eval.Finalized)
	assert.Nil(t, eval.Transition)
	assert.Equal(t, int64(50), eval.Status.WindowPoints)
	assert.Equal(t, int64(50), eval.Status.Remaining)
	assert.Equal(t, schema.VerdictNone, eval.Status.Effective)
	store.AssertNotCalled(t, "AppendTransition", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "CloseWindow", mock.Anything, mock.Anything)
}

func TestEvaluateFailAtWindowEnd(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.ProbationWindow)
	now := window.End
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 90), nil)
	store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.MatchedBy(func(w schema.ComplianceWindow) bool {
		return w.Kind == schema.ProbationWindow && w.Sequence == 2 && w.Start.Equal(contract.Day(now))
	})).Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.Phase == schema.PhaseProbation && m.Streak == 0
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", now)
	require.NoError(t, err)

	assert.True(t, eval.Finalized)
	require.NotNil(t, eval.Transition)
	assert.Equal(t, schema.VerdictNone, eval.Transition.Previous)
	assert.Equal(t, schema.VerdictFail, eval.Transition.New)
	assert.Equal(t, schema.ClassFail, eval.Transition.Class())
	assert.Equal(t, schema.VerdictFail, eval.Status.Effective)
	store.AssertExpectations(t)
}

// Hitting the target early must not close the window: the verdict lands at
// window end regardless, so the window cadence never shifts. Early achievement
// only shows up in the pace fields.
func TestEvaluateEarlyAchievementStaysOpen(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	now := windowStart.Add(30 * 24 * time.Hour)
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(openWindow("alice", schema.ProbationWindow), nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 120), nil)
	store.On("SaveState", mock.Anything, mock.MatchedBy(func(s schema.MilestoneState) bool {
		return s.Points == 120 && s.Computed == schema.VerdictNone && !s.Final
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", now)
	require.NoError(t, err)

	assert.False(t, eval.Finalized)
	assert.Nil(t, eval.Transition)
	assert.Equal(t, schema.PhaseProbation, eval.Status.Phase)
	assert.Equal(t, schema.PaceAchieved, eval.Status.Pace)
	store.AssertNotCalled(t, "AppendTransition", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "CloseWindow", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SaveWindow", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

// A pass still finalizes once the window has fully elapsed.
func TestEvaluatePassAtWindowEnd(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.ProbationWindow)
	now := window.End
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 120), nil)
	store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.MatchedBy(func(w schema.ComplianceWindow) bool {
		return w.Kind == schema.MonitoringWindow && w.Sequence == 2 && w.Start.Equal(contract.Day(now))
	})).Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.Phase == schema.PhaseMonitoring && m.Streak == 0
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", now)
	require.NoError(t, err)

	assert.True(t, eval.Finalized)
	require.NotNil(t, eval.Transition)
	assert.Equal(t, schema.VerdictPass, eval.Transition.New)
	assert.Equal(t, schema.PhaseMonitoring, eval.Status.Phase)
	store.AssertExpectations(t)
}

func TestEvaluateFinalizedVerdictIsStable(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.ProbationWindow)
	prev := &schema.MilestoneState{
		MemberID:    "alice",
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
		Threshold:   window.Threshold,
		Points:      90,
		Computed:    schema.VerdictFail,
		Override:    schema.VerdictNone,
		Final:       true,
	}
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 90), nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", window.End.Add(24*time.Hour))
	require.NoError(t, err)

	assert.True(t, eval.Finalized)
	assert.Nil(t, eval.Transition)
	assert.Equal(t, schema.VerdictFail, eval.Status.Effective)
	store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "AppendTransition", mock.Anything, mock.Anything)
}

// A successor window opened the day its predecessor was finalized shares the
// predecessor's kind and bounds. The finalized predecessor verdict must not
// stop the successor from being evaluated.
func TestEvaluateSuccessorSharingStartIsEvaluated(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	successor := openWindow("alice", schema.MonitoringWindow)
	successor.Sequence = 3
	prev := &schema.MilestoneState{
		MemberID:    "alice",
		WindowKind:  successor.Kind,
		WindowStart: successor.Start,
		WindowEnd:   successor.End,
		WindowSeq:   2,
		Threshold:   successor.Threshold,
		Points:      0,
		Computed:    schema.VerdictNone,
		Override:    schema.VerdictPass,
		Final:       true,
	}
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseMonitoring, Streak: 1}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(successor, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 30), nil)
	store.On("SaveState", mock.Anything, mock.MatchedBy(func(s schema.MilestoneState) bool {
		return s.WindowSeq == 3 && s.Override == schema.VerdictNone && !s.Final
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", windowStart.Add(30*24*time.Hour))
	require.NoError(t, err)

	assert.False(t, eval.Finalized)
	assert.Nil(t, eval.Transition)
	assert.Equal(t, int64(30), eval.Status.WindowPoints)
	store.AssertExpectations(t)
}

func TestEvaluateWithoutWindow(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseCleared}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(nil, nil)

	_, err := engine.EvaluateMember(context.Background(), "alice", windowStart)
	assert.ErrorIs(t, err, contract.ErrNoActiveWindow)
}

func TestEvaluateUnknownMember(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "ghost").Return(nil, nil)

	_, err := engine.EvaluateMember(context.Background(), "ghost", windowStart)
	assert.ErrorIs(t, err, contract.ErrMemberNotFound)
}

func TestForgivenFailKeepsPhaseAndStreak(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.MonitoringWindow)
	prev := &schema.MilestoneState{
		MemberID:    "alice",
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
		Threshold:   window.Threshold,
		Computed:    schema.VerdictNone,
		Override:    schema.VerdictNone,
		Forgiven:    true,
	}
	now := window.End
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseMonitoring, Streak: 2}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 40), nil)
	store.On("SaveState", mock.Anything, mock.MatchedBy(func(s schema.MilestoneState) bool {
		return s.Forgiven && s.Computed == schema.VerdictFail && s.Final
	})).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.MatchedBy(func(w schema.ComplianceWindow) bool {
		return w.Kind == schema.MonitoringWindow
	})).Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.Phase == schema.PhaseMonitoring && m.Streak == 2
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", now)
	require.NoError(t, err)

	assert.True(t, eval.Finalized)
	require.NotNil(t, eval.Transition)
	assert.Equal(t, schema.ClassRelapse, eval.Transition.Class())
	store.AssertExpectations(t)
}

func TestMonitoringStreakClearsMember(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.MonitoringWindow)
	now := window.End
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseMonitoring, Streak: 2}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(window, nil)
	store.On("LoadState", mock.Anything, "alice").Return(nil, nil)
	series.On("FetchRecords", mock.Anything, "alice", mock.Anything).Return(pointsOn("alice", windowStart.Add(24*time.Hour), 150), nil)
	store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.Phase == schema.PhaseCleared && m.Streak == 3
	})).Return(nil)

	eval, err := engine.EvaluateMember(context.Background(), "alice", now)
	require.NoError(t, err)

	assert.Equal(t, schema.PhaseCleared, eval.Status.Phase)
	assert.Equal(t, 3, eval.Status.Streak)
	store.AssertNotCalled(t, "SaveWindow", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestSetOverridePassFinalizesOpenWindow(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.ProbationWindow)
	prev := &schema.MilestoneState{
		MemberID:    "alice",
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
		Threshold:   window.Threshold,
		Points:      90,
		Computed:    schema.VerdictNone,
		Override:    schema.VerdictNone,
	}
	now := windowStart.Add(50 * 24 * time.Hour)
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)
	store.On("SaveState", mock.Anything, mock.MatchedBy(func(s schema.MilestoneState) bool {
		return s.Override == schema.VerdictPass && s.Final
	})).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(window, nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveWindow", mock.Anything, mock.MatchedBy(func(w schema.ComplianceWindow) bool {
		return w.Kind == schema.MonitoringWindow && w.Sequence == 2
	})).Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.Phase == schema.PhaseMonitoring
	})).Return(nil)

	transition, err := engine.SetOverride(context.Background(), "alice", schema.VerdictPass, now)
	require.NoError(t, err)

	require.NotNil(t, transition)
	assert.Equal(t, schema.VerdictNone, transition.Previous)
	assert.Equal(t, schema.VerdictPass, transition.New)
	store.AssertExpectations(t)
	// Exactly one transition for the override.
	store.AssertNumberOfCalls(t, "AppendTransition", 1)
}

func TestSetOverrideRejectsUnknownVerdict(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	_, err := engine.SetOverride(context.Background(), "alice", schema.Verdict("maybe"), windowStart)
	assert.ErrorIs(t, err, contract.ErrInvalidConfiguration)
}

func TestSetOverrideUnchangedIsNoOp(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.ProbationWindow)
	prev := &schema.MilestoneState{
		MemberID:    "alice",
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
		Override:    schema.VerdictPass,
		Final:       true,
	}
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseMonitoring}, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)

	transition, err := engine.SetOverride(context.Background(), "alice", schema.VerdictPass, windowStart)
	require.NoError(t, err)

	assert.Nil(t, transition)
	store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
}

func TestSetForgivenRecordsTransitionWithoutFinalizing(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	window := openWindow("alice", schema.MonitoringWindow)
	prev := &schema.MilestoneState{
		MemberID:    "alice",
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
		Computed:    schema.VerdictFail,
		Override:    schema.VerdictNone,
		Final:       true,
	}
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)
	store.On("SaveState", mock.Anything, mock.MatchedBy(func(s schema.MilestoneState) bool {
		return s.Forgiven
	})).Return(nil)
	store.On("AppendTransition", mock.Anything, mock.Anything).Return(nil)

	transition, err := engine.SetForgiven(context.Background(), "alice", true, windowStart)
	require.NoError(t, err)

	require.NotNil(t, transition)
	assert.Equal(t, schema.ClassForgiveness, transition.Class())
	assert.False(t, transition.ForgivenBefore)
	assert.True(t, transition.ForgivenAfter)
	store.AssertNotCalled(t, "CloseWindow", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "SaveWindow", mock.Anything, mock.Anything)
}

func TestSetForgivenUnchangedIsNoOp(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	prev := &schema.MilestoneState{MemberID: "alice", Forgiven: true, Computed: schema.VerdictFail, Override: schema.VerdictNone}
	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseProbation}, nil)
	store.On("LoadState", mock.Anything, "alice").Return(prev, nil)

	transition, err := engine.SetForgiven(context.Background(), "alice", true, windowStart)
	require.NoError(t, err)

	assert.Nil(t, transition)
	store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
}

func TestRetireClosesActiveWindow(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseMonitoring}, nil)
	store.On("LoadWindow", mock.Anything, "alice").Return(openWindow("alice", schema.MonitoringWindow), nil)
	store.On("CloseWindow", mock.Anything, "alice").Return(nil)
	store.On("SaveMember", mock.Anything, mock.MatchedBy(func(m schema.Member) bool {
		return m.Phase == schema.PhaseRetired && m.RetiredAt != nil
	})).Return(nil)

	err := engine.Retire(context.Background(), "alice", windowStart)
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRetireTwiceFails(t *testing.T) {
	series := &contract.MockSeriesStore{}
	store := &contract.MockComplianceStore{}
	engine := newTestEngine(series, store)

	store.On("LoadMember", mock.Anything, "alice").Return(&schema.Member{MemberID: "alice", Phase: schema.PhaseRetired}, nil)

	err := engine.Retire(context.Background(), "alice", windowStart)
	assert.ErrorIs(t, err, contract.ErrAlreadyRetired)
}
