package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmsight/farmsight/schema"
)

func TestComputeVerdict(t *testing.T) {
	window := schema.ComplianceWindow{
		Start:     windowStart,
		End:       windowStart.Add(90 * 24 * time.Hour),
		Threshold: 100,
	}

	tests := []struct {
		name  string
		points int64
		now   time.Time
		want  schema.Verdict
		final bool
	}{
		{"open mid window", 50, windowStart.Add(24 * time.Hour), schema.VerdictNone, false},
		{"target hit early stays open", 100, windowStart.Add(24 * time.Hour), schema.VerdictNone, false},
		{"pass at end", 150, window.End, schema.VerdictPass, true},
		{"fail at end", 99, window.End, schema.VerdictFail, true},
		{"fail after end", 0, window.End.Add(time.Hour), schema.VerdictFail, true},
		{"open just before end", 199, window.End.Add(-time.Second), schema.VerdictNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, final := computeVerdict(window, tt.points, tt.now)
			assert.Equal(t, tt.want, verdict)
			assert.Equal(t, tt.final, final)
		})
	}
}

func TestDeriveTransition(t *testing.T) {
	now := windowStart.Add(24 * time.Hour)
	base := schema.MilestoneState{Computed: schema.VerdictNone, Override: schema.VerdictNone}

	t.Run("no change yields nil", func(t *testing.T) {
		next := base
		assert.Nil(t, deriveTransition("alice", schema.ProbationWindow, base, next, now))
	})

	t.Run("verdict change", func(t *testing.T) {
		next := base
		next.Computed = schema.VerdictFail
		transition := deriveTransition("alice", schema.ProbationWindow, base, next, now)
		require.NotNil(t, transition)
		assert.Equal(t, schema.VerdictNone, transition.Previous)
		assert.Equal(t, schema.VerdictFail, transition.New)
		assert.Equal(t, now, transition.Timestamp)
	})

	t.Run("override masks computed", func(t *testing.T) {
		prev := base
		prev.Computed = schema.VerdictFail
		next := prev
		next.Override = schema.VerdictPass
		transition := deriveTransition("alice", schema.ProbationWindow, prev, next, now)
		require.NotNil(t, transition)
		assert.Equal(t, schema.VerdictFail, transition.Previous)
		assert.Equal(t, schema.VerdictPass, transition.New)
	})

	t.Run("forgiveness flip alone", func(t *testing.T) {
		prev := base
		prev.Computed = schema.VerdictFail
		next := prev
		next.Forgiven = true
		transition := deriveTransition("alice", schema.MonitoringWindow, prev, next, now)
		require.NotNil(t, transition)
		assert.Equal(t, transition.Previous, transition.New)
		assert.Equal(t, schema.ClassForgiveness, transition.Class())
	})
}

func TestSameWindow(t *testing.T) {
	window := schema.ComplianceWindow{
		Kind:     schema.ProbationWindow,
		Start:    windowStart,
		End:      windowStart.Add(90 * 24 * time.Hour),
		Sequence: 1,
	}
	state := &schema.MilestoneState{
		WindowKind:  window.Kind,
		WindowStart: window.Start,
		WindowEnd:   window.End,
		WindowSeq:   window.Sequence,
	}

	assert.True(t, sameWindow(state, window))
	assert.False(t, sameWindow(nil, window))

	shifted := *state
	shifted.WindowStart = window.Start.Add(24 * time.Hour)
	assert.False(t, sameWindow(&shifted, window))

	otherKind := *state
	otherKind.WindowKind = schema.MonitoringWindow
	assert.False(t, sameWindow(&otherKind, window))

	// A same-kind successor opened the day its predecessor closed shares the
	// start date; only the sequence tells them apart.
	successor := window
	successor.Sequence = 2
	assert.False(t, sameWindow(state, successor))
}
