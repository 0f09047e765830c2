package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmsight/farmsight/schema"
)

func TestGetPlainVerdictLabel(t *testing.T) {
	tests := []struct {
		name     string
		status   schema.MemberStatus
		expected string
	}{
		{
			name:     "fail",
			status:   schema.MemberStatus{Effective: schema.VerdictFail},
			expected: FailValue,
		},
		{
			name:     "forgiven fail",
			status:   schema.MemberStatus{Effective: schema.VerdictFail, Forgiven: true},
			expected: ForgivenValue,
		},
		{
			name:     "pass",
			status:   schema.MemberStatus{Effective: schema.VerdictPass},
			expected: PassValue,
		},
		{
			name:     "open window at risk",
			status:   schema.MemberStatus{Effective: schema.VerdictNone, Pace: schema.PaceAtRisk},
			expected: AtRiskValue,
		},
		{
			name:     "open window on track",
			status:   schema.MemberStatus{Effective: schema.VerdictNone, Pace: schema.PaceOnTrack},
			expected: OnTrackValue,
		},
		{
			name:     "undecided",
			status:   schema.MemberStatus{Effective: schema.VerdictNone},
			expected: PendingValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainVerdictLabel(tt.status))
		})
	}
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "YES", "true", "1"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.True(t, got, s)
	}
	for _, s := range []string{"no", "False", "0"} {
		got, err := ParseBoolString(s)
		require.NoError(t, err, s)
		assert.False(t, got, s)
	}
	_, err := ParseBoolString("maybe")
	require.Error(t, err)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "alice", TruncateID("alice", 10))
	assert.Equal(t, "alice-t...", TruncateID("alice-the-great", 10))
	// Widths of 3 or less never truncate; the ellipsis would not fit.
	assert.Equal(t, "alice", TruncateID("alice", 3))
}
