package agg

import (
	"bytes"
	_ "embed"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmsight/farmsight/schema"
)

//go:embed testdata/leaderboard-2026-01-01.csv
var snapshotDayOneFixture []byte

//go:embed testdata/leaderboard-2026-01-02.csv
var snapshotDayTwoFixture []byte

func TestParseSnapshotDate(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expected    time.Time
		expectError bool
	}{
		{
			name:     "prefixed file name",
			path:     "/data/exports/leaderboard-2026-03-01.csv",
			expected: day(2026, 3, 1),
		},
		{
			name:     "bare date file name",
			path:     "2026-03-01.csv",
			expected: day(2026, 3, 1),
		},
		{
			name:        "no date",
			path:        "leaderboard-latest.csv",
			expectError: true,
		},
		{
			name:        "impossible date",
			path:        "leaderboard-2026-13-40.csv",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := ParseSnapshotDate(tt.path)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}

func TestParseSnapshotCSV(t *testing.T) {
	totals, err := ParseSnapshotCSV(bytes.NewReader(snapshotDayOneFixture))
	require.NoError(t, err)

	assert.Len(t, totals, 3)
	assert.Equal(t, int64(1_000_000), totals["alice"])
	assert.Equal(t, int64(2_500_000), totals["bob"])
}

func TestParseSnapshotCSVWithoutHeader(t *testing.T) {
	totals, err := ParseSnapshotCSV(bytes.NewReader([]byte("alice,100\nbob,200\n")))
	require.NoError(t, err)

	assert.Equal(t, int64(100), totals["alice"])
	assert.Equal(t, int64(200), totals["bob"])
}

func TestParseSnapshotCSVRejectsBadRows(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative total", "alice,-5\n"},
		{"non-numeric total after header", "member_id,total_points\nalice,lots\n"},
		{"empty member id", "member_id,total_points\n,100\n"},
		{"duplicate member", "alice,100\nalice,200\n"},
		{"wrong column count", "alice,100,extra\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSnapshotCSV(bytes.NewReader([]byte(tt.body)))
			require.Error(t, err)
		})
	}
}

func TestBuildRecords(t *testing.T) {
	dayOne, err := ParseSnapshotCSV(bytes.NewReader(snapshotDayOneFixture))
	require.NoError(t, err)
	dayTwo, err := ParseSnapshotCSV(bytes.NewReader(snapshotDayTwoFixture))
	require.NoError(t, err)

	// Out of order on purpose; BuildRecords sorts by date.
	records := BuildRecords([]Snapshot{
		{Date: day(2026, 1, 2), Totals: dayTwo},
		{Date: day(2026, 1, 1), Totals: dayOne},
	})

	byKey := make(map[string]schema.ContributionRecord)
	for _, r := range records {
		byKey[r.MemberID+"/"+r.Date.Format(schema.DayFormat)] = r
	}

	// Day one seeds opening balances.
	assert.Equal(t, int64(1_000_000), byKey["alice/2026-01-01"].Points)
	assert.Equal(t, int64(2_500_000), byKey["bob/2026-01-01"].Points)

	// Day two records the deltas only.
	assert.Equal(t, int64(40_000), byKey["alice/2026-01-02"].Points)
	assert.Equal(t, int64(30_000), byKey["carol/2026-01-02"].Points)

	// A member newly appearing on day two seeds a balance that day.
	assert.Equal(t, int64(15_000), byKey["dave/2026-01-02"].Points)

	// A flat total produces no record.
	_, found := byKey["bob/2026-01-02"]
	assert.False(t, found, "bob did not move between snapshots")
}

func TestBuildRecordsKeepsNegativeDeltas(t *testing.T) {
	records := BuildRecords([]Snapshot{
		{Date: day(2026, 1, 1), Totals: map[string]int64{"alice": 500}},
		{Date: day(2026, 1, 2), Totals: map[string]int64{"alice": 450}},
	})

	require.Len(t, records, 2)
	assert.Equal(t, int64(-50), records[1].Points)
}
