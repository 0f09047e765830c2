//go:build integration

// Package integration contains integration tests for farmsight.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags integration ./integration
// Or use: make test-integration
package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seriesOutput mirrors the JSON shape of the series command.
type seriesOutput struct {
	MemberID string `json:"member_id"`
	Points   []struct {
		PeriodStart string `json:"period_start"`
		Value       int64  `json:"value"`
	} `json:"points"`
}

// statusOutput mirrors the JSON shape of the status command.
type statusOutput []struct {
	MemberID     string `json:"member_id"`
	Phase        string `json:"phase"`
	WindowPoints int64  `json:"window_points"`
	Effective    string `json:"effective"`
}

// TestSQLiteWorkflowVerification drives a full ingest/probation/evaluate
// cycle against SQLite files and verifies the numbers against the raw
// snapshot CSVs.
func TestSQLiteWorkflowVerification(t *testing.T) {
	workDir := t.TempDir()

	// Build the farmsight binary
	farmsightPath := filepath.Join(workDir, "farmsight")
	buildCmd := exec.Command("go", "build", "-o", farmsightPath, "./cmd/farmsight")
	buildCmd.Dir = ".." // Project root
	err := buildCmd.Run()
	require.NoError(t, err)

	// Isolate the SQLite files in the temp dir
	storePath := filepath.Join(workDir, "store.db")
	cachePath := filepath.Join(workDir, "cache.db")
	_ = os.Setenv("FARMSIGHT_STORE_DB_CONNECT", storePath)
	_ = os.Setenv("FARMSIGHT_CACHE_DB_CONNECT", cachePath)
	defer func() { _ = os.Unsetenv("FARMSIGHT_STORE_DB_CONNECT") }()
	defer func() { _ = os.Unsetenv("FARMSIGHT_CACHE_DB_CONNECT") }()

	run := func(args ...string) (string, error) {
		cmd := exec.Command(farmsightPath, args...)
		cmd.Dir = workDir
		output, err := cmd.CombinedOutput()
		return string(output), err
	}

	// Snapshot CSVs: alice climbs 1.0M -> 1.4M -> 2.1M, bob barely moves.
	snapshots := map[string]string{
		"2026-08-01.csv": "member_id,total_points\nalice,1000000\nbob,500000\n",
		"2026-08-08.csv": "member_id,total_points\nalice,1400000\nbob,520000\n",
		"2026-08-15.csv": "member_id,total_points\nalice,2100000\nbob,530000\n",
	}
	paths := make([]string, 0, len(snapshots))
	for name, body := range snapshots {
		path := filepath.Join(workDir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		paths = append(paths, path)
	}

	out, err := run(append([]string{"ingest"}, paths...)...)
	require.NoError(t, err, out)

	// Cumulative daily series over the snapshot range must end at alice's
	// final leaderboard total and cover every day of the half-open range.
	seriesFile := filepath.Join(workDir, "series.json")
	out, err = run("series", "alice",
		"--start", "2026-08-01", "--end", "2026-08-16",
		"--value-mode", "cumulative",
		"--output", "json", "--output-file", seriesFile)
	require.NoError(t, err, out)

	var series seriesOutput
	data, err := os.ReadFile(seriesFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &series))

	assert.Equal(t, "alice", series.MemberID)
	require.Len(t, series.Points, 15)
	assert.Equal(t, int64(1000000), series.Points[0].Value)
	assert.Equal(t, int64(2100000), series.Points[14].Value)

	// Open a probation window and run one evaluation pass.
	out, err = run("member", "probation", "alice", "2026-08-01")
	require.NoError(t, err, out)
	out, err = run("evaluate")
	require.NoError(t, err, out)

	// Evaluation is idempotent; a second pass must also succeed.
	out, err = run("evaluate")
	require.NoError(t, err, out)

	// The status board must show alice in probation with the window points
	// matching the snapshot deltas inside the window.
	statusFile := filepath.Join(workDir, "status.json")
	out, err = run("status", "--output", "json", "--output-file", statusFile)
	require.NoError(t, err, out)

	var statuses statusOutput
	data, err = os.ReadFile(statusFile)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &statuses))

	var found bool
	for _, s := range statuses {
		if s.MemberID != "alice" {
			continue
		}
		found = true
		assert.Equal(t, "probation", s.Phase)
		assert.Equal(t, int64(2100000), s.WindowPoints)
	}
	assert.True(t, found, "alice missing from status board")
}
