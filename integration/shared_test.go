//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedFarmsightPath holds the path to a shared farmsight binary built once for all tests.
	sharedFarmsightPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getFarmsightBinary returns the path to the farmsight binary, building it once if needed.
func getFarmsightBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "farmsight-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		farmsightPath := filepath.Join(tempDir, "farmsight")
		buildCmd := exec.Command("go", "build", "-o", farmsightPath, "./cmd/farmsight")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build farmsight: %v", err))
		}

		sharedFarmsightPath = farmsightPath
	})

	return sharedFarmsightPath
}

// writeSnapshots writes a fixed set of cumulative leaderboard snapshots into
// dir and returns their paths, oldest first.
func writeSnapshots(dir string) ([]string, error) {
	snapshots := []struct {
		name string
		body string
	}{
		{"2026-08-01.csv", "member_id,total_points\nalice,1000000\nbob,500000\n"},
		{"2026-08-08.csv", "member_id,total_points\nalice,1400000\nbob,520000\n"},
		{"2026-08-15.csv", "member_id,total_points\nalice,2100000\nbob,530000\n"},
	}

	paths := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		path := filepath.Join(dir, snap.name)
		if err := os.WriteFile(path, []byte(snap.body), 0o644); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
