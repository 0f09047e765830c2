//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestFarmsightWithMySQL tests the farmsight CLI with a MySQL backend.
func TestFarmsightWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "farmsight",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/farmsight?parseTime=true", host, port.Port())

	// Set environment variables
	_ = os.Setenv("FARMSIGHT_STORE_BACKEND", "mysql")
	_ = os.Setenv("FARMSIGHT_STORE_DB_CONNECT", connStr)
	_ = os.Setenv("FARMSIGHT_CACHE_BACKEND", "none")
	defer func() { _ = os.Unsetenv("FARMSIGHT_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("FARMSIGHT_STORE_DB_CONNECT") }()
	defer func() { _ = os.Unsetenv("FARMSIGHT_CACHE_BACKEND") }()

	runComplianceWorkflow(t)
}

// TestFarmsightWithPostgres tests the farmsight CLI with a PostgreSQL backend.
func TestFarmsightWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())

	// Set environment variables
	_ = os.Setenv("FARMSIGHT_STORE_BACKEND", "postgresql")
	_ = os.Setenv("FARMSIGHT_STORE_DB_CONNECT", connStr)
	_ = os.Setenv("FARMSIGHT_CACHE_BACKEND", "none")
	defer func() { _ = os.Unsetenv("FARMSIGHT_STORE_BACKEND") }()
	defer func() { _ = os.Unsetenv("FARMSIGHT_STORE_DB_CONNECT") }()
	defer func() { _ = os.Unsetenv("FARMSIGHT_CACHE_BACKEND") }()

	runComplianceWorkflow(t)
}

// runComplianceWorkflow drives one full ingest/probation/evaluate cycle
// against whatever backend the environment selects.
func runComplianceWorkflow(t *testing.T) {
	t.Helper()

	// Start from a clean slate
	err := runFarmsightCommand(t, "store", "clear")
	require.NoError(t, err)

	// Apply schema migrations
	err = runFarmsightCommand(t, "store", "migrate")
	require.NoError(t, err)

	// Ingest leaderboard snapshots
	snapshotDir := t.TempDir()
	paths, err := writeSnapshots(snapshotDir)
	require.NoError(t, err)
	err = runFarmsightCommand(t, append([]string{"ingest"}, paths...)...)
	require.NoError(t, err)

	// Open a probation window and evaluate it
	err = runFarmsightCommand(t, "member", "probation", "alice", "2026-08-01")
	require.NoError(t, err)
	err = runFarmsightCommand(t, "evaluate")
	require.NoError(t, err)

	// Read side: status board, series, transitions, store status
	err = runFarmsightCommand(t, "status")
	require.NoError(t, err)
	err = runFarmsightCommand(t, "series", "alice", "--start", "2026-08-01", "--end", "2026-08-16")
	require.NoError(t, err)
	err = runFarmsightCommand(t, "transitions")
	require.NoError(t, err)
	err = runFarmsightCommand(t, "store", "status")
	require.NoError(t, err)
}

func runFarmsightCommand(t *testing.T, args ...string) error {
	farmsightPath := getFarmsightBinary()
	cmd := exec.Command(farmsightPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
