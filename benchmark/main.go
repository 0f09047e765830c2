// Package main provides a performance benchmarking tool for the farmsight CLI.
// It generates synthetic leaderboard snapshots at several fleet sizes, then
// measures ingest, evaluate and status times, running each command multiple
// times, treating the first successful run as cold and averaging the rest as
// warm, generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - farmsight binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for synthetic snapshots and SQLite databases
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Fleet       string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Fleets      map[string]FleetSpec
	FleetOrder  []string
}

// FleetSpec sizes one synthetic fleet: members in the leaderboard and the
// number of daily snapshots to generate.
type FleetSpec struct {
	Members int
	Days    int
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := os.Args[1]

	config := BenchmarkConfig{
		WorkDir:     workDir,
		Timeout:     5 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Fleets: map[string]FleetSpec{
			"small":  {Members: 50, Days: 30},
			"medium": {Members: 500, Days: 90},
			"large":  {Members: 5000, Days: 180},
		},
		FleetOrder: []string{"small", "medium", "large"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the farmsight binary and work dir exist
func checkPrerequisites(config BenchmarkConfig) error {
	// Check if farmsight is available
	if _, err := exec.LookPath("farmsight"); err != nil {
		return fmt.Errorf("farmsight binary not found in PATH")
	}

	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}

	return nil
}

// generateSnapshots writes synthetic cumulative leaderboard snapshots for one
// fleet and returns the paths, oldest first. Totals only ever grow, the way
// real leaderboard exports behave.
func generateSnapshots(dir string, spec FleetSpec) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(42)) // deterministic across runs
	totals := make([]int64, spec.Members)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var paths []string
	for day := 0; day < spec.Days; day++ {
		date := start.AddDate(0, 0, day)
		path := filepath.Join(dir, date.Format("2006-01-02")+".csv")

		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		writer := csv.NewWriter(file)
		_ = writer.Write([]string{"member_id", "total_points"})
		for i := range totals {
			totals[i] += rng.Int63n(50_000)
			_ = writer.Write([]string{
				fmt.Sprintf("member%04d", i),
				fmt.Sprintf("%d", totals[i]),
			})
		}
		writer.Flush()
		if err := file.Close(); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// runBenchmarks executes all benchmark tests across configured fleet sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d fleets, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Fleets), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, fleet := range config.FleetOrder {
		spec := config.Fleets[fleet]
		fmt.Printf("Benchmarking %s fleet (%d members, %d days)\n", fleet, spec.Members, spec.Days)

		fleetDir := filepath.Join(config.WorkDir, fleet)
		snapshotDir := filepath.Join(fleetDir, "snapshots")
		paths, err := generateSnapshots(snapshotDir, spec)
		if err != nil {
			fmt.Printf("Warning: snapshot generation failed for %s: %v\n", fleet, err)
			continue
		}

		storePath := filepath.Join(fleetDir, "store.db")
		cachePath := filepath.Join(fleetDir, "cache.db")

		// Ingest once per fleet; it is a write path and caching is irrelevant.
		ingestTime := runOnce(config, fleetDir, storePath, cachePath, "none", append([]string{"ingest"}, paths...))
		results = append(results, BenchmarkResult{
			Fleet:       fleet,
			Command:     "ingest",
			NoCacheTime: ingestTime,
			ColdTime:    "-",
			WarmTime:    "-",
		})

		// Open probation windows so evaluate and status have work to do.
		for i := 0; i < min(spec.Members, 100); i++ {
			memberID := fmt.Sprintf("member%04d", i)
			_ = runFarmsight(config, fleetDir, storePath, cachePath, "none", []string{"member", "probation", memberID, "2026-01-01"})
		}

		results = append(results, runBenchmarkSuite(config, fleet, fleetDir, storePath, cachePath, "evaluate", []string{"evaluate"}))
		results = append(results, runBenchmarkSuite(config, fleet, fleetDir, storePath, cachePath, "status", []string{"status"}))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, fleet, fleetDir, storePath, cachePath, command string, args []string) BenchmarkResult {
	fmt.Printf("Running %s on %s fleet\n", command, fleet)

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, fleetDir, storePath, cachePath, cacheBackend, args, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Fleet:       fleet,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a farmsight command multiple times with the specified
// cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, fleetDir, storePath, cachePath, cacheBackend string, args []string, numRuns int) (coldTime float64, warmTimes []float64) {
	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		done := make(chan error)
		go func() {
			done <- runFarmsight(config, fleetDir, storePath, cachePath, cacheBackend, args)
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// runFarmsight runs one farmsight command against the fleet's SQLite files.
func runFarmsight(config BenchmarkConfig, fleetDir, storePath, cachePath, cacheBackend string, args []string) error {
	full := append([]string{}, args...)
	full = append(full,
		"--store-db-connect", storePath,
		"--cache-backend", cacheBackend,
		"--cache-db-connect", cachePath,
	)

	cmd := exec.Command("farmsight", full...)
	cmd.Dir = fleetDir
	return cmd.Run()
}

// runOnce times a single command run, formatted for the results table.
func runOnce(config BenchmarkConfig, fleetDir, storePath, cachePath, cacheBackend string, args []string) string {
	start := time.Now()
	if err := runFarmsight(config, fleetDir, storePath, cachePath, cacheBackend, args); err != nil {
		return "FAILED"
	}
	return fmt.Sprintf("%.3fs", time.Since(start).Seconds())
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/farmsight_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"fleet", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Fleet, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "ingest", "Ingest:")
	printCommandSummary(results, "evaluate", "Evaluate:")
	printCommandSummary(results, "status", "Status:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Fleet, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
