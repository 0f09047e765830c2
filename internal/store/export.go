package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmsight/farmsight/internal/parquet"
)

// ExecuteStoreExport performs the actual export of store data to Parquet files.
func ExecuteStoreExport(ctx context.Context, outputFile string) error {
	// Validate that output file is specified
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}

	series, ok := Manager.GetSeriesStore().(*SeriesStoreImpl)
	if !ok {
		return errors.New("record store is not initialized")
	}
	compliance, ok := Manager.GetComplianceStore().(*ComplianceStoreImpl)
	if !ok {
		return errors.New("compliance store is not initialized")
	}

	// Check if there's any data to export
	status, err := compliance.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get store status: %w", err)
	}

	if status.Records == 0 && status.Verdicts == 0 && status.Transitions == 0 {
		return errors.New("no store data found to export")
	}

	fmt.Printf("Exporting data from %s backend...\n", status.Backend)
	fmt.Printf("Total records: %d\n", status.Records)
	fmt.Printf("Total verdicts: %d\n", status.Verdicts)
	fmt.Printf("Total transitions: %d\n", status.Transitions)

	// Retrieve everything worth analyzing offline
	records, err := series.AllRecords(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve records: %w", err)
	}
	states, err := compliance.AllStates(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve verdicts: %w", err)
	}
	transitions, err := compliance.AllTransitions(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve transitions: %w", err)
	}

	// Convert to Parquet format
	parquetRecords := parquet.ConvertRecords(records)
	parquetVerdicts := parquet.ConvertStates(states)
	parquetTransitions := parquet.ConvertTransitions(transitions)

	// Write records to Parquet
	recordsFile := outputFile + ".records.parquet"
	if err := parquet.WriteRecordsParquet(parquetRecords, recordsFile); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	fmt.Printf("Exported %d records to: %s\n", len(parquetRecords), recordsFile)

	// Write verdicts to Parquet
	verdictsFile := outputFile + ".verdicts.parquet"
	if err := parquet.WriteVerdictsParquet(parquetVerdicts, verdictsFile); err != nil {
		return fmt.Errorf("failed to write verdicts: %w", err)
	}
	fmt.Printf("Exported %d verdicts to: %s\n", len(parquetVerdicts), verdictsFile)

	// Write transitions to Parquet
	transitionsFile := outputFile + ".transitions.parquet"
	if err := parquet.WriteTransitionsParquet(parquetTransitions, transitionsFile); err != nil {
		return fmt.Errorf("failed to write transitions: %w", err)
	}
	fmt.Printf("Exported %d transitions to: %s\n", len(parquetTransitions), transitionsFile)

	fmt.Println("\nExport complete! The Parquet files can be used with:")
	fmt.Println("  - Apache Spark")
	fmt.Println("  - Apache Arrow")
	fmt.Println("  - Pandas (via pyarrow)")
	fmt.Println("  - DuckDB")
	fmt.Println("  - Any other Parquet-compatible tool")

	return nil
}
