package cmd

import (
	"fmt"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/internal/outwriter"
	"github.com/farmsight/farmsight/internal/store"
	"github.com/farmsight/farmsight/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	storeBackend := schema.DatabaseBackend(viper.GetString("store-backend"))
	storeConnStr := viper.GetString("store-db-connect")
	cacheBackend := schema.DatabaseBackend(viper.GetString("cache-backend"))
	cacheConnStr := viper.GetString("cache-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(storeBackend, storeConnStr); err != nil {
		return err
	}
	if err := contract.ValidateDatabaseConnectionString(cacheBackend, cacheConnStr); err != nil {
		return err
	}

	// Get output-related config values (used by export command)
	outputFile := viper.GetString("output-file")

	// Initialize stores with the loaded config
	if err := store.InitStores(storeBackend, storeConnStr, cacheBackend, cacheConnStr); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}

	cfg.StoreBackend = storeBackend
	cfg.StoreDBConnect = storeConnStr
	cfg.CacheBackend = cacheBackend
	cfg.CacheDBConnect = cacheConnStr
	cfg.OutputFile = outputFile

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func storeMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetStoreDBFilePath()
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	return nil
}

// storeMigrateSetupWrapper wraps storeMigrateSetup to provide PreRunE for migrate command.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeMigrateSetup()
}

// storeCmd focused on persistence management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by engine commands. This avoids policy validation
// and time range processing for simple persistence operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage persisted records, verdicts and the status cache.",
	Long: `Manage the persistence layer behind the compliance engine.

The store holds point records, compliance windows, verdicts, transitions,
recipients and notification outcomes. A separate status cache speeds up
repeated status board builds.

Supported backends: SQLite (default), MySQL, PostgreSQL

Subcommands:
  status  - Show row counts and connection details
  export  - Export data to Parquet for analytics
  clear   - Remove all persisted data
  migrate - Run database schema migrations

Examples:
  # Check storage status
  farmsight store status

  # Export for analysis in pandas/DuckDB
  farmsight store export --output-file farmsight-data`,
}

// storeStatusCmd shows persistence status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display storage statistics and connection details.",
	Long: `Show detailed information about the persistence layer.

Displays:
- Backend type and location for store and cache
- Row counts per table (records, members, windows, verdicts, ...)
- Record date coverage (oldest and newest day)
- Database size for SQLite backends

Examples:
  farmsight store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := store.Manager.GetComplianceStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}

		var cacheStatus *schema.CacheStatus
		if cache := store.Manager.GetCacheStore(); cache != nil {
			cs, err := cache.GetStatus()
			if err != nil {
				contract.LogFatal("Failed to get cache status", err)
			}
			cacheStatus = &cs
		}

		if err := outwriter.PrintStoreStatus(status, cacheStatus, cfg); err != nil {
			contract.LogFatal("Failed to print store status", err)
		}
	},
}

// storeExportCmd exports store data to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted data to Parquet for BI tools and analytics.",
	Long: `Export all persisted data to Parquet format for use with analytics tools.

Exports three datasets:
- Point records - per-member, per-day point deltas
- Verdicts - every window verdict with its policy context
- Transitions - the full verdict transition log

Requires: --output-file parameter (used as the file name prefix)

Examples:
  # Export all data
  farmsight store export --output-file farmsight-data

  # Use with DuckDB for analysis
  farmsight store export --output-file data
  duckdb -c "SELECT * FROM read_parquet('data.verdicts.parquet') LIMIT 10"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ExecuteStoreExport(rootCtx, cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export store data", err)
		}
	},
}

// storeClearCmd clears persisted data.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all persisted compliance data.",
	Long: `Delete all stored records, windows, verdicts, transitions, recipients
and notification outcomes, plus the status cache.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  farmsight store export --output-file backup
  farmsight store clear`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := store.ClearStore(cfg.StoreBackend, contract.GetStoreDBFilePath(), cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store data", err)
		}
		if err := store.ClearCache(cfg.CacheBackend, contract.GetCacheDBFilePath(), cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache data", err)
		}
		fmt.Println("Store data cleared successfully.")
	},
}

// storeMigrateCmd runs database migrations for the store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades).",
	Long: `Manage database schema versions for the persistence layer.

By default, migrates to the latest version. Use --target-version for
specific versions.

Examples:
  # Migrate to latest version (default)
  farmsight store migrate

  # Migrate to specific version
  farmsight store migrate --target-version 2

  # Rollback to initial state
  farmsight store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := store.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
