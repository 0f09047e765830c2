// Package cmd defines the command-line interface for farmsight.
package cmd

import (
	"fmt"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(seriesCmd)
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(memberCmd)
	rootCmd.AddCommand(transitionsCmd)
	rootCmd.AddCommand(recipientCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the member subcommands to the parent member command
	memberCmd.AddCommand(memberProbationCmd)
	memberCmd.AddCommand(memberOverrideCmd)
	memberCmd.AddCommand(memberForgiveCmd)
	memberCmd.AddCommand(memberRetireCmd)

	// Add the recipient subcommands to the parent recipient command
	recipientCmd.AddCommand(recipientListCmd)
	recipientCmd.AddCommand(recipientSetCmd)
	recipientCmd.AddCommand(recipientDeleteCmd)
	recipientCmd.AddCommand(recipientOutcomesCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("start", "", "Start date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("end", "", "End date in ISO8601 or time ago")
	rootCmd.PersistentFlags().String("granularity", string(schema.Daily), "Series bucket size: daily or weekly or monthly or yearly")
	rootCmd.PersistentFlags().String("value-mode", string(schema.Interval), "Series values: interval or cumulative")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultResultLimit, "Number of results to display")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("emoji", "yes", "Enable emoji badges in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Persistence backend: sqlite or mysql or postgresql")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Status cache backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Database connection string for the status cache (must differ from store-db-connect)")
	rootCmd.PersistentFlags().String("probation-window", fmt.Sprintf("%d days", contract.DefaultProbationDays), "Length of a probation window")
	rootCmd.PersistentFlags().Int64("probation-threshold", contract.DefaultProbationThreshold, "Points required to clear a probation window")
	rootCmd.PersistentFlags().String("monitoring-window", fmt.Sprintf("%d days", contract.DefaultMonitoringDays), "Length of a monitoring window")
	rootCmd.PersistentFlags().Int64("monitoring-threshold", contract.DefaultMonitoringThreshold, "Points required to clear a monitoring window")
	rootCmd.PersistentFlags().Int("clear-streak", contract.DefaultClearStreak, "Consecutive cleared monitoring windows needed to exit tracking")
	rootCmd.PersistentFlags().Int("at-risk-days", contract.DefaultAtRiskDaysLeft, "Days remaining below which an unmet window is flagged at risk")
	rootCmd.PersistentFlags().Int("budget-max", contract.DefaultBudgetMax, "Maximum notifications per recipient per budget period")
	rootCmd.PersistentFlags().String("budget-period", "1 day", "Notification budget period")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of forecastCmd to Viper
	forecastCmd.Flags().String("strategy", string(schema.LinearRegression), "Forecast strategy: linear or moving-average")
	forecastCmd.Flags().Int("ma-window", contract.DefaultMovingAverageWindow, "Trailing days for the moving-average strategy")
	forecastCmd.Flags().Int("horizon", contract.DefaultHorizon, "Number of future buckets to project")
	if err := viper.BindPFlags(forecastCmd.Flags()); err != nil {
		contract.LogFatal("Error binding forecast flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
