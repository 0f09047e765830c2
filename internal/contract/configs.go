package contract

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/farmsight/farmsight/schema"
)

// Default values for configuration.
const (
	DefaultLookbackDays        = 180
	DefaultResultLimit         = 25
	MaxResultLimit             = 1000
	DefaultPrecision           = 1
	DefaultHorizon             = 4
	DefaultMovingAverageWindow = 7

	// Probation policy defaults, matching the leaderboard's house rules:
	// 3M points inside a 90 day window, three clean monitoring windows to
	// exit tracking, at-risk flag once five days remain without the target.
	DefaultProbationDays       = 90
	DefaultProbationThreshold  = 3_000_000
	DefaultMonitoringDays      = 90
	DefaultMonitoringThreshold = 3_000_000
	DefaultClearStreak         = 3
	DefaultAtRiskDaysLeft      = 5

	// Notification budget defaults: per-recipient, per UTC day.
	DefaultBudgetMax = 3
)

// DefaultBudgetPeriod is the default notification budget window.
const DefaultBudgetPeriod = 24 * time.Hour

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the engine.
// This struct remains the "final, validated" config.
type Config struct {
	MemberID    string
	StartTime   time.Time
	EndTime     time.Time
	Granularity schema.Granularity
	ValueMode   schema.ValueMode

	Strategy schema.Strategy
	MAWindow int
	Horizon  int

	ResultLimit int
	Workers     int
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	Width       int // Terminal width override (0 = auto-detect)
	UseEmojis   bool
	UseColors   bool

	// Probation policy.
	ProbationDuration   time.Duration
	ProbationThreshold  int64
	MonitoringDuration  time.Duration
	MonitoringThreshold int64
	ClearStreak         int
	AtRiskDaysLeft      int

	// Notification policy.
	BudgetMax    int
	BudgetPeriod time.Duration

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext
	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext
}

// CloneWithRange returns a copy of the config with a different time range.
func (c *Config) CloneWithRange(start, end time.Time) *Config {
	clone := *c
	clone.StartTime = start
	clone.EndTime = end
	return &clone
}

// Clone returns a shallow copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	MemberIDStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Start          string `mapstructure:"start"`
	End            string `mapstructure:"end"`
	Granularity    string `mapstructure:"granularity"`
	ValueMode      string `mapstructure:"value-mode"`
	Limit          int    `mapstructure:"limit"`
	Workers        int    `mapstructure:"workers"`
	Precision      int    `mapstructure:"precision"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Width          int    `mapstructure:"width"`
	Emoji          string `mapstructure:"emoji"`
	Color          string `mapstructure:"color"`
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	CacheBackend   string `mapstructure:"cache-backend"`
	CacheDBConnect string `mapstructure:"cache-db-connect"`

	// --- Probation policy flags ---
	ProbationWindow     string `mapstructure:"probation-window"`
	ProbationThreshold  int64  `mapstructure:"probation-threshold"`
	MonitoringWindow    string `mapstructure:"monitoring-window"`
	MonitoringThreshold int64  `mapstructure:"monitoring-threshold"`
	ClearStreak         int    `mapstructure:"clear-streak"`
	AtRiskDaysLeft      int    `mapstructure:"at-risk-days"`

	// --- Notification flags ---
	BudgetMax    int    `mapstructure:"budget-max"`
	BudgetPeriod string `mapstructure:"budget-period"`

	// --- Fields from forecastCmd.Flags() ---
	Strategy string `mapstructure:"strategy"`
	MAWindow int    `mapstructure:"ma-window"`
	Horizon  int    `mapstructure:"horizon"`
}

// ProcessAndValidate converts raw inputs into the final validated Config.
// Validation rejects malformed values up front; nothing is silently coerced
// except where clamping is the documented behavior.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input); err != nil {
		return err
	}
	if err := processPolicy(cfg, input); err != nil {
		return err
	}
	if err := processForecast(cfg, input); err != nil {
		return err
	}
	return validateBackendConfigs(cfg, input)
}

// validateSimpleInputs processes and validates all scalar fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.MemberID = strings.TrimSpace(input.MemberIDStr)
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Limit <= 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("%w: limit must be greater than 0 and cannot exceed %d (received %d)", ErrInvalidConfiguration, MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	if input.Workers <= 0 {
		return fmt.Errorf("%w: workers must be greater than 0 (received %d)", ErrInvalidConfiguration, input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 0 || input.Precision > 2 {
		return fmt.Errorf("%w: precision must be between 0 and 2 (received %d)", ErrInvalidConfiguration, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Granularity = schema.Granularity(strings.ToLower(input.Granularity))
	if _, ok := schema.ValidGranularities[cfg.Granularity]; !ok {
		return fmt.Errorf("%w: invalid granularity '%s'. must be daily, weekly, monthly, yearly", ErrInvalidConfiguration, input.Granularity)
	}

	cfg.ValueMode = schema.ValueMode(strings.ToLower(input.ValueMode))
	if _, ok := schema.ValidValueModes[cfg.ValueMode]; !ok {
		return fmt.Errorf("%w: invalid value mode '%s'. must be cumulative or interval", ErrInvalidConfiguration, input.ValueMode)
	}

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("%w: invalid output format '%s'. must be text, csv, json, parquet", ErrInvalidConfiguration, input.Output)
	}

	return nil
}

// processTimeRange handles date parsing and range validation.
func processTimeRange(cfg *Config, input *ConfigRawInput) error {
	now := time.Now().UTC()
	cfg.EndTime = Day(now).Add(24 * time.Hour) // include today
	cfg.StartTime = cfg.EndTime.Add(-DefaultLookbackDays * 24 * time.Hour)

	parseAbsolute := func(s string) (time.Time, error) {
		if t, err := time.Parse(schema.DayFormat, s); err == nil {
			return t, nil
		}
		return time.Parse(DateTimeFormat, s)
	}

	if input.Start != "" {
		t, err := parseAbsolute(input.Start)
		if err == nil {
			cfg.StartTime = t
		} else {
			t, relErr := ParseRelativeTime(input.Start, now)
			if relErr != nil {
				return fmt.Errorf("%w: invalid start date '%s'. Expected YYYY-MM-DD, ISO8601 or 'N [units] ago'", ErrInvalidConfiguration, input.Start)
			}
			cfg.StartTime = t
		}
	}

	if input.End != "" {
		t, err := parseAbsolute(input.End)
		if err == nil {
			cfg.EndTime = t
		} else {
			t, relErr := ParseRelativeTime(input.End, now)
			if relErr != nil {
				return fmt.Errorf("%w: invalid end date '%s'. Expected YYYY-MM-DD, ISO8601 or 'N [units] ago'", ErrInvalidConfiguration, input.End)
			}
			cfg.EndTime = t
		}
	}

	if !cfg.StartTime.Before(cfg.EndTime) {
		return fmt.Errorf("%w: start time (%s) must be before end time (%s)", ErrInvalidConfiguration, cfg.StartTime.Format(DateTimeFormat), cfg.EndTime.Format(DateTimeFormat))
	}

	return nil
}

// processPolicy validates the probation and notification policy knobs.
func processPolicy(cfg *Config, input *ConfigRawInput) error {
	probation, err := ParseSpanDuration(input.ProbationWindow)
	if err != nil {
		return fmt.Errorf("%w: invalid probation window: %v", ErrInvalidConfiguration, err)
	}
	cfg.ProbationDuration = probation

	monitoring, err := ParseSpanDuration(input.MonitoringWindow)
	if err != nil {
		return fmt.Errorf("%w: invalid monitoring window: %v", ErrInvalidConfiguration, err)
	}
	cfg.MonitoringDuration = monitoring

	if input.ProbationThreshold <= 0 {
		return fmt.Errorf("%w: probation threshold must be positive (received %d)", ErrInvalidConfiguration, input.ProbationThreshold)
	}
	cfg.ProbationThreshold = input.ProbationThreshold

	if input.MonitoringThreshold <= 0 {
		return fmt.Errorf("%w: monitoring threshold must be positive (received %d)", ErrInvalidConfiguration, input.MonitoringThreshold)
	}
	cfg.MonitoringThreshold = input.MonitoringThreshold

	if input.ClearStreak < 1 {
		return fmt.Errorf("%w: clear streak must be at least 1 (received %d)", ErrInvalidConfiguration, input.ClearStreak)
	}
	cfg.ClearStreak = input.ClearStreak

	if input.AtRiskDaysLeft < 0 {
		return fmt.Errorf("%w: at-risk days must not be negative (received %d)", ErrInvalidConfiguration, input.AtRiskDaysLeft)
	}
	cfg.AtRiskDaysLeft = input.AtRiskDaysLeft

	if input.BudgetMax < 1 {
		return fmt.Errorf("%w: budget max must be at least 1 (received %d)", ErrInvalidConfiguration, input.BudgetMax)
	}
	cfg.BudgetMax = input.BudgetMax

	period, err := ParseSpanDuration(input.BudgetPeriod)
	if err != nil {
		return fmt.Errorf("%w: invalid budget period: %v", ErrInvalidConfiguration, err)
	}
	cfg.BudgetPeriod = period

	return nil
}

// processForecast validates forecasting configuration. The moving-average
// window must be at least 1; clamping to history length happens later, at
// prediction time, as the one documented coercion.
func processForecast(cfg *Config, input *ConfigRawInput) error {
	cfg.Strategy = schema.Strategy(strings.ToLower(input.Strategy))
	if _, ok := schema.ValidStrategies[cfg.Strategy]; !ok {
		return fmt.Errorf("%w: invalid strategy '%s'. must be linear or moving-average", ErrInvalidConfiguration, input.Strategy)
	}

	if input.MAWindow < 1 {
		return fmt.Errorf("%w: moving-average window must be at least 1 (received %d)", ErrInvalidConfiguration, input.MAWindow)
	}
	cfg.MAWindow = input.MAWindow

	if input.Horizon < 1 {
		return fmt.Errorf("%w: horizon must be at least 1 (received %d)", ErrInvalidConfiguration, input.Horizon)
	}
	cfg.Horizon = input.Horizon

	return nil
}

// ValidateDatabaseConnectionString validates the format of database
// connection strings for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates store and cache backend configurations.
// The none backend is only meaningful for the cache store; data commands need
// a real store behind them.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("%w: invalid store backend '%s'. must be sqlite, mysql, postgresql", ErrInvalidConfiguration, input.StoreBackend)
	}
	if cfg.StoreBackend == schema.NoneBackend {
		return fmt.Errorf("%w: store backend cannot be none", ErrInvalidConfiguration)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("%w: invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", ErrInvalidConfiguration, input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// Store and cache must not share a SQLite file.
	if cfg.StoreBackend == schema.SQLiteBackend && cfg.CacheBackend == schema.SQLiteBackend {
		storePath := cfg.StoreDBConnect
		if storePath == "" {
			storePath = GetStoreDBFilePath()
		}
		cachePath := cfg.CacheDBConnect
		if cachePath == "" {
			cachePath = GetCacheDBFilePath()
		}
		if storePath == cachePath {
			return fmt.Errorf("store and cache must use different SQLite database files. Both resolve to %q", storePath)
		}
	}

	return nil
}

// ProcessProfilingConfig validates and applies the profiling prefix.
func ProcessProfilingConfig(profile *ProfileConfig, prefix string) error {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		profile.Enabled = false
		return nil
	}
	if strings.ContainsAny(prefix, " \t") {
		return fmt.Errorf("profile prefix must not contain whitespace: %q", prefix)
	}
	profile.Enabled = true
	profile.Prefix = prefix
	return nil
}
