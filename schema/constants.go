package schema

// Custom string types for type safety.
type (
	// Granularity is the bucket size used when aggregating daily records.
	Granularity string

	// ValueMode selects cumulative totals or per-bucket intervals.
	ValueMode string

	// Verdict is the tri-state milestone classification.
	Verdict string

	// Phase is a member's position in the compliance lifecycle.
	Phase string

	// WindowKind distinguishes probation windows from monitoring windows.
	WindowKind string

	// Strategy selects a forecasting implementation.
	Strategy string

	// EventClass is the notification class of a milestone transition.
	EventClass string

	// OutputMode represents the format of command output.
	OutputMode string

	// DatabaseBackend represents the database backend for storage.
	DatabaseBackend string
)

// All aggregation granularities supported.
const (
	Daily   Granularity = "daily" // default
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
	Yearly  Granularity = "yearly"
)

// All value modes supported.
const (
	Cumulative ValueMode = "cumulative" // default
	Interval   ValueMode = "interval"
)

// Milestone verdicts. VerdictNone doubles as "no override set".
const (
	VerdictNone Verdict = "none"
	VerdictPass Verdict = "pass"
	VerdictFail Verdict = "fail"
)

// Member lifecycle phases.
const (
	PhaseInactive   Phase = "inactive"
	PhaseProbation  Phase = "probation"
	PhaseMonitoring Phase = "monitoring"
	PhaseCleared    Phase = "cleared"
	PhaseRetired    Phase = "retired"
)

// Compliance window kinds.
const (
	ProbationWindow  WindowKind = "probation"
	MonitoringWindow WindowKind = "monitoring"
)

// All forecasting strategies supported.
const (
	LinearRegression Strategy = "linear" // default
	MovingAverage    Strategy = "moving-average"
)

// Notification event classes a recipient can subscribe to.
const (
	ClassFail        EventClass = "fail"    // first entry into an effective Fail
	ClassPass        EventClass = "pass"    // effective Pass
	ClassRelapse     EventClass = "relapse" // Fail during a monitoring window
	ClassForgiveness EventClass = "forgiveness"
	ClassReset       EventClass = "reset" // effective verdict returned to undecided
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	CSVOut     OutputMode = "csv"
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// ValidGranularities lists all valid aggregation granularities.
var ValidGranularities = map[Granularity]struct{}{
	Daily:   {},
	Weekly:  {},
	Monthly: {},
	Yearly:  {},
}

// ValidValueModes lists all valid value modes.
var ValidValueModes = map[ValueMode]struct{}{
	Cumulative: {},
	Interval:   {},
}

// ValidVerdicts lists all valid verdict values, including the unset marker
// used to clear an override.
var ValidVerdicts = map[Verdict]struct{}{
	VerdictNone: {},
	VerdictPass: {},
	VerdictFail: {},
}

// ValidStrategies lists all valid forecasting strategies.
var ValidStrategies = map[Strategy]struct{}{
	LinearRegression: {},
	MovingAverage:    {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	CSVOut:     {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidEventClasses lists all valid notification event classes.
var ValidEventClasses = map[EventClass]struct{}{
	ClassFail:        {},
	ClassPass:        {},
	ClassRelapse:     {},
	ClassForgiveness: {},
	ClassReset:       {},
}
