package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/farmsight/farmsight/schema"
	"github.com/fatih/color"
)

// Verdict label constants.
const (
	FailValue     = "Fail"
	ForgivenValue = "Forgiven"
	PassValue     = "Pass"
	PendingValue  = "Pending"
	AtRiskValue   = "At Risk"
	OnTrackValue  = "On Track"
)

// Color variables for console output.
var (
	FailColor     = color.New(color.FgRed, color.Bold)    // failColor represents a closed failed window.
	ForgivenColor = color.New(color.FgMagenta)            // forgivenColor marks failures with suppressed consequences.
	PassColor     = color.New(color.FgGreen, color.Bold)  // passColor represents a satisfied window.
	AtRiskColor   = color.New(color.FgYellow, color.Bold) // atRiskColor warns about open windows near their deadline.
	PendingColor  = color.New(color.FgCyan)               // pendingColor is informational / undecided.
)

// GetPlainVerdictLabel returns a plain text label for a member's verdict and
// pace. This is the core logic used for CSV, JSON, and table printing.
func GetPlainVerdictLabel(s schema.MemberStatus) string {
	switch {
	case s.Effective == schema.VerdictFail && s.Forgiven:
		return ForgivenValue
	case s.Effective == schema.VerdictFail:
		return FailValue
	case s.Effective == schema.VerdictPass:
		return PassValue
	case s.Pace == schema.PaceAtRisk:
		return AtRiskValue
	case s.Pace == schema.PaceOnTrack:
		return OnTrackValue
	default:
		return PendingValue
	}
}

// GetColorVerdictLabel returns a colored label for console table output.
func GetColorVerdictLabel(s schema.MemberStatus) string {
	text := GetPlainVerdictLabel(s)

	switch text {
	case FailValue:
		return FailColor.Sprint(text)
	case ForgivenValue:
		return ForgivenColor.Sprint(text)
	case PassValue, OnTrackValue:
		return PassColor.Sprint(text)
	case AtRiskValue:
		return AtRiskColor.Sprint(text)
	default: // "Pending"
		return PendingColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on
// the provided file path. It falls back to os.Stdout for an empty path.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetStoreDBFilePath returns the path to the SQLite DB file for the main store.
func GetStoreDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".farmsight.db"
	}
	return filepath.Join(homeDir, ".farmsight.db")
}

// GetCacheDBFilePath returns the path to the SQLite DB file for status caching.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".farmsight_cache.db"
	}
	return filepath.Join(homeDir, ".farmsight_cache.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// TruncateID truncates a member or recipient ID to a maximum width with an
// ellipsis suffix for narrow terminals.
func TruncateID(id string, maxWidth int) string {
	runes := []rune(id)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return id
}
