// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteStatuses prints member status results using the configured output format.
func (ow *OutWriter) WriteStatuses(statuses []schema.MemberStatus, cfg *contract.Config, duration time.Duration) error {
	return PrintMemberStatuses(statuses, cfg, duration)
}

// WriteSeries prints an aggregated series using the configured output format.
func (ow *OutWriter) WriteSeries(series schema.AggregatedSeries, cfg *contract.Config) error {
	return PrintSeries(series, cfg)
}

// WriteForecast prints a forecast result using the configured output format.
func (ow *OutWriter) WriteForecast(result schema.ForecastResult, cfg *contract.Config) error {
	return PrintForecast(result, cfg)
}

// WriteTransitions prints the transition log using the configured output format.
func (ow *OutWriter) WriteTransitions(transitions []schema.MilestoneTransition, cfg *contract.Config) error {
	return PrintTransitions(transitions, cfg)
}

// WriteBatchReport prints a batch evaluation summary using the configured output format.
func (ow *OutWriter) WriteBatchReport(result schema.BatchResult, cfg *contract.Config) error {
	return PrintBatchReport(result, cfg)
}

// WriteRecipients prints the recipient roster using the configured output format.
func (ow *OutWriter) WriteRecipients(recipients []schema.Recipient, cfg *contract.Config) error {
	return PrintRecipients(recipients, cfg)
}

// WriteOutcomes prints notification audit rows using the configured output format.
func (ow *OutWriter) WriteOutcomes(outcomes []schema.NotificationOutcome, cfg *contract.Config) error {
	return PrintOutcomes(outcomes, cfg)
}

// getMaxTableIDWidth calculates the maximum width for member IDs in table
// output based on terminal width.
func getMaxTableIDWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default for narrow terminals and CI
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for the fixed columns with table formatting
	baseWidth := 60

	available := termWidth - baseWidth
	if available < 10 {
		return 10
	}
	if available > 40 {
		return 40
	}
	return available
}
