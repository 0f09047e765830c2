package contract

import (
	"testing"
	"time"
)

// FuzzParseSpanDuration fuzzes the span parser with arbitrary inputs.
func FuzzParseSpanDuration(f *testing.F) {
	seeds := []string{
		"90 days",
		"720h",
		"1 week",
		"0 days",
		"-24h",
		"",
		"ninety days",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, s string) {
		d, err := ParseSpanDuration(s)
		if err == nil && d <= 0 {
			t.Errorf("ParseSpanDuration(%q) accepted a non-positive duration %v", s, d)
		}
	})
}

// FuzzParseRelativeTime fuzzes the relative time parser with arbitrary inputs.
func FuzzParseRelativeTime(f *testing.F) {
	seeds := []string{
		"90 days ago",
		"3 Months Ago",
		"1 minute ago",
		"tomorrow",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	now := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	f.Fuzz(func(t *testing.T, s string) {
		parsed, err := ParseRelativeTime(s, now)
		if err == nil && parsed.After(now) {
			t.Errorf("ParseRelativeTime(%q) produced a future time %v", s, parsed)
		}
	})
}
