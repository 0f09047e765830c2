package schema

import (
	"fmt"
	"strings"
)

// DayFormat is the canonical representation of a record date.
const DayFormat = "2006-01-02"

// FormatPoints renders a point count with thousands grouping for tables.
func FormatPoints(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// CompactPoints renders large point counts as 1.2K / 3.4M / 5.6B.
func CompactPoints(n int64) string {
	abs := n
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// ParseEventClasses parses a comma-separated class list, rejecting unknown
// class names.
func ParseEventClasses(s string) ([]EventClass, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var classes []EventClass
	for _, part := range strings.Split(s, ",") {
		c := EventClass(strings.ToLower(strings.TrimSpace(part)))
		if c == "" {
			continue
		}
		if _, ok := ValidEventClasses[c]; !ok {
			return nil, fmt.Errorf("unknown event class %q. must be fail, pass, relapse, forgiveness", part)
		}
		classes = append(classes, c)
	}
	return classes, nil
}

// FormatEventClasses joins classes for display and storage.
func FormatEventClasses(classes []EventClass) string {
	parts := make([]string, 0, len(classes))
	for _, c := range classes {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}
