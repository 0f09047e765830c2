package agg

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// Snapshot is one leaderboard export: cumulative totals per member as of a
// single date.
type Snapshot struct {
	Date   time.Time
	Totals map[string]int64
}

// Matches the date embedded in snapshot filenames, e.g. "leaderboard-2026-03-01.csv".
var snapshotDateRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

// ParseSnapshotDate extracts the snapshot date from a file name.
func ParseSnapshotDate(path string) (time.Time, error) {
	base := filepath.Base(path)
	match := snapshotDateRe.FindString(base)
	if match == "" {
		return time.Time{}, fmt.Errorf("%w: no YYYY-MM-DD date in snapshot file name %q", contract.ErrInvalidConfiguration, base)
	}
	t, err := time.Parse(schema.DayFormat, match)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q in snapshot file name %q", contract.ErrInvalidConfiguration, match, base)
	}
	return t, nil
}

// ParseSnapshotCSV reads one leaderboard export. The expected layout is two
// columns, member_id and total_points, with an optional header row. Totals
// are cumulative lifetime points at export time.
func ParseSnapshotCSV(r io.Reader) (map[string]int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	totals := make(map[string]int64)
	line := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot row: %w", err)
		}
		line++

		memberID := strings.TrimSpace(row[0])
		value := strings.TrimSpace(row[1])

		// Skip a header row if present.
		if line == 1 && !isNumeric(value) {
			continue
		}

		if memberID == "" {
			return nil, fmt.Errorf("%w: empty member id on row %d", contract.ErrInvalidConfiguration, line)
		}
		total, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad total %q for member %s on row %d", contract.ErrInvalidConfiguration, value, memberID, line)
		}
		if total < 0 {
			return nil, fmt.Errorf("%w: negative total %d for member %s on row %d", contract.ErrInvalidConfiguration, total, memberID, line)
		}
		if _, seen := totals[memberID]; seen {
			return nil, fmt.Errorf("%w: duplicate member %s on row %d", contract.ErrInvalidConfiguration, memberID, line)
		}
		totals[memberID] = total
	}

	return totals, nil
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// BuildRecords converts a set of cumulative snapshots into per-day delta
// records. Snapshots are processed in date order; each member's delta between
// consecutive snapshots lands on the later snapshot's date. The earliest
// snapshot seeds each member's opening balance on its own date, and a member's
// first appearance in any later snapshot does the same.
//
// Negative deltas are kept as-is. Leaderboards occasionally revise totals
// downward and the correction has to land somewhere.
func BuildRecords(snapshots []Snapshot) []schema.ContributionRecord {
	sorted := make([]Snapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	baseline := make(map[string]int64)
	var records []schema.ContributionRecord

	for _, snap := range sorted {
		day := contract.Day(snap.Date)

		// Deterministic output order within one snapshot.
		members := make([]string, 0, len(snap.Totals))
		for memberID := range snap.Totals {
			members = append(members, memberID)
		}
		sort.Strings(members)

		for _, memberID := range members {
			total := snap.Totals[memberID]
			delta := total - baseline[memberID]
			baseline[memberID] = total

			if delta == 0 {
				continue
			}
			records = append(records, schema.ContributionRecord{
				MemberID: memberID,
				Date:     day,
				Points:   delta,
			})
		}
	}

	return records
}
