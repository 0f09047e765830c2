package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// SeriesStoreImpl stores daily contribution records in a SQL backend.
type SeriesStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.SeriesStore = &SeriesStoreImpl{} // Compile-time check

// NewSeriesStore initializes the record table on the shared store connection.
func NewSeriesStore(db *sql.DB, backend schema.DatabaseBackend) (*SeriesStoreImpl, error) {
	if err := validateTableName(recordsTable); err != nil {
		return nil, err
	}
	if _, err := db.Exec(getCreateRecordsQuery(backend)); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", recordsTable, err)
	}
	return &SeriesStoreImpl{db: db, backend: backend}, nil
}

// getCreateRecordsQuery returns the CREATE TABLE query for contribution records.
func getCreateRecordsQuery(backend schema.DatabaseBackend) string {
	quoted := quoteTableName(recordsTable, backend)

	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id VARCHAR(255) NOT NULL,
				record_date VARCHAR(10) NOT NULL,
				points BIGINT NOT NULL,
				PRIMARY KEY (member_id, record_date)
			);
		`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id TEXT NOT NULL,
				record_date TEXT NOT NULL,
				points BIGINT NOT NULL,
				PRIMARY KEY (member_id, record_date)
			);
		`, quoted)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id TEXT NOT NULL,
				record_date TEXT NOT NULL,
				points INTEGER NOT NULL,
				PRIMARY KEY (member_id, record_date)
			);
		`, quoted)
	}
}

// FetchRecords returns a member's records inside the half-open range, ordered
// by date. Dates are stored as YYYY-MM-DD text, so string comparison matches
// chronological order.
func (ss *SeriesStoreImpl) FetchRecords(ctx context.Context, memberID string, rng schema.DateRange) ([]schema.ContributionRecord, error) {
	quoted := quoteTableName(recordsTable, ss.backend)
	ph := placeholders(ss.backend, 0, 3)
	query := fmt.Sprintf(`SELECT member_id, record_date, points FROM %s
		WHERE member_id = %s AND record_date >= %s AND record_date < %s
		ORDER BY record_date`, quoted, ph[0], ph[1], ph[2])

	rows, err := ss.db.QueryContext(ctx, query, memberID, formatDay(rng.Start), formatDay(rng.End))
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ContributionRecord
	for rows.Next() {
		var rec schema.ContributionRecord
		var dateStr string
		if err := rows.Scan(&rec.MemberID, &dateStr, &rec.Points); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if rec.Date, err = parseDay(dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse record_date: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// RecordCount returns the number of stored records for a member.
func (ss *SeriesStoreImpl) RecordCount(ctx context.Context, memberID string) (int64, error) {
	quoted := quoteTableName(recordsTable, ss.backend)
	ph := placeholders(ss.backend, 0, 1)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE member_id = %s`, quoted, ph[0])

	var count int64
	if err := ss.db.QueryRowContext(ctx, query, memberID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// AppendRecords writes records in one transaction. Re-ingesting the same day
// replaces the stored delta rather than duplicating it.
func (ss *SeriesStoreImpl) AppendRecords(ctx context.Context, records []schema.ContributionRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := ss.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := ss.getUpsertRecordQuery()
	for _, rec := range records {
		if _, err := tx.ExecContext(ctx, query, rec.MemberID, formatDay(rec.Date), rec.Points); err != nil {
			return fmt.Errorf("failed to insert record for %s: %w", rec.MemberID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}

// getUpsertRecordQuery returns the backend-specific UPSERT for one record.
func (ss *SeriesStoreImpl) getUpsertRecordQuery() string {
	quoted := quoteTableName(recordsTable, ss.backend)

	switch ss.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (member_id, record_date, points) VALUES (?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE points = new.points`, quoted)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s (member_id, record_date, points) VALUES ($1, $2, $3)
			ON CONFLICT (member_id, record_date) DO UPDATE SET points = EXCLUDED.points`, quoted)

	default: // SQLite
		return fmt.Sprintf(`INSERT OR REPLACE INTO %s (member_id, record_date, points) VALUES (?, ?, ?)`, quoted)
	}
}

// recordsStatus fills the record-related fields of a store status report.
func (ss *SeriesStoreImpl) recordsStatus(ctx context.Context, status *schema.StoreStatus) error {
	quoted := quoteTableName(recordsTable, ss.backend)

	row := ss.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", quoted))
	if err := row.Scan(&status.Records); err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if status.Records == 0 {
		return nil
	}

	var oldest, newest string
	row = ss.db.QueryRowContext(ctx, fmt.Sprintf("SELECT MIN(record_date), MAX(record_date) FROM %s", quoted))
	if err := row.Scan(&oldest, &newest); err != nil {
		return fmt.Errorf("failed to get record range: %w", err)
	}

	var err error
	if status.OldestRecord, err = parseDay(oldest); err != nil {
		return fmt.Errorf("failed to parse oldest record date: %w", err)
	}
	if status.NewestRecord, err = parseDay(newest); err != nil {
		return fmt.Errorf("failed to parse newest record date: %w", err)
	}
	return nil
}

// AllRecords returns every stored record ordered by member and date, for
// parquet export.
func (ss *SeriesStoreImpl) AllRecords(ctx context.Context) ([]schema.ContributionRecord, error) {
	quoted := quoteTableName(recordsTable, ss.backend)
	query := fmt.Sprintf(`SELECT member_id, record_date, points FROM %s ORDER BY member_id, record_date`, quoted)

	rows, err := ss.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.ContributionRecord
	for rows.Next() {
		var rec schema.ContributionRecord
		var dateStr string
		if err := rows.Scan(&rec.MemberID, &dateStr, &rec.Points); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if rec.Date, err = parseDay(dateStr); err != nil {
			return nil, fmt.Errorf("failed to parse record_date: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// Close is a no-op; the connection is owned by the store manager.
func (ss *SeriesStoreImpl) Close() error {
	return nil
}
