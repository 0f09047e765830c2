package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/farmsight/farmsight/internal/contract"
	"github.com/farmsight/farmsight/schema"
)

// ComplianceStoreImpl stores members, windows, verdicts, transitions,
// recipients and notification outcomes in a SQL backend.
type ComplianceStoreImpl struct {
	db       *sql.DB
	backend  schema.DatabaseBackend
	location string
}

var _ contract.ComplianceStore = &ComplianceStoreImpl{} // Compile-time check

// NewComplianceStore initializes the compliance tables on the shared store
// connection.
func NewComplianceStore(db *sql.DB, backend schema.DatabaseBackend, location string) (*ComplianceStoreImpl, error) {
	cs := &ComplianceStoreImpl{db: db, backend: backend, location: location}
	if err := cs.createTables(); err != nil {
		return nil, err
	}
	return cs, nil
}

// createTables creates the compliance table schemas.
func (cs *ComplianceStoreImpl) createTables() error {
	tables := []struct {
		name  string
		query string
	}{
		{membersTable, cs.getCreateMembersQuery()},
		{windowsTable, cs.getCreateWindowsQuery()},
		{verdictsTable, cs.getCreateVerdictsQuery()},
		{transitionsTable, cs.getCreateTransitionsQuery()},
		{recipientsTable, cs.getCreateRecipientsQuery()},
		{outcomesTable, cs.getCreateOutcomesQuery()},
	}

	for _, table := range tables {
		if err := validateTableName(table.name); err != nil {
			return err
		}
		if _, err := cs.db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

func (cs *ComplianceStoreImpl) getCreateMembersQuery() string {
	quoted := quoteTableName(membersTable, cs.backend)

	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id VARCHAR(255) PRIMARY KEY,
				phase VARCHAR(20) NOT NULL,
				streak INT NOT NULL,
				retired_at VARCHAR(40)
			);
		`, quoted)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id TEXT PRIMARY KEY,
				phase TEXT NOT NULL,
				streak INTEGER NOT NULL,
				retired_at TEXT
			);
		`, quoted)
	}
}

func (cs *ComplianceStoreImpl) getCreateWindowsQuery() string {
	quoted := quoteTableName(windowsTable, cs.backend)

	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id VARCHAR(255) PRIMARY KEY,
				kind VARCHAR(20) NOT NULL,
				window_start VARCHAR(10) NOT NULL,
				window_end VARCHAR(40) NOT NULL,
				threshold BIGINT NOT NULL,
				sequence INT NOT NULL
			);
		`, quoted)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				window_start TEXT NOT NULL,
				window_end TEXT NOT NULL,
				threshold BIGINT NOT NULL,
				sequence INTEGER NOT NULL
			);
		`, quoted)
	}
}

func (cs *ComplianceStoreImpl) getCreateVerdictsQuery() string {
	quoted := quoteTableName(verdictsTable, cs.backend)

	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id VARCHAR(255) NOT NULL,
				window_kind VARCHAR(20) NOT NULL,
				window_start VARCHAR(10) NOT NULL,
				window_seq INT NOT NULL,
				window_end VARCHAR(40) NOT NULL,
				threshold BIGINT NOT NULL,
				points BIGINT NOT NULL,
				computed VARCHAR(10) NOT NULL,
				override_verdict VARCHAR(10) NOT NULL,
				forgiven INT NOT NULL,
				final INT NOT NULL,
				evaluated_at VARCHAR(40) NOT NULL,
				PRIMARY KEY (member_id, window_kind, window_start, window_seq)
			);
		`, quoted)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				member_id TEXT NOT NULL,
				window_kind TEXT NOT NULL,
				window_start TEXT NOT NULL,
				window_seq INTEGER NOT NULL,
				window_end TEXT NOT NULL,
				threshold BIGINT NOT NULL,
				points BIGINT NOT NULL,
				computed TEXT NOT NULL,
				override_verdict TEXT NOT NULL,
				forgiven INTEGER NOT NULL,
				final INTEGER NOT NULL,
				evaluated_at TEXT NOT NULL,
				PRIMARY KEY (member_id, window_kind, window_start, window_seq)
			);
		`, quoted)
	}
}

func (cs *ComplianceStoreImpl) getCreateTransitionsQuery() string {
	quoted := quoteTableName(transitionsTable, cs.backend)

	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				member_id VARCHAR(255) NOT NULL,
				window_kind VARCHAR(20) NOT NULL,
				previous_verdict VARCHAR(10) NOT NULL,
				new_verdict VARCHAR(10) NOT NULL,
				forgiven_before INT NOT NULL,
				forgiven_after INT NOT NULL,
				ts VARCHAR(40) NOT NULL
			);
		`, quoted)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				member_id TEXT NOT NULL,
				window_kind TEXT NOT NULL,
				previous_verdict TEXT NOT NULL,
				new_verdict TEXT NOT NULL,
				forgiven_before INTEGER NOT NULL,
				forgiven_after INTEGER NOT NULL,
				ts TEXT NOT NULL
			);
		`, quoted)
	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				member_id TEXT NOT NULL,
				window_kind TEXT NOT NULL,
				previous_verdict TEXT NOT NULL,
				new_verdict TEXT NOT NULL,
				forgiven_before INTEGER NOT NULL,
				forgiven_after INTEGER NOT NULL,
				ts TEXT NOT NULL
			);
		`, quoted)
	}
}

func (cs *ComplianceStoreImpl) getCreateRecipientsQuery() string {
	quoted := quoteTableName(recipientsTable, cs.backend)

	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				recipient_id VARCHAR(255) PRIMARY KEY,
				classes TEXT NOT NULL
			);
		`, quoted)
	default: // SQLite and PostgreSQL
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				recipient_id TEXT PRIMARY KEY,
				classes TEXT NOT NULL
			);
		`, quoted)
	}
}

func (cs *ComplianceStoreImpl) getCreateOutcomesQuery() string {
	quoted := quoteTableName(outcomesTable, cs.backend)

	switch cs.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGINT AUTO_INCREMENT PRIMARY KEY,
				recipient_id VARCHAR(255) NOT NULL,
				member_id VARCHAR(255) NOT NULL,
				class VARCHAR(20) NOT NULL,
				result VARCHAR(20) NOT NULL,
				ts VARCHAR(40) NOT NULL
			);
		`, quoted)
	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				recipient_id TEXT NOT NULL,
				member_id TEXT NOT NULL,
				class TEXT NOT NULL,
				result TEXT NOT NULL,
				ts TEXT NOT NULL
			);
		`, quoted)
	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				recipient_id TEXT NOT NULL,
				member_id TEXT NOT NULL,
				class TEXT NOT NULL,
				result TEXT NOT NULL,
				ts TEXT NOT NULL
			);
		`, quoted)
	}
}

// LoadMember returns nil without error when the member is unknown.
func (cs *ComplianceStoreImpl) LoadMember(ctx context.Context, memberID string) (*schema.Member, error) {
	quoted := quoteTableName(membersTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`SELECT member_id, phase, streak, retired_at FROM %s WHERE member_id = %s`, quoted, ph[0])

	member, err := scanMember(cs.db.QueryRowContext(ctx, query, memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return member, err
}

// scanMember reads one member row.
func scanMember(row *sql.Row) (*schema.Member, error) {
	var member schema.Member
	var phase string
	var retiredAt *string
	if err := row.Scan(&member.MemberID, &phase, &member.Streak, &retiredAt); err != nil {
		return nil, err
	}
	member.Phase = schema.Phase(phase)
	if retiredAt != nil {
		t, err := parseInstant(*retiredAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse retired_at: %w", err)
		}
		member.RetiredAt = &t
	}
	return &member, nil
}

// SaveMember inserts or replaces a member record.
func (cs *ComplianceStoreImpl) SaveMember(ctx context.Context, member schema.Member) error {
	var retiredAt *string
	if member.RetiredAt != nil {
		s := formatInstant(*member.RetiredAt)
		retiredAt = &s
	}

	quoted := quoteTableName(membersTable, cs.backend)
	var query string
	switch cs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (member_id, phase, streak, retired_at) VALUES (?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE phase = new.phase, streak = new.streak, retired_at = new.retired_at`, quoted)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (member_id, phase, streak, retired_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (member_id) DO UPDATE SET phase = EXCLUDED.phase, streak = EXCLUDED.streak, retired_at = EXCLUDED.retired_at`, quoted)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s (member_id, phase, streak, retired_at) VALUES (?, ?, ?, ?)`, quoted)
	}

	if _, err := cs.db.ExecContext(ctx, query, member.MemberID, string(member.Phase), member.Streak, retiredAt); err != nil {
		return fmt.Errorf("failed to save member %s: %w", member.MemberID, err)
	}
	return nil
}

// ListMembers returns all tracked members ordered by ID.
func (cs *ComplianceStoreImpl) ListMembers(ctx context.Context) ([]schema.Member, error) {
	quoted := quoteTableName(membersTable, cs.backend)
	query := fmt.Sprintf(`SELECT member_id, phase, streak, retired_at FROM %s ORDER BY member_id`, quoted)

	rows, err := cs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var members []schema.Member
	for rows.Next() {
		var member schema.Member
		var phase string
		var retiredAt *string
		if err := rows.Scan(&member.MemberID, &phase, &member.Streak, &retiredAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		member.Phase = schema.Phase(phase)
		if retiredAt != nil {
			t, err := parseInstant(*retiredAt)
			if err != nil {
				return nil, fmt.Errorf("failed to parse retired_at: %w", err)
			}
			member.RetiredAt = &t
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// LoadWindow returns the member's active window, or nil when none is open.
func (cs *ComplianceStoreImpl) LoadWindow(ctx context.Context, memberID string) (*schema.ComplianceWindow, error) {
	quoted := quoteTableName(windowsTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`SELECT member_id, kind, window_start, window_end, threshold, sequence FROM %s WHERE member_id = %s`, quoted, ph[0])

	var window schema.ComplianceWindow
	var kind, startStr, endStr string
	err := cs.db.QueryRowContext(ctx, query, memberID).
		Scan(&window.MemberID, &kind, &startStr, &endStr, &window.Threshold, &window.Sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load window for %s: %w", memberID, err)
	}

	window.Kind = schema.WindowKind(kind)
	if window.Start, err = parseDay(startStr); err != nil {
		return nil, fmt.Errorf("failed to parse window_start: %w", err)
	}
	if window.End, err = parseInstant(endStr); err != nil {
		return nil, fmt.Errorf("failed to parse window_end: %w", err)
	}
	return &window, nil
}

// SaveWindow inserts or replaces the member's active window.
func (cs *ComplianceStoreImpl) SaveWindow(ctx context.Context, window schema.ComplianceWindow) error {
	quoted := quoteTableName(windowsTable, cs.backend)
	var query string
	switch cs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (member_id, kind, window_start, window_end, threshold, sequence) VALUES (?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE kind = new.kind, window_start = new.window_start, window_end = new.window_end,
			threshold = new.threshold, sequence = new.sequence`, quoted)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (member_id, kind, window_start, window_end, threshold, sequence) VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (member_id) DO UPDATE SET kind = EXCLUDED.kind, window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end, threshold = EXCLUDED.threshold, sequence = EXCLUDED.sequence`, quoted)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s (member_id, kind, window_start, window_end, threshold, sequence) VALUES (?, ?, ?, ?, ?, ?)`, quoted)
	}

	_, err := cs.db.ExecContext(ctx, query,
		window.MemberID, string(window.Kind), formatDay(window.Start), formatInstant(window.End), window.Threshold, window.Sequence)
	if err != nil {
		return fmt.Errorf("failed to save window for %s: %w", window.MemberID, err)
	}
	return nil
}

// CloseWindow removes the member's active window. The verdict row keeps the
// historical record.
func (cs *ComplianceStoreImpl) CloseWindow(ctx context.Context, memberID string) error {
	quoted := quoteTableName(windowsTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`DELETE FROM %s WHERE member_id = %s`, quoted, ph[0])

	if _, err := cs.db.ExecContext(ctx, query, memberID); err != nil {
		return fmt.Errorf("failed to close window for %s: %w", memberID, err)
	}
	return nil
}

// ListActiveWindows returns every open window ordered by member ID.
func (cs *ComplianceStoreImpl) ListActiveWindows(ctx context.Context) ([]schema.ComplianceWindow, error) {
	quoted := quoteTableName(windowsTable, cs.backend)
	query := fmt.Sprintf(`SELECT member_id, kind, window_start, window_end, threshold, sequence FROM %s ORDER BY member_id`, quoted)

	rows, err := cs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query windows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var windows []schema.ComplianceWindow
	for rows.Next() {
		var window schema.ComplianceWindow
		var kind, startStr, endStr string
		if err := rows.Scan(&window.MemberID, &kind, &startStr, &endStr, &window.Threshold, &window.Sequence); err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		window.Kind = schema.WindowKind(kind)
		if window.Start, err = parseDay(startStr); err != nil {
			return nil, fmt.Errorf("failed to parse window_start: %w", err)
		}
		if window.End, err = parseInstant(endStr); err != nil {
			return nil, fmt.Errorf("failed to parse window_end: %w", err)
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating windows: %w", err)
	}

	return windows, nil
}

// SaveState inserts or replaces the verdict row for the state's window.
// Each window holds one row; re-evaluations overwrite it in place.
func (cs *ComplianceStoreImpl) SaveState(ctx context.Context, state schema.MilestoneState) error {
	quoted := quoteTableName(verdictsTable, cs.backend)
	var query string
	switch cs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s
			(member_id, window_kind, window_start, window_seq, window_end, threshold, points, computed, override_verdict, forgiven, final, evaluated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE window_end = new.window_end, threshold = new.threshold, points = new.points,
			computed = new.computed, override_verdict = new.override_verdict, forgiven = new.forgiven,
			final = new.final, evaluated_at = new.evaluated_at`, quoted)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s
			(member_id, window_kind, window_start, window_seq, window_end, threshold, points, computed, override_verdict, forgiven, final, evaluated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (member_id, window_kind, window_start, window_seq) DO UPDATE SET window_end = EXCLUDED.window_end,
			threshold = EXCLUDED.threshold, points = EXCLUDED.points, computed = EXCLUDED.computed,
			override_verdict = EXCLUDED.override_verdict, forgiven = EXCLUDED.forgiven, final = EXCLUDED.final,
			evaluated_at = EXCLUDED.evaluated_at`, quoted)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s
			(member_id, window_kind, window_start, window_seq, window_end, threshold, points, computed, override_verdict, forgiven, final, evaluated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, quoted)
	}

	_, err := cs.db.ExecContext(ctx, query,
		state.MemberID, string(state.WindowKind), formatDay(state.WindowStart), state.WindowSeq, formatInstant(state.WindowEnd),
		state.Threshold, state.Points, string(state.Computed), string(state.Override),
		boolToInt(state.Forgiven), boolToInt(state.Final), formatInstant(state.EvaluatedAt))
	if err != nil {
		return fmt.Errorf("failed to save state for %s: %w", state.MemberID, err)
	}
	return nil
}

// LoadState returns the member's most recently evaluated verdict, or nil
// when none is recorded.
func (cs *ComplianceStoreImpl) LoadState(ctx context.Context, memberID string) (*schema.MilestoneState, error) {
	quoted := quoteTableName(verdictsTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`SELECT member_id, window_kind, window_start, window_seq, window_end, threshold, points, computed, override_verdict, forgiven, final, evaluated_at
		FROM %s WHERE member_id = %s ORDER BY window_seq DESC, evaluated_at DESC LIMIT 1`, quoted, ph[0])

	rows, err := cs.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state for %s: %w", memberID, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to load state for %s: %w", memberID, err)
		}
		return nil, nil
	}

	state, err := scanState(rows)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// VerdictHistory returns every recorded verdict for a member ordered by
// window start.
func (cs *ComplianceStoreImpl) VerdictHistory(ctx context.Context, memberID string) ([]schema.MilestoneState, error) {
	quoted := quoteTableName(verdictsTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`SELECT member_id, window_kind, window_start, window_seq, window_end, threshold, points, computed, override_verdict, forgiven, final, evaluated_at
		FROM %s WHERE member_id = %s ORDER BY window_seq`, quoted, ph[0])

	rows, err := cs.db.QueryContext(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdict history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []schema.MilestoneState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdict history: %w", err)
	}

	return states, nil
}

// AllStates returns every recorded verdict across members, for parquet export.
func (cs *ComplianceStoreImpl) AllStates(ctx context.Context) ([]schema.MilestoneState, error) {
	quoted := quoteTableName(verdictsTable, cs.backend)
	query := fmt.Sprintf(`SELECT member_id, window_kind, window_start, window_seq, window_end, threshold, points, computed, override_verdict, forgiven, final, evaluated_at
		FROM %s ORDER BY member_id, window_seq`, quoted)

	rows, err := cs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []schema.MilestoneState
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating verdicts: %w", err)
	}

	return states, nil
}

// scanState reads one verdict row.
func scanState(rows *sql.Rows) (*schema.MilestoneState, error) {
	var state schema.MilestoneState
	var kind, startStr, endStr, computed, override, evaluatedStr string
	var forgiven, final int
	if err := rows.Scan(&state.MemberID, &kind, &startStr, &state.WindowSeq, &endStr, &state.Threshold, &state.Points,
		&computed, &override, &forgiven, &final, &evaluatedStr); err != nil {
		return nil, fmt.Errorf("failed to scan verdict: %w", err)
	}

	state.WindowKind = schema.WindowKind(kind)
	state.Computed = schema.Verdict(computed)
	state.Override = schema.Verdict(override)
	state.Forgiven = forgiven != 0
	state.Final = final != 0

	var err error
	if state.WindowStart, err = parseDay(startStr); err != nil {
		return nil, fmt.Errorf("failed to parse window_start: %w", err)
	}
	if state.WindowEnd, err = parseInstant(endStr); err != nil {
		return nil, fmt.Errorf("failed to parse window_end: %w", err)
	}
	if state.EvaluatedAt, err = parseInstant(evaluatedStr); err != nil {
		return nil, fmt.Errorf("failed to parse evaluated_at: %w", err)
	}
	return &state, nil
}

// AppendTransition adds one row to the append-only transition log.
func (cs *ComplianceStoreImpl) AppendTransition(ctx context.Context, transition schema.MilestoneTransition) error {
	quoted := quoteTableName(transitionsTable, cs.backend)
	ph := placeholders(cs.backend, 0, 7)
	query := fmt.Sprintf(`INSERT INTO %s (member_id, window_kind, previous_verdict, new_verdict, forgiven_before, forgiven_after, ts)
		VALUES (%s, %s, %s, %s, %s, %s, %s)`, quoted, ph[0], ph[1], ph[2], ph[3], ph[4], ph[5], ph[6])

	_, err := cs.db.ExecContext(ctx, query,
		transition.MemberID, string(transition.WindowKind), string(transition.Previous), string(transition.New),
		boolToInt(transition.ForgivenBefore), boolToInt(transition.ForgivenAfter), formatInstant(transition.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append transition for %s: %w", transition.MemberID, err)
	}
	return nil
}

// ListTransitions returns the newest transitions, optionally filtered to one
// member. An empty memberID lists across all members.
func (cs *ComplianceStoreImpl) ListTransitions(ctx context.Context, memberID string, limit int) ([]schema.MilestoneTransition, error) {
	quoted := quoteTableName(transitionsTable, cs.backend)

	var query string
	var args []any
	if memberID != "" {
		ph := placeholders(cs.backend, 0, 1)
		query = fmt.Sprintf(`SELECT id, member_id, window_kind, previous_verdict, new_verdict, forgiven_before, forgiven_after, ts
			FROM %s WHERE member_id = %s ORDER BY id DESC LIMIT %d`, quoted, ph[0], limit)
		args = []any{memberID}
	} else {
		query = fmt.Sprintf(`SELECT id, member_id, window_kind, previous_verdict, new_verdict, forgiven_before, forgiven_after, ts
			FROM %s ORDER BY id DESC LIMIT %d`, quoted, limit)
	}

	rows, err := cs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transitions []schema.MilestoneTransition
	for rows.Next() {
		transition, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, *transition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return transitions, nil
}

// AllTransitions returns the whole transition log, for parquet export.
func (cs *ComplianceStoreImpl) AllTransitions(ctx context.Context) ([]schema.MilestoneTransition, error) {
	quoted := quoteTableName(transitionsTable, cs.backend)
	query := fmt.Sprintf(`SELECT id, member_id, window_kind, previous_verdict, new_verdict, forgiven_before, forgiven_after, ts
		FROM %s ORDER BY id`, quoted)

	rows, err := cs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transitions []schema.MilestoneTransition
	for rows.Next() {
		transition, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, *transition)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}

	return transitions, nil
}

// scanTransition reads one transition row.
func scanTransition(rows *sql.Rows) (*schema.MilestoneTransition, error) {
	var transition schema.MilestoneTransition
	var kind, prev, next, tsStr string
	var forgivenBefore, forgivenAfter int
	if err := rows.Scan(&transition.ID, &transition.MemberID, &kind, &prev, &next,
		&forgivenBefore, &forgivenAfter, &tsStr); err != nil {
		return nil, fmt.Errorf("failed to scan transition: %w", err)
	}

	transition.WindowKind = schema.WindowKind(kind)
	transition.Previous = schema.Verdict(prev)
	transition.New = schema.Verdict(next)
	transition.ForgivenBefore = forgivenBefore != 0
	transition.ForgivenAfter = forgivenAfter != 0

	var err error
	if transition.Timestamp, err = parseInstant(tsStr); err != nil {
		return nil, fmt.Errorf("failed to parse transition timestamp: %w", err)
	}
	return &transition, nil
}

// ListRecipients returns all notification recipients ordered by ID.
func (cs *ComplianceStoreImpl) ListRecipients(ctx context.Context) ([]schema.Recipient, error) {
	quoted := quoteTableName(recipientsTable, cs.backend)
	query := fmt.Sprintf(`SELECT recipient_id, classes FROM %s ORDER BY recipient_id`, quoted)

	rows, err := cs.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recipients: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var recipients []schema.Recipient
	for rows.Next() {
		var recipient schema.Recipient
		var classes string
		if err := rows.Scan(&recipient.RecipientID, &classes); err != nil {
			return nil, fmt.Errorf("failed to scan recipient: %w", err)
		}
		if recipient.Classes, err = schema.ParseEventClasses(classes); err != nil {
			return nil, fmt.Errorf("failed to parse stored classes for %s: %w", recipient.RecipientID, err)
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recipients: %w", err)
	}

	return recipients, nil
}

// SaveRecipient inserts or replaces a recipient's subscriptions.
func (cs *ComplianceStoreImpl) SaveRecipient(ctx context.Context, recipient schema.Recipient) error {
	classes := schema.FormatEventClasses(recipient.Classes)

	quoted := quoteTableName(recipientsTable, cs.backend)
	var query string
	switch cs.backend {
	case schema.MySQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (recipient_id, classes) VALUES (?, ?) AS new
			ON DUPLICATE KEY UPDATE classes = new.classes`, quoted)
	case schema.PostgreSQLBackend:
		query = fmt.Sprintf(`INSERT INTO %s (recipient_id, classes) VALUES ($1, $2)
			ON CONFLICT (recipient_id) DO UPDATE SET classes = EXCLUDED.classes`, quoted)
	default: // SQLite
		query = fmt.Sprintf(`INSERT OR REPLACE INTO %s (recipient_id, classes) VALUES (?, ?)`, quoted)
	}

	if _, err := cs.db.ExecContext(ctx, query, recipient.RecipientID, classes); err != nil {
		return fmt.Errorf("failed to save recipient %s: %w", recipient.RecipientID, err)
	}
	return nil
}

// DeleteRecipient removes a recipient. Deleting an unknown recipient is not
// an error.
func (cs *ComplianceStoreImpl) DeleteRecipient(ctx context.Context, recipientID string) error {
	quoted := quoteTableName(recipientsTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`DELETE FROM %s WHERE recipient_id = %s`, quoted, ph[0])

	if _, err := cs.db.ExecContext(ctx, query, recipientID); err != nil {
		return fmt.Errorf("failed to delete recipient %s: %w", recipientID, err)
	}
	return nil
}

// AppendOutcome adds one row to the append-only notification audit log.
func (cs *ComplianceStoreImpl) AppendOutcome(ctx context.Context, outcome schema.NotificationOutcome) error {
	quoted := quoteTableName(outcomesTable, cs.backend)
	ph := placeholders(cs.backend, 0, 5)
	query := fmt.Sprintf(`INSERT INTO %s (recipient_id, member_id, class, result, ts) VALUES (%s, %s, %s, %s, %s)`,
		quoted, ph[0], ph[1], ph[2], ph[3], ph[4])

	_, err := cs.db.ExecContext(ctx, query,
		outcome.RecipientID, outcome.MemberID, string(outcome.Class), outcome.Result, formatInstant(outcome.Timestamp))
	if err != nil {
		return fmt.Errorf("failed to append outcome for %s: %w", outcome.RecipientID, err)
	}
	return nil
}

// ListOutcomes returns the newest notification outcomes, optionally filtered
// to one recipient. An empty recipientID lists across all recipients.
func (cs *ComplianceStoreImpl) ListOutcomes(ctx context.Context, recipientID string, limit int) ([]schema.NotificationOutcome, error) {
	quoted := quoteTableName(outcomesTable, cs.backend)

	var query string
	var args []any
	if recipientID != "" {
		ph := placeholders(cs.backend, 0, 1)
		query = fmt.Sprintf(`SELECT recipient_id, member_id, class, result, ts FROM %s
			WHERE recipient_id = %s ORDER BY id DESC LIMIT %d`, quoted, ph[0], limit)
		args = []any{recipientID}
	} else {
		query = fmt.Sprintf(`SELECT recipient_id, member_id, class, result, ts FROM %s ORDER BY id DESC LIMIT %d`, quoted, limit)
	}

	rows, err := cs.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var outcomes []schema.NotificationOutcome
	for rows.Next() {
		var outcome schema.NotificationOutcome
		var class, tsStr string
		if err := rows.Scan(&outcome.RecipientID, &outcome.MemberID, &class, &outcome.Result, &tsStr); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcome.Class = schema.EventClass(class)
		if outcome.Timestamp, err = parseInstant(tsStr); err != nil {
			return nil, fmt.Errorf("failed to parse outcome timestamp: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}

	return outcomes, nil
}

// CountNotifiedSince returns per-recipient counts of notified outcomes at or
// after the given instant. Timestamps are stored as RFC3339Nano text whose
// lexicographic order diverges once fractional seconds appear, so the cutoff
// is applied after parsing rather than in SQL.
func (cs *ComplianceStoreImpl) CountNotifiedSince(ctx context.Context, since time.Time) (map[string]int, error) {
	quoted := quoteTableName(outcomesTable, cs.backend)
	ph := placeholders(cs.backend, 0, 1)
	query := fmt.Sprintf(`SELECT recipient_id, ts FROM %s WHERE result = %s`, quoted, ph[0])

	rows, err := cs.db.QueryContext(ctx, query, schema.OutcomeNotified)
	if err != nil {
		return nil, fmt.Errorf("failed to query notified outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var recipientID, tsStr string
		if err := rows.Scan(&recipientID, &tsStr); err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		ts, err := parseInstant(tsStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse outcome timestamp: %w", err)
		}
		if !ts.Before(since) {
			counts[recipientID]++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outcomes: %w", err)
	}

	return counts, nil
}

// GetStatus reports row counts and record range for the status command.
func (cs *ComplianceStoreImpl) GetStatus(ctx context.Context) (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:  cs.backend,
		Location: cs.location,
	}

	counts := []struct {
		table string
		dest  *int64
	}{
		{membersTable, &status.Members},
		{windowsTable, &status.Windows},
		{verdictsTable, &status.Verdicts},
		{transitionsTable, &status.Transitions},
		{recipientsTable, &status.Recipients},
		{outcomesTable, &status.Outcomes},
	}
	for _, c := range counts {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(c.table, cs.backend))
		if err := cs.db.QueryRowContext(ctx, query).Scan(c.dest); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", c.table, err)
		}
	}

	series := &SeriesStoreImpl{db: cs.db, backend: cs.backend}
	if err := series.recordsStatus(ctx, &status); err != nil {
		return status, err
	}

	// Approximate on-disk size, SQLite only.
	if cs.backend == schema.SQLiteBackend {
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := cs.db.QueryRowContext(ctx, sizeQuery).Scan(&status.SizeBytes); err != nil {
			status.SizeBytes = 0
		}
	}

	return status, nil
}

// Close is a no-op; the connection is owned by the store manager.
func (cs *ComplianceStoreImpl) Close() error {
	return nil
}

// boolToInt stores booleans portably across backends.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
