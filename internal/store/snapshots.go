package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/blackwell-systems/healthsync/internal/health"
)

const snapshotColumns = `id, workspace, taken_at, triggered_by, score, explicit_score,
	lint_errors, lint_warnings, type_errors, sec_high, sec_medium, sec_low,
	tests_passed, tests_failed, tests_total, coverage, debt_total, patterns, savings_total`

// RecordSnapshot stores a health snapshot for workspace and returns its ID.
// trigger names what caused the recomputation, such as "refresh" or
// "scan:general".
func (db *DB) RecordSnapshot(workspace, trigger string, s *health.Snapshot) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO health_snapshots
		(workspace, taken_at, triggered_by, score, explicit_score,
		 lint_errors, lint_warnings, type_errors, sec_high, sec_medium, sec_low,
		 tests_passed, tests_failed, tests_total, coverage, debt_total, patterns, savings_total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		workspace, formatTime(time.Now()), trigger, s.Score, s.ExplicitScore,
		s.Lint.Errors, s.Lint.Warnings, s.Types.Errors,
		s.Security.High, s.Security.Medium, s.Security.Low,
		s.Tests.Passed, s.Tests.Failed, s.Tests.Total, s.Tests.CoveragePercent,
		s.TechDebt.Total, s.Patterns.Count, s.Patterns.SavingsTotal,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LatestSnapshot returns the most recent snapshot for workspace, or nil if
// none exist.
func (db *DB) LatestSnapshot(workspace string) (*SnapshotRow, error) {
	row := db.conn.QueryRow(
		"SELECT "+snapshotColumns+" FROM health_snapshots WHERE workspace = ? ORDER BY id DESC LIMIT 1",
		workspace,
	)
	s, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// ListSnapshots returns up to limit snapshots for workspace, newest first.
func (db *DB) ListSnapshots(workspace string, limit int) ([]SnapshotRow, error) {
	rows, err := db.conn.Query(
		"SELECT "+snapshotColumns+" FROM health_snapshots WHERE workspace = ? ORDER BY id DESC LIMIT ?",
		workspace, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotRow
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// PruneSnapshots keeps only the newest keep snapshots for workspace and
// returns how many were deleted.
func (db *DB) PruneSnapshots(workspace string, keep int) (int64, error) {
	result, err := db.conn.Exec(
		`DELETE FROM health_snapshots WHERE workspace = ? AND id NOT IN (
			SELECT id FROM health_snapshots WHERE workspace = ? ORDER BY id DESC LIMIT ?
		)`,
		workspace, workspace, keep,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*SnapshotRow, error) {
	var s SnapshotRow
	var takenAt string
	err := row.Scan(
		&s.ID, &s.Workspace, &takenAt, &s.Trigger, &s.Score, &s.ExplicitScore,
		&s.LintErrors, &s.LintWarnings, &s.TypeErrors,
		&s.SecHigh, &s.SecMedium, &s.SecLow,
		&s.TestsPassed, &s.TestsFailed, &s.TestsTotal, &s.Coverage,
		&s.DebtTotal, &s.Patterns, &s.SavingsTotal,
	)
	if err != nil {
		return nil, err
	}
	s.TakenAt = parseTime(takenAt)
	return &s, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
