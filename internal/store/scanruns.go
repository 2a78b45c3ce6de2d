package store

import (
	"database/sql"
	"time"
)

// RecordScanRun stores the outcome of one pipeline invocation.
func (db *DB) RecordScanRun(r *ScanRun) error {
	var errText sql.NullString
	if r.Error != "" {
		errText = sql.NullString{String: r.Error, Valid: true}
	}
	_, err := db.conn.Exec(
		`INSERT INTO scan_runs (id, workspace, kind, started_at, duration_ms, exit_code, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Workspace, r.Kind, formatTime(r.StartedAt), r.Duration.Milliseconds(),
		r.ExitCode, r.Status, errText,
	)
	return err
}

// ListScanRuns returns up to limit scan runs for workspace, newest first.
func (db *DB) ListScanRuns(workspace string, limit int) ([]ScanRun, error) {
	rows, err := db.conn.Query(
		`SELECT id, workspace, kind, started_at, duration_ms, exit_code, status, error
		 FROM scan_runs WHERE workspace = ? ORDER BY started_at DESC LIMIT ?`,
		workspace, limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ScanRun
	for rows.Next() {
		var r ScanRun
		var startedAt string
		var durationMs int64
		var errText sql.NullString
		if err := rows.Scan(&r.ID, &r.Workspace, &r.Kind, &startedAt, &durationMs,
			&r.ExitCode, &r.Status, &errText); err != nil {
			return nil, err
		}
		r.StartedAt = parseTime(startedAt)
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.Error = errText.String
		out = append(out, r)
	}
	return out, rows.Err()
}
