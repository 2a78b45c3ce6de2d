package store

import (
	"database/sql"
	"fmt"
	"time"
)

// AddSuppression records an ignore decision. Ignoring the same file, line
// and rule again updates the reason instead of adding a duplicate.
func (db *DB) AddSuppression(s *Suppression) (int64, error) {
	if s.File == "" || s.Line < 1 {
		return 0, fmt.Errorf("suppression needs a file and a line >= 1")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	var id int64
	err := db.conn.QueryRow(
		`INSERT INTO suppressions (workspace, file, line, rule, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (workspace, file, line, rule) DO UPDATE SET reason = excluded.reason
		RETURNING id`,
		s.Workspace, s.File, s.Line, s.Rule, s.Reason, formatTime(s.CreatedAt),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	s.ID = id
	return id, nil
}

// ListSuppressions returns every suppression for workspace, oldest first.
func (db *DB) ListSuppressions(workspace string) ([]Suppression, error) {
	rows, err := db.conn.Query(
		`SELECT id, workspace, file, line, rule, reason, created_at
		 FROM suppressions WHERE workspace = ? ORDER BY id`,
		workspace,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Suppression
	for rows.Next() {
		var s Suppression
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Workspace, &s.File, &s.Line, &s.Rule, &s.Reason, &createdAt); err != nil {
			return nil, err
		}
		s.CreatedAt = parseTime(createdAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// RemoveSuppression deletes a suppression by ID. Removing an unknown ID
// returns sql.ErrNoRows.
func (db *DB) RemoveSuppression(id int64) error {
	result, err := db.conn.Exec("DELETE FROM suppressions WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
