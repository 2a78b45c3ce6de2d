package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means a fresh database.
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// SchemaVersion returns the version recorded in the database.
func (db *DB) SchemaVersion() (int, error) {
	var v int
	err := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	return v, err
}

// migrateV1 creates the snapshot history, suppression and scan run tables.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS health_snapshots (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			workspace      TEXT NOT NULL,
			taken_at       TEXT NOT NULL,
			triggered_by   TEXT NOT NULL,
			score          INTEGER NOT NULL,
			explicit_score BOOLEAN NOT NULL,
			lint_errors    INTEGER NOT NULL,
			lint_warnings  INTEGER NOT NULL,
			type_errors    INTEGER NOT NULL,
			sec_high       INTEGER NOT NULL,
			sec_medium     INTEGER NOT NULL,
			sec_low        INTEGER NOT NULL,
			tests_passed   INTEGER NOT NULL,
			tests_failed   INTEGER NOT NULL,
			tests_total    INTEGER NOT NULL,
			coverage       REAL NOT NULL,
			debt_total     INTEGER NOT NULL,
			patterns       INTEGER NOT NULL,
			savings_total  REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS suppressions (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			workspace  TEXT NOT NULL,
			file       TEXT NOT NULL,
			line       INTEGER NOT NULL,
			rule       TEXT NOT NULL DEFAULT '',
			reason     TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (workspace, file, line, rule)
		)`,

		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			workspace   TEXT NOT NULL,
			kind        TEXT NOT NULL,
			started_at  TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			exit_code   INTEGER NOT NULL,
			status      TEXT NOT NULL,
			error       TEXT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_health_snapshots_workspace ON health_snapshots(workspace, id)`,
		`CREATE INDEX IF NOT EXISTS idx_suppressions_workspace ON suppressions(workspace)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_runs_workspace ON scan_runs(workspace, started_at)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
