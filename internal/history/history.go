// Package history keeps a local SQLite record of monitoring sessions and the
// alerts raised during them. Only labels and timestamps are stored, never
// images, so the default privacy mode is preserved.
package history

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bdougie/badbits/internal/vision"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	started_at DATETIME NOT NULL,
	ended_at   DATETIME
);

CREATE TABLE IF NOT EXISTS checks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq        INTEGER NOT NULL,
	taken_at   DATETIME NOT NULL,
	UNIQUE(session_id, seq)
);

CREATE TABLE IF NOT EXISTS alerts (
	check_id INTEGER NOT NULL REFERENCES checks(id) ON DELETE CASCADE,
	habit    TEXT NOT NULL,
	active   INTEGER NOT NULL,
	details  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_checks_session ON checks(session_id);
CREATE INDEX IF NOT EXISTS idx_alerts_check ON alerts(check_id);
CREATE INDEX IF NOT EXISTS idx_alerts_habit ON alerts(habit);
`

// DB wraps a sql.DB with history-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the history database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// StartSession records a new monitoring session.
func (db *DB) StartSession(id string, startedAt time.Time) error {
	_, err := db.conn.Exec(`INSERT INTO sessions (id, started_at) VALUES (?, ?)`, id, startedAt)
	if err != nil {
		return fmt.Errorf("history: start session: %w", err)
	}
	return nil
}

// EndSession stamps the session's end time.
func (db *DB) EndSession(id string) error {
	_, err := db.conn.Exec(`UPDATE sessions SET ended_at = ? WHERE id = ?`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("history: end session: %w", err)
	}
	return nil
}

// RecordCheck stores one check and its per-habit results in a transaction.
func (db *DB) RecordCheck(sessionID string, seq int, takenAt time.Time, results []vision.Result) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.Exec(`INSERT INTO checks (session_id, seq, taken_at) VALUES (?, ?, ?)`,
		sessionID, seq, takenAt)
	if err != nil {
		return fmt.Errorf("history: insert check: %w", err)
	}
	checkID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: check id: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO alerts (check_id, habit, active, details) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare alert insert: %w", err)
	}
	defer stmt.Close()
	for _, r := range results {
		if _, err := stmt.Exec(checkID, r.Habit, r.Active, r.Details); err != nil {
			return fmt.Errorf("history: insert alert: %w", err)
		}
	}

	return tx.Commit()
}

// HabitSummary aggregates alert counts for one habit.
type HabitSummary struct {
	Habit  string
	Checks int
	Alerts int
}

// Percent returns the share of checks that flagged the habit.
func (s HabitSummary) Percent() int {
	if s.Checks == 0 {
		return 0
	}
	return s.Alerts * 100 / s.Checks
}

// Summary aggregates all recorded checks per habit.
func (db *DB) Summary() ([]HabitSummary, error) {
	rows, err := db.conn.Query(`
		SELECT habit, COUNT(*), COALESCE(SUM(active), 0)
		FROM alerts
		GROUP BY habit
		ORDER BY habit`)
	if err != nil {
		return nil, fmt.Errorf("history: summary: %w", err)
	}
	defer rows.Close()

	var out []HabitSummary
	for rows.Next() {
		var s HabitSummary
		if err := rows.Scan(&s.Habit, &s.Checks, &s.Alerts); err != nil {
			return nil, fmt.Errorf("history: scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AlertRow is one historical detection.
type AlertRow struct {
	Habit   string
	TakenAt time.Time
	Details string
}

// RecentAlerts returns the most recent active detections for a habit.
func (db *DB) RecentAlerts(habit string, limit int) ([]AlertRow, error) {
	rows, err := db.conn.Query(`
		SELECT a.habit, c.taken_at, a.details
		FROM alerts a
		JOIN checks c ON a.check_id = c.id
		WHERE a.habit = ? AND a.active = 1
		ORDER BY c.taken_at DESC
		LIMIT ?`, habit, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRow
	for rows.Next() {
		var r AlertRow
		if err := rows.Scan(&r.Habit, &r.TakenAt, &r.Details); err != nil {
			return nil, fmt.Errorf("history: scan alert: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
