// Package sqlite implements the repository contract on an embedded sqlite
// database. One file on disk holds all six collections; the schema is
// versioned through PRAGMA user_version and migrations are additive only.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// migrations holds one DDL batch per schema version, applied in order.
// Re-opening a database already at the current version executes nothing.
var migrations = []string{
	`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	last_login DATETIME NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id INTEGER PRIMARY KEY REFERENCES users(id),
	name TEXT NOT NULL,
	joined_at DATETIME NOT NULL,
	is_guest INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS settings (
	user_id INTEGER PRIMARY KEY REFERENCES users(id),
	goal_hours REAL NOT NULL,
	theme TEXT NOT NULL DEFAULT 'light',
	notifications INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS current_sessions (
	user_id INTEGER PRIMARY KEY REFERENCES users(id),
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	goal_hours REAL NOT NULL,
	notification_sent INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS history_sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL REFERENCES users(id),
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	duration REAL NOT NULL,
	goal_hours REAL NOT NULL,
	completed INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_history_sessions_user_id ON history_sessions(user_id);

CREATE TABLE IF NOT EXISTS auth_state (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	user_id INTEGER NOT NULL REFERENCES users(id),
	login_time DATETIME NOT NULL
);
`,
}

// Open opens (or creates) a sqlite database at the given path and ensures
// directories exist.
func Open(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// single writer; same-collection operations serialize in submission order
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return db, nil
}

// Migrate brings the schema up to the current version. Idempotent: versions
// already applied are skipped, never re-run.
func Migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		if _, err := db.ExecContext(ctx, migrations[v]); err != nil {
			return fmt.Errorf("apply schema version %d: %w", v+1, err)
		}
		if _, err := db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, v+1)); err != nil {
			return fmt.Errorf("record schema version %d: %w", v+1, err)
		}
	}
	return nil
}
