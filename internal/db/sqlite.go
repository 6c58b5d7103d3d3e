package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteTimeLayout is fixed-width so that text comparison orders correctly.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                        TEXT PRIMARY KEY,
	farm_id                   TEXT,
	title                     TEXT NOT NULL DEFAULT '',
	location                  TEXT NOT NULL DEFAULT '',
	job_type                  TEXT NOT NULL DEFAULT '',
	required_qualification    TEXT,
	required_institution_type TEXT DEFAULT 'any',
	required_specialization   TEXT,
	status                    TEXT NOT NULL DEFAULT 'active',
	created_at                TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS jobs_status_created_idx ON jobs (status, created_at);

CREATE TABLE IF NOT EXISTS profiles (
	id               TEXT PRIMARY KEY,
	full_name        TEXT,
	role             TEXT NOT NULL,
	preferred_region TEXT,
	is_verified      INTEGER NOT NULL DEFAULT 0,
	qualification    TEXT,
	institution_type TEXT,
	specialization   TEXT,
	nss_status       TEXT,
	created_at       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES profiles (id),
	type       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	link       TEXT,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, created_at);
`

// NewSQLite opens (or creates) the SQLite database at path and applies the schema.
func NewSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1) // SQLite: single writer

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite ping failed: %w", err)
	}
	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: init schema: %w", err)
	}

	return conn, nil
}

// FormatSQLiteTime renders t in UTC using the layout stored in SQLite tables.
func FormatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// ParseSQLiteTime parses a timestamp written by FormatSQLiteTime.
func ParseSQLiteTime(s string) (time.Time, error) {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
