// Package localstore is the device-local SQLite mirror of the remote store.
// It holds the same records and is read when the remote store is unreachable.
package localstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/claude/fitscan/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id           TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	created_at   INTEGER NOT NULL,
	last_seen    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS user_profiles (
	user_id               TEXT PRIMARY KEY,
	name                  TEXT NOT NULL,
	age                   INTEGER NOT NULL,
	weight_kg             REAL NOT NULL,
	height_cm             REAL NOT NULL,
	gender                TEXT NOT NULL,
	goal                  TEXT NOT NULL,
	weekly_frequency      INTEGER NOT NULL,
	fitness_level         TEXT NOT NULL,
	has_bariatric_surgery INTEGER NOT NULL DEFAULT 0,
	uses_glp1_medication  INTEGER NOT NULL DEFAULT 0,
	created_at            INTEGER NOT NULL,
	updated_at            INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS equipment (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	name            TEXT NOT NULL,
	category        TEXT NOT NULL DEFAULT '',
	muscle_groups   TEXT NOT NULL DEFAULT '[]',
	description     TEXT NOT NULL DEFAULT '',
	detected        INTEGER NOT NULL DEFAULT 1,
	image_url       TEXT NOT NULL DEFAULT '',
	exercises       TEXT NOT NULL DEFAULT '[]',
	tips            TEXT NOT NULL DEFAULT '[]',
	common_mistakes TEXT NOT NULL DEFAULT '[]',
	created_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_equipment_user ON equipment (user_id, created_at);
CREATE TABLE IF NOT EXISTS workout_plans (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	type             TEXT NOT NULL,
	duration_minutes INTEGER NOT NULL,
	exercises        TEXT NOT NULL DEFAULT '[]',
	equipment        TEXT NOT NULL DEFAULT '[]',
	warmup           TEXT NOT NULL DEFAULT '[]',
	cooldown         TEXT NOT NULL DEFAULT '[]',
	workout_day      INTEGER NOT NULL CHECK (workout_day IN (1, 2)),
	is_active        INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_workout_plans_one_active ON workout_plans (user_id) WHERE is_active = 1;
CREATE TABLE IF NOT EXISTS workout_progress (
	user_id      TEXT PRIMARY KEY,
	days         INTEGER NOT NULL DEFAULT 0,
	achievements INTEGER NOT NULL DEFAULT 0,
	last_workout INTEGER,
	updated_at   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS scan_logs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id        TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	status         TEXT NOT NULL,
	equipment_name TEXT,
	duration_ms    INTEGER,
	error_message  TEXT
);
`

// DB is a SQLite-backed store.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at dir/fitscan.db.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "fitscan.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening local db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating local schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
