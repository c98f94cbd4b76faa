package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sadopc/sidedock/internal/clock"
)

const currentVersion = 1

// Meta keys.
const (
	MetaLastOpenedDate = "lastOpenedDate"
	MetaFocusState     = "focusState"
)

type Store struct {
	db    *sqlx.DB
	clock clock.Clock
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection: a single writer, and :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, clock: clock.System()}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// SetClock replaces the clock used to stamp UpdatedAt on days.
func (s *Store) SetClock(c clock.Clock) {
	s.clock = c
}

func (s *Store) nowMillis() int64 {
	return clock.Millis(s.clock.Now())
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS days (
		date        TEXT PRIMARY KEY,
		tasks       TEXT NOT NULL DEFAULT '[]',
		updated_at  INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS meta (
		key    TEXT PRIMARY KEY,
		value  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id                TEXT PRIMARY KEY,
		date              TEXT NOT NULL,
		task_id           TEXT,
		mode              TEXT NOT NULL DEFAULT 'stopwatch',
		planned_minutes   INTEGER NOT NULL DEFAULT 0,
		started_at        INTEGER NOT NULL,
		ended_at          INTEGER NOT NULL,
		duration_seconds  INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);

	CREATE TABLE IF NOT EXISTS logs (
		id          TEXT PRIMARY KEY,
		task_id     TEXT NOT NULL,
		date        TEXT NOT NULL,
		title       TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_logs_task ON logs(task_id);
	CREATE INDEX IF NOT EXISTS idx_logs_date ON logs(date);

	CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR IGNORE INTO settings (key, value) VALUES
		('sound_enabled',         'false'),
		('snooze_minutes',        '10'),
		('focus_mode',            'stopwatch'),
		('focus_planned_minutes', '25'),
		('notify_permission',     'default');
	`
	_, err := s.db.Exec(ddl)
	return err
}

// ClearAll wipes days, meta, focus sessions and completion logs in one
// transaction. Settings survive.
func (s *Store) ClearAll() error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll destructively clears the store and writes days and meta in a
// single transaction. Nothing is written if any insert fails.
func (s *Store) ReplaceAll(days []DayRecord, meta map[string]any) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if err := clearTx(tx); err != nil {
		return err
	}
	for i := range days {
		if err := putDay(tx, &days[i], days[i].UpdatedAt); err != nil {
			return err
		}
	}
	for k, v := range meta {
		if err := setMeta(tx, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func clearTx(tx *sqlx.Tx) error {
	for _, table := range []string{"days", "meta", "sessions", "logs"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// DefaultDBPath returns ~/.config/sidedock/sidedock.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "sidedock", "sidedock.db"), nil
}
