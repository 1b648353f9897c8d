package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database schema migration.
type Migration struct {
	Version     int
	Description string
	Up          string
}

// migrations contains all database migrations in order.
var migrations = []Migration{
	{
		Version:     1,
		Description: "KeyboardLog table",
		Up:          migrationV1Up,
	},
	{
		Version:     2,
		Description: "Record kind, trigger and session columns",
		Up:          migrationV2Up,
	},
}

// V1 matches the table written by earlier tray builds, so their databases
// open unchanged and pick up V2 on first use.
const migrationV1Up = `
CREATE TABLE IF NOT EXISTS KeyboardLog (
    ID                INTEGER PRIMARY KEY AUTOINCREMENT,
    Timestamp         TEXT,
    KeySequence       TEXT,
    ActiveApplication TEXT,
    ScreenshotPath    TEXT,
    Data              TEXT
);
`

const migrationV2Up = `
ALTER TABLE KeyboardLog ADD COLUMN Kind TEXT NOT NULL DEFAULT 'click';
ALTER TABLE KeyboardLog ADD COLUMN TriggerName TEXT NOT NULL DEFAULT '';
ALTER TABLE KeyboardLog ADD COLUMN SessionID TEXT NOT NULL DEFAULT '';
CREATE INDEX IF NOT EXISTS idx_keyboardlog_timestamp ON KeyboardLog(Timestamp);
CREATE INDEX IF NOT EXISTS idx_keyboardlog_kind ON KeyboardLog(Kind, ID);
`

// MigrateDB applies all pending migrations to the database.
func MigrateDB(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			applied_at  INTEGER NOT NULL,
			description TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
			m.Version, time.Now().UnixNano(), m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func currentVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("get current version: %w", err)
	}
	return v, nil
}

// SchemaVersion returns the latest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	return currentVersion(s.db)
}

// LatestSchemaVersion is the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].Version
}
