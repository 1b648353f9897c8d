package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store: closed")

// Store represents the SQLite record store.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the SQLite database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := MigrateDB(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Persist inserts rec into KeyboardLog.
func (s *Store) Persist(ctx context.Context, rec Record) error {
	_, err := s.Insert(ctx, rec)
	return err
}

// Insert inserts rec and returns its row ID.
func (s *Store) Insert(ctx context.Context, rec Record) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	kind := rec.Kind
	if kind == "" {
		kind = KindClick
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO KeyboardLog (Timestamp, KeySequence, ActiveApplication, ScreenshotPath, Data, Kind, TriggerName, SessionID)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.FormattedTimestamp(), rec.Transcript, rec.ActiveApplication, rec.ScreenshotPath,
		rec.VisibleText, string(kind), rec.Trigger, rec.SessionID,
	)
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}
	return result.LastInsertId()
}

const selectColumns = `ID, Timestamp, COALESCE(KeySequence, ''), COALESCE(ActiveApplication, ''),
	COALESCE(ScreenshotPath, ''), COALESCE(Data, ''), Kind, TriggerName, SessionID`

// Recent returns up to n of the latest records, oldest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+` FROM (
			SELECT * FROM KeyboardLog ORDER BY ID DESC LIMIT ?
		) ORDER BY ID ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("query recent records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// All returns every record in insertion order.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM KeyboardLog ORDER BY ID ASC`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Counts holds per-kind record totals.
type Counts struct {
	Click     int64
	Keystroke int64
}

// Total returns the sum of all kinds.
func (c Counts) Total() int64 { return c.Click + c.Keystroke }

// Count returns record totals by kind.
func (s *Store) Count(ctx context.Context) (Counts, error) {
	if s.db == nil {
		return Counts{}, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `SELECT Kind, COUNT(*) FROM KeyboardLog GROUP BY Kind`)
	if err != nil {
		return Counts{}, fmt.Errorf("count records: %w", err)
	}
	defer rows.Close()

	var c Counts
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return Counts{}, fmt.Errorf("scan count: %w", err)
		}
		switch Kind(kind) {
		case KindKeystroke:
			c.Keystroke += n
		default:
			c.Click += n
		}
	}
	return c, rows.Err()
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var (
			rec  Record
			ts   sql.NullString
			kind string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Transcript, &rec.ActiveApplication,
			&rec.ScreenshotPath, &rec.VisibleText, &kind, &rec.Trigger, &rec.SessionID); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Kind = Kind(kind)
		if ts.Valid {
			// Rows written by other tools may carry a different layout; keep
			// the zero time rather than failing the whole query.
			if t, err := time.ParseInLocation(TimestampLayout, ts.String, time.Local); err == nil {
				rec.Timestamp = t
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
