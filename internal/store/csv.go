package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// CSVHeader is the column header written at the top of every CSV log.
var CSVHeader = []string{"Timestamp", "Key Sequence", "Active Application", "Screenshot", "Data"}

// CSVLog appends click records to a CSV file. Keystroke audit records are
// skipped since the CSV columns mirror the click log only.
type CSVLog struct {
	mu   sync.Mutex
	file *os.File
	w    *csv.Writer
}

// OpenCSV opens path for appending, creating it with a header if it does not
// exist or is empty.
func OpenCSV(path string) (*CSVLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create csv directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open csv log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv log: %w", err)
	}

	l := &CSVLog{file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.write(CSVHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	return l, nil
}

// Persist appends rec as one CSV row.
func (l *CSVLog) Persist(_ context.Context, rec Record) error {
	if rec.Kind == KindKeystroke {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return ErrClosed
	}
	return l.write(csvRow(rec))
}

func (l *CSVLog) write(row []string) error {
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("flush csv row: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (l *CSVLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	l.w.Flush()
	err := errors.Join(l.w.Error(), l.file.Close())
	l.file = nil
	return err
}

// WriteCSV writes a header followed by every click record in records to w.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if rec.Kind == KindKeystroke {
			continue
		}
		if err := cw.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(rec Record) []string {
	return []string{
		rec.FormattedTimestamp(),
		rec.Transcript,
		rec.ActiveApplication,
		rec.ScreenshotPath,
		rec.VisibleText,
	}
}
