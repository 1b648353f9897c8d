// Package store persists correlated log records.
package store

import "time"

// TimestampLayout is the persisted timestamp format.
const TimestampLayout = "2006-01-02 15:04:05"

// Kind distinguishes click-correlated records from per-keystroke audit rows.
type Kind string

const (
	// KindClick is produced by a pointing-device button press and carries a
	// screenshot reference.
	KindClick Kind = "click"
	// KindKeystroke is the fine-grained audit record written before each
	// key-down is applied.
	KindKeystroke Kind = "keystroke"
)

// Record is one correlated log entry. Records are immutable once built; the
// producer keeps no reference after handing one to a sink.
type Record struct {
	ID                int64
	Kind              Kind
	Timestamp         time.Time
	Transcript        string
	VisibleText       string
	ActiveApplication string
	ScreenshotPath    string
	Trigger           string
	SessionID         string
}

// FormattedTimestamp returns the timestamp in TimestampLayout, in the local
// zone. Stored rows carry no zone and are read back as local time.
func (r Record) FormattedTimestamp() string {
	return r.Timestamp.Local().Format(TimestampLayout)
}
