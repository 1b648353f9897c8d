package sentinel

import (
	"context"
	"sync/atomic"
	"time"

	"keyjournal/internal/logging"
	"keyjournal/internal/session"
	"keyjournal/internal/store"
)

// Trigger describes the event that closes a session.
type Trigger struct {
	// Name labels the trigger, e.g. the button name.
	Name string
	// X and Y are the screen coordinates of the pointer.
	X, Y int
	// At is the event time. Zero means "now" by the correlator's clock.
	At time.Time
}

// Correlator turns the session buffer into records. It is driven from the
// input thread only.
type Correlator struct {
	buf       *session.Buffer
	sink      store.Sink
	titler    WindowTitler
	capturer  ScreenshotCapturer
	clock     func() time.Time
	sessionID string
	logger    *logging.Logger

	flushes      atomic.Int64
	audits       atomic.Int64
	sinkErrors   atomic.Int64
	captureFails atomic.Int64
}

// CorrelatorOption configures a Correlator.
type CorrelatorOption func(*Correlator)

// WithTitler sets the foreground window source.
func WithTitler(t WindowTitler) CorrelatorOption {
	return func(c *Correlator) { c.titler = t }
}

// WithCapturer sets the screenshot source.
func WithCapturer(s ScreenshotCapturer) CorrelatorOption {
	return func(c *Correlator) { c.capturer = s }
}

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) CorrelatorOption {
	return func(c *Correlator) { c.clock = clock }
}

// WithSessionID stamps every record with id.
func WithSessionID(id string) CorrelatorOption {
	return func(c *Correlator) { c.sessionID = id }
}

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *logging.Logger) CorrelatorOption {
	return func(c *Correlator) { c.logger = l }
}

// NewCorrelator creates a correlator over buf that hands records to sink.
func NewCorrelator(buf *session.Buffer, sink store.Sink, opts ...CorrelatorOption) *Correlator {
	c := &Correlator{
		buf:      buf,
		sink:     sink,
		titler:   SystemTitler(),
		capturer: nopCapturer{},
		clock:    time.Now,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Buffer returns the session buffer the correlator flushes.
func (c *Correlator) Buffer() *session.Buffer { return c.buf }

// OnTrigger closes the current session: it gathers the window title and a
// screenshot, snapshots and resets the buffer, and hands the record to the
// sink. The buffer is reset before the sink runs. Sink and capture failures
// are logged and swallowed.
func (c *Correlator) OnTrigger(ctx context.Context, t Trigger) store.Record {
	at := t.At
	if at.IsZero() {
		at = c.clock()
	}

	title := c.titler.ActiveWindowTitle()

	shot, err := c.capturer.Capture(at, t.X, t.Y)
	if err != nil {
		c.captureFails.Add(1)
		c.logger.Warn("screenshot failed", "error", err, "x", t.X, "y", t.Y)
		shot = ""
	}

	snap := c.buf.Snapshot()
	c.buf.Reset()

	rec := store.Record{
		Kind:              store.KindClick,
		Timestamp:         at,
		Transcript:        snap.Transcript,
		VisibleText:       snap.Visible,
		ActiveApplication: title,
		ScreenshotPath:    shot,
		Trigger:           t.Name,
		SessionID:         c.sessionID,
	}
	c.flushes.Add(1)
	c.persist(ctx, rec)
	return rec
}

// OnKeystroke writes an audit record of the buffer as it stands before a
// key-down is applied. The buffer is left untouched.
func (c *Correlator) OnKeystroke(ctx context.Context, label string, at time.Time) store.Record {
	if at.IsZero() {
		at = c.clock()
	}
	snap := c.buf.Snapshot()

	rec := store.Record{
		Kind:              store.KindKeystroke,
		Timestamp:         at,
		Transcript:        snap.Transcript,
		VisibleText:       snap.Visible,
		ActiveApplication: c.titler.ActiveWindowTitle(),
		Trigger:           label,
		SessionID:         c.sessionID,
	}
	c.audits.Add(1)
	c.persist(ctx, rec)
	return rec
}

func (c *Correlator) persist(ctx context.Context, rec store.Record) {
	if c.sink == nil {
		return
	}
	if err := c.sink.Persist(ctx, rec); err != nil {
		c.sinkErrors.Add(1)
		c.logger.Error("persist record failed", "error", err, "kind", rec.Kind, "trigger", rec.Trigger)
	}
}

// CorrelatorStats is a snapshot of correlator counters.
type CorrelatorStats struct {
	Flushes         int64
	Audits          int64
	SinkErrors      int64
	CaptureFailures int64
}

// Stats returns the correlator counters.
func (c *Correlator) Stats() CorrelatorStats {
	return CorrelatorStats{
		Flushes:         c.flushes.Load(),
		Audits:          c.audits.Load(),
		SinkErrors:      c.sinkErrors.Load(),
		CaptureFailures: c.captureFails.Load(),
	}
}
