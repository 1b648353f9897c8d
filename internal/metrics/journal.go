package metrics

import (
	"context"
	"time"

	"keyjournal/internal/store"
)

// Journal holds the keyjournal metrics.
type Journal struct {
	registry *Registry
	started  time.Time

	ClicksPersisted     *Counter
	KeystrokesPersisted *Counter
	PersistErrors       *Counter
	EventsHandled       *Gauge
	HandlerFaults       *Gauge
	LinesSkipped        *Counter
	UptimeSeconds       *Gauge
	PersistDuration     *Histogram
}

// NewJournal registers the journal metrics in registry. A nil registry
// gets a fresh "keyjournal" registry.
func NewJournal(registry *Registry) *Journal {
	if registry == nil {
		registry = NewRegistry("keyjournal")
	}
	return &Journal{
		registry: registry,
		started:  time.Now(),

		ClicksPersisted: registry.Counter("records_persisted_total",
			"Records handed to the sinks without error", Labels{"kind": string(store.KindClick)}),
		KeystrokesPersisted: registry.Counter("records_persisted_total",
			"Records handed to the sinks without error", Labels{"kind": string(store.KindKeystroke)}),
		PersistErrors: registry.Counter("persist_errors_total",
			"Records at least one sink failed to write", nil),
		EventsHandled: registry.Gauge("events_handled",
			"Hook events dispatched to the engine", nil),
		HandlerFaults: registry.Gauge("handler_faults",
			"Panics recovered in the hook callback", nil),
		LinesSkipped: registry.Counter("recording_lines_skipped_total",
			"Malformed recording lines skipped", nil),
		UptimeSeconds: registry.Gauge("uptime_seconds",
			"Seconds since the session started", nil),
		PersistDuration: registry.Histogram("persist_duration_seconds",
			"Time spent writing one record to the sinks", nil, DurationBuckets),
	}
}

// Registry returns the underlying registry.
func (j *Journal) Registry() *Registry { return j.registry }

// Instrument wraps sink so every record is counted and timed.
func (j *Journal) Instrument(sink store.Sink) store.Sink {
	return store.SinkFunc(func(ctx context.Context, rec store.Record) error {
		start := time.Now()
		err := sink.Persist(ctx, rec)
		j.PersistDuration.ObserveDuration(time.Since(start))

		switch {
		case err != nil:
			j.PersistErrors.Inc()
		case rec.Kind == store.KindKeystroke:
			j.KeystrokesPersisted.Inc()
		default:
			j.ClicksPersisted.Inc()
		}
		return err
	})
}

// WriteTextfile refreshes the uptime gauge and writes the registry to path.
func (j *Journal) WriteTextfile(path string) error {
	j.UptimeSeconds.Set(int64(time.Since(j.started).Seconds()))
	return j.registry.WriteTextfile(path)
}
