package sentinel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"keyjournal/internal/logging"
	"keyjournal/internal/store"
)

// ErrDispatcherClosed is returned by Persist after Close.
var ErrDispatcherClosed = errors.New("sentinel: dispatcher closed")

// Dispatcher moves persistence off the input thread. Records are written by
// a single goroutine in submission order. Persist blocks while the queue is
// full; records are never dropped or reordered.
type Dispatcher struct {
	sink   store.Sink
	queue  chan store.Record
	logger *logging.Logger
	crash  *logging.CrashHandler

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	written atomic.Int64
	failed  atomic.Int64
}

// NewDispatcher starts a dispatcher writing to sink with a queue of size
// records.
func NewDispatcher(sink store.Sink, size int, logger *logging.Logger, crash *logging.CrashHandler) *Dispatcher {
	if size < 1 {
		size = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if crash == nil {
		crash = logging.NewCrashHandler(&logging.CrashHandlerConfig{Logger: logger})
	}
	d := &Dispatcher{
		sink:   sink,
		queue:  make(chan store.Record, size),
		logger: logger,
		crash:  crash,
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

// Persist enqueues rec. It implements store.Sink. A record is always
// accepted while the queue has room; ctx only bounds the wait when it is full.
func (d *Dispatcher) Persist(ctx context.Context, rec store.Record) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- rec:
		return nil
	default:
	}
	select {
	case d.queue <- rec:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for rec := range d.queue {
		d.write(rec)
	}
}

func (d *Dispatcher) write(rec store.Record) {
	var err error
	panicked := d.crash.Recover(map[string]any{"stage": "dispatch"}, func() {
		err = d.sink.Persist(context.Background(), rec)
	})
	if panicked || err != nil {
		d.failed.Add(1)
		if err != nil {
			d.logger.Error("async persist failed", "error", err, "kind", rec.Kind)
		}
		return
	}
	d.written.Add(1)
}

// Close stops accepting records and waits until every queued record has
// been written.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	<-d.done
	return nil
}

// Written returns the number of records the sink accepted.
func (d *Dispatcher) Written() int64 { return d.written.Load() }

// Failed returns the number of records the sink rejected.
func (d *Dispatcher) Failed() int64 { return d.failed.Load() }
