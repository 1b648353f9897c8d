package store

import (
	"context"
	"errors"
)

// Sink receives finished records.
type Sink interface {
	Persist(ctx context.Context, rec Record) error
}

// Multi fans a record out to every sink in order. All sinks are attempted;
// their errors are joined.
type Multi []Sink

// Persist implements Sink.
func (m Multi) Persist(ctx context.Context, rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Persist(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

// Persist implements Sink.
func (f SinkFunc) Persist(ctx context.Context, rec Record) error { return f(ctx, rec) }
