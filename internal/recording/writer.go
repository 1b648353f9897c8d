package recording

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Writer appends lines to a recording.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewWriter writes the header and returns a Writer for the events.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	h.Type = "header"
	if h.Version == 0 {
		h.Version = Version
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(h); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	return &Writer{enc: enc}, nil
}

// Write appends e.
func (w *Writer) Write(e Event) error {
	e.Type = "event"
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(e); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
