package recording

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"keyjournal/internal/hook"
)

// Player feeds recorded events into a hook chain. Context carried by an
// event (window title, frame reference) is published before the event is
// delivered, so handlers observe it while processing.
type Player struct {
	// Deliver runs an event through the hook chain.
	Deliver func(hook.Event) uintptr

	// OnHeader is called for the header line.
	OnHeader func(Header)

	// OnTitle is called for events carrying a window title.
	OnTitle func(title string, at time.Time)

	// OnFrame is called for events carrying a frame reference.
	OnFrame func(path string)

	// Strict stops playback at the first malformed line. Otherwise such
	// lines are counted and skipped.
	Strict bool

	// OnSkip is called for every skipped line.
	OnSkip func(err error)
}

// Stats counts the lines a player processed.
type Stats struct {
	Events  int
	Skipped int
}

// Apply handles one decoded entry.
func (p *Player) Apply(entry Entry) error {
	if entry.Header != nil {
		if p.OnHeader != nil {
			p.OnHeader(*entry.Header)
		}
		return nil
	}
	if entry.Event == nil {
		return nil
	}

	e := *entry.Event
	ev, err := e.HookEvent()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLine, err)
	}
	if e.Title != "" && p.OnTitle != nil {
		p.OnTitle(e.Title, e.Time)
	}
	if e.Frame != "" && p.OnFrame != nil {
		p.OnFrame(e.Frame)
	}
	if p.Deliver != nil {
		p.Deliver(ev)
	}
	return nil
}

// ApplyLine decodes and applies a raw line.
func (p *Player) ApplyLine(line []byte) error {
	entry, err := DecodeLine(line)
	if err != nil {
		return err
	}
	return p.Apply(entry)
}

// Play delivers every event of r until EOF or ctx is done.
func (p *Player) Play(ctx context.Context, r *Reader) (Stats, error) {
	var stats Stats

	if p.OnHeader != nil {
		p.OnHeader(r.Header())
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err == nil {
			err = p.Apply(Entry{Event: &e})
		}
		if err != nil {
			if p.Strict || !errors.Is(err, ErrInvalidLine) {
				return stats, err
			}
			stats.Skipped++
			if p.OnSkip != nil {
				p.OnSkip(err)
			}
			continue
		}
		stats.Events++
	}
}
