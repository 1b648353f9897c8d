// Package session accumulates decoded key tokens between flushes.
//
// A Buffer keeps two parallel streams:
//   - the transcript, every token rendered as text (an audit trail of
//     literal keystrokes, named keys included);
//   - the visible text, a best-effort reconstruction of what was typed
//     (characters and spaces, with backspace honoured).
//
// The transcript only grows. The visible text never shrinks below empty.
// Both are cleared together by Reset.
package session

import (
	"strings"

	"keyjournal/internal/keystroke"
)

// Snapshot is a copy of the buffer contents at one instant.
type Snapshot struct {
	Transcript string
	Visible    string
	Tokens     int
}

// Empty reports whether nothing was typed since the last reset.
func (s Snapshot) Empty() bool {
	return s.Tokens == 0
}

// Buffer is owned by the input thread and is not safe for concurrent use.
type Buffer struct {
	transcript strings.Builder
	visible    []rune
	tokens     int
}

// New creates an empty buffer.
func New() *Buffer {
	return &Buffer{visible: make([]rune, 0, 256)}
}

// Append adds tok to the transcript and applies its effect to the visible
// text.
func (b *Buffer) Append(tok keystroke.Token) {
	b.AppendTranscript(tok)
	b.AppendVisible(tok)
}

// AppendTranscript adds tok to the transcript only. Used for command chords.
func (b *Buffer) AppendTranscript(tok keystroke.Token) {
	if tok.Kind == keystroke.KindNone {
		return
	}
	b.transcript.WriteString(tok.Text())
	b.tokens++
}

// AppendVisible applies tok to the visible text: characters append, Space
// appends a literal space, Backspace removes the last character if any.
// Other named keys have no effect.
func (b *Buffer) AppendVisible(tok keystroke.Token) {
	switch {
	case tok.Kind == keystroke.KindPrintable:
		b.visible = append(b.visible, tok.Char)
	case tok.Edit == keystroke.EditSpace:
		b.visible = append(b.visible, ' ')
	case tok.Edit == keystroke.EditBackspace:
		if n := len(b.visible); n > 0 {
			b.visible = b.visible[:n-1]
		}
	}
}

// Transcript returns the transcript accumulated since the last reset.
func (b *Buffer) Transcript() string {
	return b.transcript.String()
}

// Visible returns the visible text accumulated since the last reset.
func (b *Buffer) Visible() string {
	return string(b.visible)
}

// Snapshot copies the current contents.
func (b *Buffer) Snapshot() Snapshot {
	return Snapshot{
		Transcript: b.transcript.String(),
		Visible:    string(b.visible),
		Tokens:     b.tokens,
	}
}

// Reset clears both streams.
func (b *Buffer) Reset() {
	b.transcript.Reset()
	b.visible = b.visible[:0]
	b.tokens = 0
}
