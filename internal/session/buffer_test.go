package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"keyjournal/internal/keystroke"
)

func typeKeys(b *Buffer, keys ...keystroke.VK) {
	for _, vk := range keys {
		b.Append(keystroke.Decode(vk, keystroke.ModifierState{}))
	}
}

func TestBuffer_BackspaceEditsVisibleText(t *testing.T) {
	b := New()
	typeKeys(b, 'H', 'E', 'L', 'L', 'O', keystroke.VKBack, 'P')

	assert.Equal(t, "hellp", b.Visible())
	assert.Equal(t, "helloBackp", b.Transcript())
}

func TestBuffer_BackspaceOnEmpty(t *testing.T) {
	b := New()
	typeKeys(b, keystroke.VKBack, keystroke.VKBack)

	assert.Equal(t, "", b.Visible())
	assert.Equal(t, "BackBack", b.Transcript())

	typeKeys(b, 'A', keystroke.VKBack, keystroke.VKBack, 'B')
	assert.Equal(t, "b", b.Visible())
}

func TestBuffer_SpaceAndNamedKeys(t *testing.T) {
	b := New()
	typeKeys(b, 'A', keystroke.VKSpace, 'B', keystroke.VKReturn, keystroke.VKLeft, keystroke.VKLShift)

	assert.Equal(t, "a b", b.Visible())
	assert.Equal(t, "a[SpaceBar]b[Enter][Left][Shift]", b.Transcript())
}

func TestBuffer_AppendTranscriptOnly(t *testing.T) {
	b := New()
	b.AppendTranscript(keystroke.Printable('s'))

	assert.Equal(t, "s", b.Transcript())
	assert.Empty(t, b.Visible())
}

func TestBuffer_NoneTokenIgnored(t *testing.T) {
	b := New()
	b.Append(keystroke.None)

	assert.True(t, b.Snapshot().Empty())
}

func TestBuffer_VisibleHandlesMultibyteRunes(t *testing.T) {
	b := New()
	b.Append(keystroke.Printable('£'))
	b.Append(keystroke.Printable('é'))
	b.Append(keystroke.Decode(keystroke.VKBack, keystroke.ModifierState{}))

	assert.Equal(t, "£", b.Visible())
}

func TestBuffer_Reset(t *testing.T) {
	b := New()
	typeKeys(b, 'A', 'B')
	snap := b.Snapshot()
	b.Reset()

	assert.Equal(t, Snapshot{Transcript: "ab", Visible: "ab", Tokens: 2}, snap)
	assert.True(t, b.Snapshot().Empty())
	assert.Equal(t, "", b.Transcript())
	assert.Equal(t, "", b.Visible())

	// The snapshot is independent of later appends.
	typeKeys(b, 'C')
	assert.Equal(t, "ab", snap.Visible)
}
