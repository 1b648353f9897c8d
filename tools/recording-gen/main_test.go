package main

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyjournal/internal/keystroke"
	"keyjournal/internal/recording"
	"keyjournal/internal/session"
)

var start = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func generate(t *testing.T, profile TypingProfile, seed uint64, lines []string) []byte {
	t.Helper()
	var out bytes.Buffer
	w, err := recording.NewWriter(&out, recording.Header{StartedAt: start, Source: "recording-gen"})
	require.NoError(t, err)

	g := newGenerator(w, profile, seed, start, "Editor")
	for _, line := range lines {
		require.NoError(t, g.typeLine(line))
	}
	return out.Bytes()
}

// typed replays the key events of a session through the decoder and returns
// the visible text of each click-closed session.
func typed(t *testing.T, data []byte) []string {
	t.Helper()
	r, err := recording.NewReader(bytes.NewReader(data))
	require.NoError(t, err)

	tracker := keystroke.NewTracker(keystroke.NewToggleLock(r.Header().CapsLock))
	buf := session.New()
	var sessions []string
	for {
		ev, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		vk := keystroke.VK(ev.VK)
		switch ev.Message {
		case "keydown":
			tracker.KeyDown(vk)
			buf.Append(keystroke.Decode(vk, tracker.State()))
		case "keyup":
			tracker.KeyUp(vk)
		case "lbuttondown":
			sessions = append(sessions, buf.Snapshot().Visible)
			buf.Reset()
		}
	}
	return sessions
}

func TestGeneratedRecordingsValidate(t *testing.T) {
	lines := []string{"Hello, World!", "it's 42 (or so)?", ""}

	for name, profile := range profiles {
		t.Run(name, func(t *testing.T) {
			data := generate(t, profile, 7, lines)

			s := bufio.NewScanner(bytes.NewReader(data))
			var (
				n      int
				clicks int
				last   time.Time
			)
			for s.Scan() {
				entry, err := recording.DecodeLine(s.Bytes())
				require.NoError(t, err, "line %d: %s", n+1, s.Text())
				if n == 0 {
					require.NotNil(t, entry.Header)
					assert.Equal(t, "recording-gen", entry.Header.Source)
				} else {
					require.NotNil(t, entry.Event)
					assert.False(t, entry.Event.Time.Before(last), "line %d goes back in time", n+1)
					last = entry.Event.Time
					if entry.Event.Message == "lbuttondown" {
						clicks++
					}
				}
				n++
			}
			require.NoError(t, s.Err())
			assert.Equal(t, len(lines), clicks)
		})
	}
}

func TestGeneratedTypingDecodesToInput(t *testing.T) {
	lines := []string{"Hello, World!", "a_b = [c]; d/e", "quiet"}

	// A typo-heavy profile still decodes to the input once corrections apply.
	sloppy := profiles["hunt-and-peck"]
	sloppy.TypoProbability = 0.5

	for _, seed := range []uint64{1, 2, 3} {
		got := typed(t, generate(t, sloppy, seed, lines))
		assert.Equal(t, lines, got, "seed %d", seed)
	}
}

func TestGeneratedTyposAreCorrected(t *testing.T) {
	always := profiles["normal"]
	always.TypoProbability = 1

	data := generate(t, always, 1, []string{"ab"})
	assert.Equal(t, 2, strings.Count(string(data), `"message":"keydown","vk":8,`), "one backspace per typed character")
	assert.Equal(t, []string{"ab"}, typed(t, data))
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		r     rune
		vk    keystroke.VK
		shift bool
		ok    bool
	}{
		{'a', keystroke.VKA, false, true},
		{'Z', keystroke.VKZ, true, true},
		{' ', keystroke.VKSpace, false, true},
		{'1', 0x31, false, true},
		{'!', 0x31, true, true},
		{'?', keystroke.VKOEM2, true, true},
		{'é', 0, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.r), func(t *testing.T) {
			vk, shift, ok := keyFor(tt.r)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.vk, vk)
			assert.Equal(t, tt.shift, shift)
		})
	}
}
