package recording

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyjournal/internal/hook"
	"keyjournal/internal/keystroke"
)

const sample = `{"type":"header","version":1,"caps_lock":true,"source":"test"}
{"type":"event","message":"keydown","vk":72,"time":"2024-01-02T15:04:05.123Z","title":"Notepad"}

{"type":"event","message":"keyup","vk":72,"time":"2024-01-02T15:04:05.200Z"}
{"type":"event","message":"lbuttondown","x":640,"y":360,"time":"2024-01-02T15:04:06Z","frame":"frames/0001.png"}
`

func TestDecodeLine(t *testing.T) {
	entry, err := DecodeLine([]byte(`{"type":"header","version":1,"started_at":"2024-01-02T15:04:05Z"}`))
	require.NoError(t, err)
	require.NotNil(t, entry.Header)
	assert.Nil(t, entry.Event)
	assert.Equal(t, 2024, entry.Header.StartedAt.Year())

	entry, err = DecodeLine([]byte(`{"type":"event","code":-1,"message":"syskeydown","vk":18,"time":"2024-01-02T15:04:05Z"}`))
	require.NoError(t, err)
	require.NotNil(t, entry.Event)
	ev, err := entry.Event.HookEvent()
	require.NoError(t, err)
	assert.Equal(t, hook.Event{
		Code:    -1,
		Message: hook.WMSysKeyDown,
		VK:      keystroke.VKMenu,
		Time:    time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC),
	}, ev)
}

func TestDecodeLineRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", `{"type":`},
		{"unknown type", `{"type":"frame","version":1}`},
		{"wrong version", `{"type":"header","version":2}`},
		{"missing time", `{"type":"event","message":"keydown","vk":65}`},
		{"unknown message", `{"type":"event","message":"click","time":"2024-01-02T15:04:05Z"}`},
		{"vk out of range", `{"type":"event","message":"keydown","vk":300,"time":"2024-01-02T15:04:05Z"}`},
		{"fractional vk", `{"type":"event","message":"keydown","vk":6.5,"time":"2024-01-02T15:04:05Z"}`},
		{"bad time", `{"type":"event","message":"keydown","vk":65,"time":"yesterday"}`},
		{"extra field", `{"type":"event","message":"keydown","vk":65,"time":"2024-01-02T15:04:05Z","password":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLine([]byte(tt.line))
			assert.ErrorIs(t, err, ErrInvalidLine)
		})
	}
}

func TestReader(t *testing.T) {
	r, err := NewReader(strings.NewReader(sample))
	require.NoError(t, err)
	assert.True(t, r.Header().CapsLock)
	assert.Equal(t, "test", r.Header().Source)

	var events []Event
	for {
		e, err := r.Next()
		if err != nil {
			break
		}
		events = append(events, e)
	}
	require.Len(t, events, 3)
	assert.Equal(t, "Notepad", events[0].Title)
	assert.Equal(t, "lbuttondown", events[2].Message)
	assert.Equal(t, 5, r.Line())
}

func TestReaderMissingHeader(t *testing.T) {
	_, err := NewReader(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingHeader)

	_, err = NewReader(strings.NewReader(`{"type":"event","message":"keydown","time":"2024-01-02T15:04:05Z"}` + "\n"))
	assert.ErrorIs(t, err, ErrMissingHeader)
}

func TestWriterOutputReadsBack(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)

	w, err := NewWriter(&buf, Header{CapsLock: true})
	require.NoError(t, err)
	require.NoError(t, w.Write(Event{Message: "keydown", VK: 65, Time: at, Title: "Mail"}))

	r, err := NewReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, Version, r.Header().Version)

	e, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Type: "event", Message: "keydown", VK: 65, Time: at, Title: "Mail"}, e)
}

type recordingHandler struct {
	calls  []string
	titles *[]string
}

func (h *recordingHandler) KeyDown(ev hook.Event) {
	h.calls = append(h.calls, "down:"+ev.VK.String()+"@"+strings.Join(*h.titles, ","))
}
func (h *recordingHandler) KeyUp(ev hook.Event) { h.calls = append(h.calls, "up:"+ev.VK.String()) }
func (h *recordingHandler) ButtonDown(ev hook.Event, b hook.Button) {
	h.calls = append(h.calls, "button:"+b.String())
}

func TestPlayerDeliversThroughHookChain(t *testing.T) {
	var titles, frames []string
	h := &recordingHandler{titles: &titles}

	lb := hook.NewLoopback()
	cb := hook.NewCallback(h, nil)
	s, err := hook.Open(lb, cb.Proc(), cb.Proc())
	require.NoError(t, err)
	defer s.Close()

	var header Header
	p := &Player{
		Deliver:  lb.Deliver,
		OnHeader: func(h Header) { header = h },
		OnTitle:  func(title string, _ time.Time) { titles = append(titles, title) },
		OnFrame:  func(path string) { frames = append(frames, path) },
	}

	r, err := NewReader(strings.NewReader(sample))
	require.NoError(t, err)
	stats, err := p.Play(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, Stats{Events: 3}, stats)
	assert.True(t, header.CapsLock)
	assert.Equal(t, []string{"down:H@Notepad", "up:H", "button:left"}, h.calls, "title published before delivery")
	assert.Equal(t, []string{"frames/0001.png"}, frames)
	assert.EqualValues(t, 3, lb.Passed())
}

func TestPlayerSkipsOrStops(t *testing.T) {
	input := sample + `{"type":"event","message":"keydown","vk":999,"time":"2024-01-02T15:04:07Z"}` + "\n" +
		`{"type":"event","message":"keydown","vk":65,"time":"2024-01-02T15:04:08Z"}` + "\n"

	var delivered int
	var skipped []error
	p := &Player{
		Deliver: func(hook.Event) uintptr { delivered++; return 0 },
		OnSkip:  func(err error) { skipped = append(skipped, err) },
	}
	r, err := NewReader(strings.NewReader(input))
	require.NoError(t, err)
	stats, err := p.Play(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, Stats{Events: 4, Skipped: 1}, stats)
	assert.Equal(t, 4, delivered)
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].Error(), "line 6")

	p.Strict = true
	r, err = NewReader(strings.NewReader(input))
	require.NoError(t, err)
	stats, err = p.Play(context.Background(), r)
	assert.ErrorIs(t, err, ErrInvalidLine)
	assert.Equal(t, 3, stats.Events)
}

func TestPlayerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r, err := NewReader(strings.NewReader(sample))
	require.NoError(t, err)
	_, err = (&Player{}).Play(ctx, r)
	assert.ErrorIs(t, err, context.Canceled)
}

type lineCollector struct {
	mu    sync.Mutex
	lines []string
}

func (c *lineCollector) add(line []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, string(line))
	return nil
}

func (c *lineCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *lineCollector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestFollowDeliversAppendedLines(t *testing.T) {
	old := pollInterval
	pollInterval = 10 * time.Millisecond
	defer func() { pollInterval = old }()

	path := filepath.Join(t.TempDir(), "live.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	c := &lineCollector{}
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, c.add) }()

	require.Eventually(t, func() bool { return c.count() == 1 }, 5*time.Second, 5*time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("second\nthi")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return c.count() == 2 }, 5*time.Second, 5*time.Millisecond)

	_, err = f.WriteString("rd\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Eventually(t, func() bool { return c.count() == 3 }, 5*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"first", "second", "third"}, c.snapshot())
}

func TestFollowMissingFile(t *testing.T) {
	err := Follow(context.Background(), filepath.Join(t.TempDir(), "nope.jsonl"), func([]byte) error { return nil })
	assert.Error(t, err)
}
