package main

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keyjournal/internal/config"
	"keyjournal/internal/logging"
	"keyjournal/internal/recording"
	"keyjournal/internal/store"
)

const typedThenClicked = `{"type":"header","version":1,"caps_lock":true,"source":"test"}
{"type":"event","message":"keydown","vk":72,"time":"2024-05-06T07:08:09Z","title":"Editor"}
{"type":"event","message":"keyup","vk":72,"time":"2024-05-06T07:08:09.050Z"}
{"type":"event","message":"keydown","vk":160,"time":"2024-05-06T07:08:09.100Z"}
{"type":"event","message":"keydown","vk":73,"time":"2024-05-06T07:08:09.150Z"}
{"type":"event","message":"keyup","vk":73,"time":"2024-05-06T07:08:09.200Z"}
{"type":"event","message":"keyup","vk":160,"time":"2024-05-06T07:08:09.250Z"}
{"type":"event","message":"mousemove","x":5,"y":5,"time":"2024-05-06T07:08:09.300Z"}
{"type":"event","message":"lbuttondown","x":4,"y":4,"time":"2024-05-06T07:08:10Z","frame":"frame.png"}
{"type":"event","message":"rbuttondown","x":1,"y":1,"time":"2024-05-06T07:08:11Z"}
`

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Storage.DatabasePath = filepath.Join(dir, "journal.db")
	cfg.Storage.CSVPath = filepath.Join(dir, "journal.csv")
	cfg.Capture.ScreenshotDir = filepath.Join(dir, "shots")
	cfg.Logging.CrashDir = ""
	require.NoError(t, cfg.Validate())
	return cfg
}

func writeFrame(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func replay(t *testing.T, cfg *config.Config, dir, input string) sessionSummary {
	t.Helper()
	p, err := newPipeline(context.Background(), cfg, logging.Discard(), dir, false)
	require.NoError(t, err)

	r, err := recording.NewReader(strings.NewReader(input))
	require.NoError(t, err)
	stats, err := p.player.Play(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 9, stats.Events)

	require.NoError(t, p.Close())
	return p.summary()
}

func TestReplayPersistsSessions(t *testing.T) {
	for _, async := range []bool{false, true} {
		name := "sync"
		if async {
			name = "async"
		}
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			writeFrame(t, filepath.Join(dir, "frame.png"))
			cfg := testConfig(t, dir)
			cfg.Persistence.Async = async

			summary := replay(t, cfg, dir, typedThenClicked)
			assert.EqualValues(t, 2, summary.Flushes)
			assert.Zero(t, summary.SinkErrors)
			assert.Zero(t, summary.Faults)
			assert.NotEmpty(t, summary.SessionID)

			db, err := store.Open(cfg.Storage.DatabasePath)
			require.NoError(t, err)
			defer db.Close()

			records, err := db.All(context.Background())
			require.NoError(t, err)
			require.Len(t, records, 2)

			first := records[0]
			assert.Equal(t, store.KindClick, first.Kind)
			// Caps Lock from the header and a held Shift cancel out on "i".
			assert.Equal(t, "Hi", first.VisibleText)
			assert.Equal(t, "H[Shift]i", first.Transcript)
			assert.Equal(t, "Editor", first.ActiveApplication)
			assert.Equal(t, "left", first.Trigger)
			assert.Equal(t, summary.SessionID, first.SessionID)
			assert.FileExists(t, first.ScreenshotPath)

			second := records[1]
			assert.Empty(t, second.VisibleText)
			assert.Empty(t, second.Transcript)
			assert.Equal(t, "right", second.Trigger)

			data, err := os.ReadFile(cfg.Storage.CSVPath)
			require.NoError(t, err)
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			assert.Len(t, lines, 3, "header plus one row per click")
			assert.Contains(t, lines[1], "H[Shift]i")
		})
	}
}

func TestReplayWithoutScreenshots(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Capture.Screenshots = false
	cfg.Storage.Sinks = []string{"sqlite"}

	summary := replay(t, cfg, dir, typedThenClicked)
	assert.Zero(t, summary.CaptureFailures)
	assert.NoFileExists(t, cfg.Storage.CSVPath)
	assert.NoDirExists(t, cfg.Capture.ScreenshotDir)

	db, err := store.Open(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	defer db.Close()
	counts, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Click: 2}, counts)
}

func TestReplayAuditsKeystrokes(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Capture.Screenshots = false
	cfg.Capture.AuditKeystrokes = true

	summary := replay(t, cfg, dir, typedThenClicked)
	assert.EqualValues(t, 3, summary.Audits)

	db, err := store.Open(cfg.Storage.DatabasePath)
	require.NoError(t, err)
	defer db.Close()
	counts, err := db.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.Counts{Click: 2, Keystroke: 3}, counts)
}

func TestNewPipelineRejectsUnknownButton(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Capture.TriggerButtons = []string{"x2"}

	_, err := newPipeline(context.Background(), cfg, logging.Discard(), dir, false)
	assert.Error(t, err)
}

func TestApplyLineSkipsInvalidUnlessStrict(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Capture.Screenshots = false

	p, err := newPipeline(context.Background(), cfg, logging.Discard(), dir, false)
	require.NoError(t, err)
	defer p.Close()

	assert.NoError(t, p.applyLine([]byte(`{"type":"event","message":"bogus"}`)))

	p.player.Strict = true
	assert.ErrorIs(t, p.applyLine([]byte(`{"type":"event","message":"bogus"}`)), recording.ErrInvalidLine)
}

func TestReplayWritesMetrics(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Capture.Screenshots = false

	p, err := newPipeline(context.Background(), cfg, logging.Discard(), dir, false)
	require.NoError(t, err)
	r, err := recording.NewReader(strings.NewReader(typedThenClicked +
		`{"type":"event","message":"keydown","vk":-4,"time":"2024-05-06T07:08:12Z"}` + "\n"))
	require.NoError(t, err)
	_, err = p.player.Play(context.Background(), r)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	path := filepath.Join(dir, "keyjournal.prom")
	p.publishMetrics(path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `keyjournal_records_persisted_total{kind="click"} 2`)
	assert.Contains(t, out, "keyjournal_recording_lines_skipped_total 1\n")
	assert.Contains(t, out, "keyjournal_events_handled 8\n")
}

func TestNewPipelinePrunesOldCrashReports(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	cfg.Capture.Screenshots = false
	cfg.Logging.CrashDir = filepath.Join(dir, "crashes")
	cfg.Logging.CrashRetentionDays = 7
	require.NoError(t, os.MkdirAll(cfg.Logging.CrashDir, 0o750))

	stale := filepath.Join(cfg.Logging.CrashDir, "crash-hook-20240101-000000-1.json")
	fresh := filepath.Join(cfg.Logging.CrashDir, "crash-hook-20240601-000000-1.json")
	for _, path := range []string{stale, fresh} {
		require.NoError(t, os.WriteFile(path, []byte(`{"panic_value":"boom"}`), 0o640))
	}
	old := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	p, err := newPipeline(context.Background(), cfg, logging.Discard(), dir, false)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)

	reports, err := p.crash.Reports()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestCrashSummary(t *testing.T) {
	assert.Equal(t, "none", crashSummary(nil))

	earlier := time.Date(2024, 5, 6, 7, 0, 0, 0, time.Local)
	later := earlier.Add(time.Hour)
	got := crashSummary([]logging.CrashReport{
		{Timestamp: later, Component: "dispatcher", PanicValue: "sink exploded"},
		{Timestamp: earlier, Component: "hook", PanicValue: "boom"},
	})
	assert.Equal(t, "2 (latest 2024-05-06 08:00:00 in dispatcher: sink exploded)", got)
}
