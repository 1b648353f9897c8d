package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
		hasError bool
	}{
		{"debug", LevelDebug, false},
		{"DEBUG", LevelDebug, false},
		{"info", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"invalid", LevelInfo, true},
		{"", LevelInfo, true},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			level, err := ParseLevel(test.input)
			if test.hasError && err == nil {
				t.Error("expected error, got nil")
			}
			if !test.hasError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !test.hasError && level != test.expected {
				t.Errorf("expected %v, got %v", test.expected, level)
			}
		})
	}
}

func TestLevelStringRoundTrip(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		parsed, err := ParseLevel(LevelString(level))
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, LevelInfo, cfg.Level)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
	assert.Equal(t, "keyjournal", cfg.Component)
	assert.True(t, strings.HasSuffix(cfg.FilePath, "keyjournal.log"))
}

func TestJSONFormatWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: LevelDebug, Format: FormatJSON, Writer: &buf})
	require.NoError(t, err)

	l.WithComponent("engine").Info("flushed", "tokens", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "flushed", entry["msg"])
	assert.Equal(t, "engine", entry["component"])
	assert.EqualValues(t, 3, entry["tokens"])
}

func TestRedaction(t *testing.T) {
	tests := []struct {
		key    string
		redact bool
	}{
		{"transcript", true},
		{"visible_text", true},
		{"db_password", true},
		{"typed", true},
		{"vk", false},
		{"title", false},
		{"session_id", false},
		{"api-token", true},
		{"auth.secret", true},
		{"tokens", false},
		{"token_count", true},
		{"kind_tokens", false},
		{"passwords_checked", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.redact, shouldRedact(tt.key))
		})
	}

	var buf bytes.Buffer
	l, err := New(&Config{Writer: &buf})
	require.NoError(t, err)
	l.Info("record", "transcript", "hunter2")
	assert.NotContains(t, buf.String(), "hunter2")
	assert.Contains(t, buf.String(), "[REDACTED]")
}

func TestSetLevelPropagates(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(&Config{Level: LevelWarn, Writer: &buf})
	require.NoError(t, err)
	child := l.WithComponent("follow")

	child.Info("hidden")
	assert.Empty(t, buf.String())

	l.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, child.Level())
	child.Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFileRotatorRotatesAndPrunes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keyjournal.log")

	r, err := NewFileRotator(&Config{FilePath: path, MaxSize: 1, MaxBackups: 2})
	require.NoError(t, err)

	tick := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}

	chunk := bytes.Repeat([]byte("x"), 600*1024)
	for i := 0; i < 5; i++ {
		_, err := r.Write(chunk)
		require.NoError(t, err)
	}
	require.NoError(t, r.Close())

	backups, err := r.Backups()
	require.NoError(t, err)
	assert.Len(t, backups, 2)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, len(chunk), info.Size())
}

func TestFileRotatorDailyRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.log")
	r, err := NewFileRotator(&Config{FilePath: path, MaxSize: 100, Compress: true, MaxBackups: 3})
	require.NoError(t, err)

	day := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	r.now = func() time.Time { return day }
	r.openedAt = day

	_, err = r.Write([]byte("first\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = r.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	backups, err := r.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.True(t, strings.HasSuffix(backups[0], ".gz"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestCrashHandlerRecover(t *testing.T) {
	dir := t.TempDir()
	var seen []CrashReport
	h := NewCrashHandler(&CrashHandlerConfig{
		CrashDir:  dir,
		Component: "hook",
		Logger:    Discard(),
		OnCrash:   func(r CrashReport) { seen = append(seen, r) },
	})
	h.SetSessionID("abc")

	panicked := h.Recover(map[string]any{"message": 0x100}, func() {
		panic(errors.New("decoder exploded"))
	})
	assert.True(t, panicked)
	assert.False(t, h.Recover(nil, func() {}))
	assert.EqualValues(t, 1, h.Crashes())

	require.Len(t, seen, 1)
	assert.Equal(t, "decoder exploded", seen[0].PanicValue)
	assert.Equal(t, "abc", seen[0].SessionID)
	assert.Contains(t, seen[0].StackTrace, "TestCrashHandlerRecover")

	reports, err := h.Reports()
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "hook", reports[0].Component)
}

func TestCrashHandlerWithoutDir(t *testing.T) {
	h := NewCrashHandler(nil)
	report := h.HandlePanic("boom", nil)
	assert.Equal(t, "boom", report.PanicValue)

	reports, err := h.Reports()
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestCrashHandlerCleanupOld(t *testing.T) {
	dir := t.TempDir()
	h := NewCrashHandler(&CrashHandlerConfig{CrashDir: dir, Component: "test"})
	h.HandlePanic("old", nil)

	files, _ := filepath.Glob(filepath.Join(dir, "crash-*.json"))
	require.Len(t, files, 1)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(files[0], old, old))

	require.NoError(t, h.CleanupOldCrashReports(24*time.Hour))
	files, _ = filepath.Glob(filepath.Join(dir, "crash-*.json"))
	assert.Empty(t, files)
}
