package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// CrashReport describes one recovered panic.
type CrashReport struct {
	Timestamp    time.Time      `json:"timestamp"`
	Version      string         `json:"version,omitempty"`
	GOOS         string         `json:"goos"`
	GOARCH       string         `json:"goarch"`
	NumGoroutine int            `json:"num_goroutine"`
	PanicValue   string         `json:"panic_value"`
	StackTrace   string         `json:"stack_trace"`
	Component    string         `json:"component,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	Context      map[string]any `json:"context,omitempty"`
}

// CrashHandlerConfig configures the crash handler.
type CrashHandlerConfig struct {
	// CrashDir is the directory crash reports are written to. Empty
	// disables report files.
	CrashDir string

	// Version is the application version.
	Version string

	// Component is the component name.
	Component string

	// Logger receives a one-line error entry per crash.
	Logger *Logger

	// OnCrash is called after a crash is recorded.
	OnCrash func(CrashReport)
}

// CrashHandler turns recovered panics into crash reports. It never panics
// itself and is safe for concurrent use.
type CrashHandler struct {
	mu        sync.Mutex
	crashDir  string
	version   string
	component string
	sessionID string
	logger    *Logger
	onCrash   func(CrashReport)
	crashes   atomic.Int64
}

// DefaultCrashDir returns the platform-specific default crash directory.
func DefaultCrashDir() string {
	return filepath.Join(stateDir(), "crashes")
}

// NewCrashHandler creates a new CrashHandler.
func NewCrashHandler(cfg *CrashHandlerConfig) *CrashHandler {
	if cfg == nil {
		cfg = &CrashHandlerConfig{}
	}
	if cfg.CrashDir != "" {
		os.MkdirAll(cfg.CrashDir, 0750)
	}
	return &CrashHandler{
		crashDir:  cfg.CrashDir,
		version:   cfg.Version,
		component: cfg.Component,
		logger:    cfg.Logger,
		onCrash:   cfg.OnCrash,
	}
}

// SetSessionID sets the session ID stamped on later reports.
func (h *CrashHandler) SetSessionID(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessionID = sessionID
}

// Crashes returns the number of panics handled so far.
func (h *CrashHandler) Crashes() int64 {
	return h.crashes.Load()
}

// Recover runs fn and reports any panic. It returns true if fn panicked.
func (h *CrashHandler) Recover(contextInfo map[string]any, fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			h.HandlePanic(r, contextInfo)
		}
	}()
	fn()
	return false
}

// HandlePanic records a recovered panic value and returns the report.
func (h *CrashHandler) HandlePanic(panicValue any, contextInfo map[string]any) CrashReport {
	h.crashes.Add(1)

	h.mu.Lock()
	report := CrashReport{
		Timestamp:    time.Now().UTC(),
		Version:      h.version,
		GOOS:         runtime.GOOS,
		GOARCH:       runtime.GOARCH,
		NumGoroutine: runtime.NumGoroutine(),
		PanicValue:   fmt.Sprintf("%v", panicValue),
		StackTrace:   string(debug.Stack()),
		Component:    h.component,
		SessionID:    h.sessionID,
		Context:      contextInfo,
	}
	path, err := h.writeCrashDump(report)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Error("recovered panic",
			"panic", report.PanicValue,
			"report", path,
			"report_error", err,
		)
	}
	if h.onCrash != nil {
		h.onCrash(report)
	}
	return report
}

func (h *CrashHandler) writeCrashDump(report CrashReport) (string, error) {
	if h.crashDir == "" {
		return "", nil
	}
	name := fmt.Sprintf("crash-%s-%s-%d.json",
		report.Component,
		report.Timestamp.Format("20060102-150405"),
		h.crashes.Load())
	path := filepath.Join(h.crashDir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal crash report: %w", err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", fmt.Errorf("write crash report: %w", err)
	}
	return path, nil
}

// Reports reads every crash report in the crash directory.
func (h *CrashHandler) Reports() ([]CrashReport, error) {
	if h.crashDir == "" {
		return nil, nil
	}
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return nil, err
	}

	reports := make([]CrashReport, 0, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		var report CrashReport
		if err := json.Unmarshal(data, &report); err != nil {
			continue
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// CleanupOldCrashReports removes crash reports older than maxAge.
func (h *CrashHandler) CleanupOldCrashReports(maxAge time.Duration) error {
	if h.crashDir == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(h.crashDir, "crash-*.json"))
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
	return nil
}
