package sentinel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DaemonState describes a running follower.
type DaemonState struct {
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"started_at"`
	Version   string    `json:"version,omitempty"`
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
}

// DaemonManager tracks the long-running follow process through a PID file
// and a state file, so a second follower can be refused and status can
// report on it.
type DaemonManager struct {
	pidFile   string
	stateFile string
}

// NewDaemonManager creates a manager keeping its files under dataDir/run.
func NewDaemonManager(dataDir string) *DaemonManager {
	runDir := filepath.Join(dataDir, "run")
	return &DaemonManager{
		pidFile:   filepath.Join(runDir, "follow.pid"),
		stateFile: filepath.Join(runDir, "follow.state"),
	}
}

// IsRunning reports whether the PID file names a live process.
func (m *DaemonManager) IsRunning() bool {
	pid, err := m.ReadPID()
	if err != nil {
		return false
	}
	return isProcessRunning(pid)
}

// ReadPID reads the follower PID.
func (m *DaemonManager) ReadPID() (int, error) {
	data, err := os.ReadFile(m.pidFile)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file: %w", err)
	}
	return pid, nil
}

// Start records the current process as the follower. It fails if another
// live follower holds the PID file.
func (m *DaemonManager) Start(state DaemonState) error {
	if pid, err := m.ReadPID(); err == nil && pid != os.Getpid() && isProcessRunning(pid) {
		return fmt.Errorf("follower already running (pid %d)", pid)
	}

	if err := os.MkdirAll(filepath.Dir(m.pidFile), 0700); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}
	if err := os.WriteFile(m.pidFile, []byte(strconv.Itoa(os.Getpid())), 0600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}

	state.PID = os.Getpid()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(m.stateFile, data, 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// ReadState reads the follower state.
func (m *DaemonManager) ReadState() (*DaemonState, error) {
	data, err := os.ReadFile(m.stateFile)
	if err != nil {
		return nil, err
	}
	var state DaemonState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

// Cleanup removes the PID and state files.
func (m *DaemonManager) Cleanup() {
	os.Remove(m.pidFile)
	os.Remove(m.stateFile)
}

// DaemonStatus is the follower status for display.
type DaemonStatus struct {
	Running   bool
	PID       int
	StartedAt time.Time
	Uptime    time.Duration
	SessionID string
	Source    string
}

// Status returns the current follower status.
func (m *DaemonManager) Status() DaemonStatus {
	var status DaemonStatus

	if pid, err := m.ReadPID(); err == nil && isProcessRunning(pid) {
		status.Running = true
		status.PID = pid
	}

	if state, err := m.ReadState(); err == nil {
		status.StartedAt = state.StartedAt
		status.SessionID = state.SessionID
		status.Source = state.Source
		if status.Running {
			status.Uptime = time.Since(state.StartedAt)
		}
	}
	return status
}
