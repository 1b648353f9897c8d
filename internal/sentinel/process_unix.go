//go:build !windows

package sentinel

import "golang.org/x/sys/unix"

// isProcessRunning sends signal 0 to pid. EPERM still means the process
// exists.
func isProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
