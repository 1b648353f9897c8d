//go:build windows

package sentinel

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow  = user32.NewProc("GetForegroundWindow")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
)

type foregroundTitler struct{}

// SystemTitler returns the foreground window titler for this platform.
func SystemTitler() WindowTitler { return foregroundTitler{} }

func (foregroundTitler) ActiveWindowTitle() string {
	if err := user32.Load(); err != nil {
		return ""
	}

	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return ""
	}

	n, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if n == 0 {
		return ""
	}

	buf := make([]uint16, n+1)
	copied, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if copied == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:copied])
}
