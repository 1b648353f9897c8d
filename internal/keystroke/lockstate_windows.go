//go:build windows

package keystroke

import "golang.org/x/sys/windows"

var (
	user32          = windows.NewLazySystemDLL("user32.dll")
	procGetKeyState = user32.NewProc("GetKeyState")
)

// SystemLock reads lock toggles from the Windows keyboard state.
type SystemLock struct{}

// CapsLock reports the low-order toggle bit of GetKeyState(VK_CAPITAL).
func (SystemLock) CapsLock() bool {
	if err := procGetKeyState.Find(); err != nil {
		return false
	}
	r, _, _ := procGetKeyState.Call(uintptr(VKCapital))
	return r&0x0001 != 0
}

// PlatformLock returns the lock source for this platform.
func PlatformLock() LockState {
	return SystemLock{}
}
