//go:build !windows

package keystroke

// PlatformLock returns the lock source for this platform. Without a
// lock-state query Caps Lock is tracked from observed key-downs.
func PlatformLock() LockState {
	return NewToggleLock(false)
}
