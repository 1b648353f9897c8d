//go:build !windows

package sentinel

// SystemTitler returns the foreground window titler for this platform. Only
// Windows exposes a foreground title; elsewhere titles come from recordings.
func SystemTitler() WindowTitler {
	return TitlerFunc(func() string { return "" })
}
