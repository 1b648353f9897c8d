package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/keyjournal/
//   - Linux:   $XDG_DATA_HOME/keyjournal/ (~/.local/share/keyjournal/)
//   - Windows: %APPDATA%\keyjournal\
func PlatformDataDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", "keyjournal")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "keyjournal")
		}
		return filepath.Join(homeDir(), "AppData", "Roaming", "keyjournal")
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "keyjournal")
		}
		return filepath.Join(homeDir(), ".local", "share", "keyjournal")
	}
}

// PlatformConfigDir returns the platform-specific config directory.
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin", "windows":
		return PlatformDataDir()
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "keyjournal")
		}
		return filepath.Join(homeDir(), ".config", "keyjournal")
	}
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}
