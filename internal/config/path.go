package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "streamer"

// DefaultDataDir returns the embedded backend's default data directory:
// $XDG_DATA_HOME/streamer when set, otherwise the per-user data location of
// the host OS, and ./data when no home directory is known.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return "./data"
	}
	return userDataDir(runtime.GOOS, homeDir)
}

func userDataDir(goos, homeDir string) string {
	switch goos {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "Streamer")
	case "windows":
		return filepath.Join(homeDir, "AppData", "Local", "Streamer")
	default:
		return filepath.Join(homeDir, ".local", "share", appDirName)
	}
}
