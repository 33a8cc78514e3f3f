package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultDataDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/streamer" {
		t.Fatalf("got %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("HOME", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("expected fallback to ./data, got %s", got)
	}
}

func TestUserDataDir(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"linux", filepath.Join("/home/u", ".local", "share", "streamer")},
		{"darwin", filepath.Join("/home/u", "Library", "Application Support", "Streamer")},
		{"windows", filepath.Join("/home/u", "AppData", "Local", "Streamer")},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			if got := userDataDir(tt.goos, "/home/u"); got != tt.want {
				t.Fatalf("got %s want %s", got, tt.want)
			}
		})
	}
}
