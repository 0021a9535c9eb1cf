package paths

import (
	"os"
	"path/filepath"
)

// DefaultSettingsDir is where the shared mining settings live. The
// downstream execution service mounts the same directory, so the projects
// document must stay at a well-known location inside it.
func DefaultSettingsDir() string {
	if x := os.Getenv("MINEGATE_SETTINGS_DIR"); x != "" {
		return x
	}
	if x := os.Getenv("XDG_STATE_HOME"); x != "" {
		return filepath.Join(x, "minegate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "minegate")
}

func DefaultProjectsPath() string {
	return filepath.Join(DefaultSettingsDir(), "projects.json")
}

func DefaultAuditDBPath() string {
	return filepath.Join(DefaultSettingsDir(), "registrations.db")
}

func DefaultConfigDir() string {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "minegate")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "minegate")
}
