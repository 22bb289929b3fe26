// Package xdg provides helpers to resolve XDG Base Directory paths for jifa.
// Configuration lives under the config dir; the persisted cookie jar lives
// under the state dir.
//
// Both helpers fall back to the traditional locations when the XDG
// environment variables are unset and create the directory with private
// permissions.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "jifa"

// ConfigDir returns the XDG config directory for jifa.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/jifa when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return ensure("XDG_CONFIG_HOME", ".config")
}

// StateDir returns the XDG state directory for jifa.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.local/state/jifa when XDG_STATE_HOME is unset.
func StateDir() (string, error) {
	return ensure("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func ensure(envVar, homeRel string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
