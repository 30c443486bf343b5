// Package config provides configuration resolution for charter: the global
// configuration directory, the per-workspace config file, and env files.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Dir returns the charter global configuration directory.
//
// Resolution:
//   - $CHARTER_CONFIG_HOME if set (explicit override)
//   - $XDG_CONFIG_HOME/charter if set (respects XDG on any platform)
//   - %AppData%/charter on Windows
//   - ~/.config/charter on macOS and Linux
func Dir() string {
	if dir := os.Getenv("CHARTER_CONFIG_HOME"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "charter")
	}

	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "charter")
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "charter")
}
