// Package paths resolves where traits keeps its configuration and its
// declaration registry.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDirName is the project-local registry directory, relative to
// the working directory.
const DefaultDataDirName = ".traits-db"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "TRAITS_CONFIG_DIR"
	EnvDataDir   = "TRAITS_DATA_DIR"
)

// appDirName is the directory created under the platform roots.
const appDirName = "traits"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// userDir returns the per-user directory for traits. On Linux it honours
// the XDG variable xdgEnv and falls back to home/xdgFallback; elsewhere it
// uses os.UserConfigDir (Application Support on macOS, %APPDATA% on
// Windows).
func userDir(xdgEnv string, xdgFallback ...string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	parts := append([]string{home}, xdgFallback...)
	return filepath.Join(append(parts, appDirName)...), nil
}

// DefaultConfigDir returns the per-user configuration directory:
// $XDG_CONFIG_HOME/traits or ~/.config/traits on Linux.
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user registry directory:
// $XDG_DATA_HOME/traits or ~/.local/share/traits on Linux.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", ".local", "share")
}

// ResolveConfigDir returns the configuration directory with precedence
// flag > TRAITS_CONFIG_DIR > DefaultConfigDir. Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the registry directory with precedence
// flag > config value > TRAITS_DATA_DIR > $(CWD)/.traits-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(EnvDataDir)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}
