// Package paths resolves configuration and state directory locations.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative directory name. The state directory holds the countdown
// state file and the compaction ledger for the current project.
const DefaultStateDirName = ".broom"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "BROOM_CONFIG_DIR"
	EnvStateDir  = "BROOM_STATE_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/broom (fallback ~/.config/broom)
// macOS:   ~/Library/Application Support/broom
// Windows: %APPDATA%/broom
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "broom"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "broom"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "broom"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > BROOM_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveStateDir returns the state directory following the precedence
// chain: flag > config.yaml state_dir > BROOM_STATE_DIR env > default
// $(CWD)/.broom.
//
// The CWD-relative default keeps countdown state scoped to the project the
// host session runs in, so sessions in different projects never share a
// countdown.
func ResolveStateDir(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvStateDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultStateDirName), nil
}
