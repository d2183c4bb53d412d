// Config loading for the broom CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/broom/internal/countdown"
	"github.com/mesh-intelligence/broom/internal/restart"
	"github.com/mesh-intelligence/broom/internal/transcript"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// Config keys.
	cfgKeyStateDir        = "state_dir"
	cfgKeyCountdownTurns  = "countdown_turns"
	cfgKeyBackupRetention = "backup_retention"
	cfgKeyTmuxTarget      = "restart.tmux_target"
	cfgKeyContinueCommand = "restart.continue_command"
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# Broom configuration

# State directory holding countdown state and the compaction ledger
# (optional; overridable by --state-dir flag; default: $(CWD)/.broom)
# state_dir:

# Armed countdown value: warning turns plus the compact and restart turns.
countdown_turns: 4

# Transcript backups kept per transcript; oldest pruned first.
backup_retention: 5

restart:
  # tmux pane target for the session restart (empty: current pane)
  # tmux_target:
  # Command typed into the pane to resume the session
  continue_command: "claude --continue"
`

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on first
// run. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}

	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyCountdownTurns, countdown.DefaultMax)
	v.SetDefault(cfgKeyBackupRetention, transcript.DefaultRetention)
	v.SetDefault(cfgKeyContinueCommand, restart.DefaultContinueCommand)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	return v, nil
}

// ensureConfigDir creates the config directory if it does not exist.
func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does
// not exist in the config directory.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		// File already exists.
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
