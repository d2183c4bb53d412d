// Root command for the broom CLI.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/broom/internal/paths"
	"github.com/mesh-intelligence/broom/pkg/broom"
)

// Exit codes. The host treats any non-zero code from a turn-end hook as
// blocking: the diagnostic is surfaced to the operator before the session
// proceeds.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitBlocking  = 2
)

// Global flag values.
var (
	flagConfigDir string
	flagStateDir  string
	flagJSON      bool
)

// Configuration values loaded by PersistentPreRunE so all subcommands can
// use them.
var (
	configStateDir   string
	configCountdown  int
	configRetention  int
	configTmuxTarget string
	configContinue   string
)

var rootCmd = &cobra.Command{
	Use:     "broom",
	Short:   "Broom sweeps tool-use records out of agent session transcripts",
	Version: broom.Version,
	Long: `Broom compacts agent session transcripts by removing matched tool
request/result record pairs and repairing the causal uuid chain, and runs a
persisted per-turn countdown that schedules one compaction and one session
restart per cycle.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := resolveConfigDir()
		if err != nil {
			return err
		}

		cfg, err := loadConfig(configDir)
		if err != nil {
			return err
		}

		configStateDir = cfg.GetString(cfgKeyStateDir)
		configCountdown = cfg.GetInt(cfgKeyCountdownTurns)
		configRetention = cfg.GetInt(cfgKeyBackupRetention)
		configTmuxTarget = cfg.GetString(cfgKeyTmuxTarget)
		configContinue = cfg.GetString(cfgKeyContinueCommand)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagStateDir, "state-dir", "", "state directory (default: $(CWD)/.broom)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveStateDir returns the state directory following the precedence:
// --state-dir flag > config.yaml state_dir > BROOM_STATE_DIR env > default
// $(CWD)/.broom.
func resolveStateDir() (string, error) {
	return paths.ResolveStateDir(flagStateDir, configStateDir)
}

// resolveConfigDir returns the configuration directory following the
// precedence: --config-dir flag > BROOM_CONFIG_DIR env > platform default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flagConfigDir)
}
