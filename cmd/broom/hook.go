// Hook entry points invoked by the host session.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/broom/internal/countdown"
	"github.com/mesh-intelligence/broom/internal/hook"
	"github.com/mesh-intelligence/broom/internal/ledger"
	"github.com/mesh-intelligence/broom/internal/restart"
	"github.com/mesh-intelligence/broom/internal/transcript"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Hook entry points for the host session",
	Long: `Hook subcommands read the host's JSON payload from stdin and exit
with 0 (proceed silently) or 2 (blocking: the diagnostic on stderr must be
surfaced to the operator before the session proceeds).`,
}

var hookArmCmd = &cobra.Command{
	Use:   "arm",
	Short: "Arm the countdown (capability-use trigger)",
	Long: `Arm unconditionally resets the countdown to its maximum and records
the session id. It always exits 0: internal I/O failures are logged to
stderr but never block the host on this path.`,
	RunE: runHookArm,
}

var hookTurnEndCmd = &cobra.Command{
	Use:   "turn-end",
	Short: "Advance the countdown by one turn (turn-end trigger)",
	RunE:  runHookTurnEnd,
}

func init() {
	hookCmd.AddCommand(hookArmCmd)
	hookCmd.AddCommand(hookTurnEndCmd)
}

// newScheduler wires the scheduler from the resolved state directory and
// loaded configuration.
func newScheduler() (*countdown.Scheduler, string, error) {
	stateDir, err := resolveStateDir()
	if err != nil {
		return nil, "", fmt.Errorf("resolve state dir: %w", err)
	}

	comp := transcript.NewCompactor()
	comp.SetRetention(configRetention)

	sched := countdown.NewScheduler(
		countdown.NewStore(stateDir),
		comp,
		restart.NewTmux(configTmuxTarget, configContinue),
		configCountdown,
	)
	return sched, stateDir, nil
}

func runHookArm(cmd *cobra.Command, args []string) error {
	in, err := hook.Decode(cmd.InOrStdin())
	if err != nil {
		return err
	}

	sched, _, err := newScheduler()
	if err != nil {
		// Never block the host on the arm path.
		fmt.Fprintf(os.Stderr, "broom: warning: %v\n", err)
		return nil
	}
	if err := sched.Arm(in.SessionID, in.ToolName); err != nil {
		fmt.Fprintf(os.Stderr, "broom: warning: arming countdown: %v\n", err)
	}
	return nil
}

func runHookTurnEnd(cmd *cobra.Command, args []string) error {
	in, err := hook.Decode(cmd.InOrStdin())
	if err != nil {
		return err
	}

	sched, stateDir, err := newScheduler()
	if err != nil {
		return err
	}

	decision, err := sched.TurnEnd(in.SessionID, in.TranscriptPath)
	if err != nil {
		// The decision already happened; a persistence failure must not
		// swallow the banner.
		fmt.Fprintf(os.Stderr, "broom: warning: %v\n", err)
	}

	if decision.Report != nil && decision.Report.Removed() {
		recordRun(stateDir, in.SessionID, in.TranscriptPath, *decision.Report)
	}

	if decision.Message != "" {
		fmt.Fprintln(os.Stderr, decision.Message)
	}
	if decision.Blocking {
		os.Exit(exitBlocking)
	}
	return nil
}

// recordRun appends a compaction run to the ledger. Best-effort: the ledger
// is diagnostic history, so failures warn and move on.
func recordRun(stateDir, sessionID, transcriptPath string, report transcript.Report) {
	l, err := ledger.Open(stateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "broom: warning: opening ledger: %v\n", err)
		return
	}
	defer l.Close()

	err = l.Record(ledger.Run{
		SessionID:      sessionID,
		TranscriptPath: transcriptPath,
		PairsRemoved:   report.PairsRemoved,
		RecordsRemoved: report.RecordsRemoved,
		LinksRepaired:  report.LinksRepaired,
		SkippedLines:   report.SkippedLines,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "broom: warning: recording run: %v\n", err)
	}
}
