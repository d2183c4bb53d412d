// Package restart implements the session restart actuator. The scheduler
// only ever asks for a restart; how the host session is interrupted and
// resumed lives here.
package restart

import (
	"fmt"
	"os"
	"os/exec"
)

// DefaultContinueCommand resumes the host session after the interrupt.
const DefaultContinueCommand = "claude --continue"

// Tmux interrupts a tmux pane and types the continue command into it. The
// whole sequence runs detached in a child shell so the short-lived hook
// process can exit before the keystrokes land.
type Tmux struct {
	// Target is the tmux pane target (session:window.pane). Empty targets
	// the current pane.
	Target string

	// ContinueCommand is typed into the pane after the interrupt.
	ContinueCommand string
}

// NewTmux returns a Tmux actuator. An empty continueCommand falls back to
// DefaultContinueCommand.
func NewTmux(target, continueCommand string) *Tmux {
	if continueCommand == "" {
		continueCommand = DefaultContinueCommand
	}
	return &Tmux{Target: target, ContinueCommand: continueCommand}
}

// RequestRestart fires the interrupt-and-continue sequence. It is
// fire-and-forget: the child is started, never awaited, and failures only
// produce a stderr warning.
func (t *Tmux) RequestRestart(sessionID string) {
	cmd := exec.Command("sh", "-c", t.script())
	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "broom: restart request for session %s failed: %v\n", sessionID, err)
		return
	}
	// Release the child so it outlives this process.
	_ = cmd.Process.Release()
}

// script builds the detached interrupt-and-continue sequence. The sleeps
// give the host time to wind down between the interrupt and the resume.
func (t *Tmux) script() string {
	target := ""
	if t.Target != "" {
		target = fmt.Sprintf(" -t %q", t.Target)
	}
	return fmt.Sprintf(
		"sleep 1; tmux send-keys%s C-c; sleep 2; tmux send-keys%s %q Enter",
		target, target, t.ContinueCommand)
}

// Nop is a Restarter that does nothing. It backs tests and environments
// without tmux.
type Nop struct{}

// RequestRestart implements the actuator contract as a no-op.
func (Nop) RequestRestart(string) {}
