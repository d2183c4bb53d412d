// Countdown state inspection.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/broom/internal/countdown"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current countdown state",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	stateDir, err := resolveStateDir()
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}

	store := countdown.NewStore(stateDir)
	st := store.Load()

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if st.Idle() {
		fmt.Println("Countdown: idle")
		return nil
	}
	fmt.Printf("Countdown:    %d\n", st.Countdown)
	fmt.Printf("Session:      %s\n", st.SessionID)
	if st.LastTrigger != "" {
		fmt.Printf("Last trigger: %s\n", st.LastTrigger)
	}
	return nil
}
