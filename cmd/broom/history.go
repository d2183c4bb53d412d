// Compaction ledger listing.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/broom/internal/ledger"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded compaction runs, newest first",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	stateDir, err := resolveStateDir()
	if err != nil {
		return fmt.Errorf("resolve state dir: %w", err)
	}

	l, err := ledger.Open(stateDir)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	runs, err := l.Recent(flagHistoryLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No compaction runs recorded.")
		return nil
	}
	for _, run := range runs {
		fmt.Printf("%s  pairs=%d records=%d links=%d  session=%s  %s\n",
			run.RanAt.Local().Format(time.DateTime),
			run.PairsRemoved, run.RecordsRemoved, run.LinksRepaired,
			run.SessionID, run.TranscriptPath)
	}
	return nil
}
