// Manual compaction command.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/broom/internal/transcript"
)

var compactCmd = &cobra.Command{
	Use:   "compact <transcript>",
	Short: "Compact a transcript once, outside the countdown",
	Long: `Compact removes matched tool request/result record pairs from the
given JSONL transcript, repairs the causal uuid chain, and replaces the file
atomically after taking a timestamped backup. A missing transcript is a
no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompact,
}

func runCompact(cmd *cobra.Command, args []string) error {
	path := args[0]

	comp := transcript.NewCompactor()
	comp.SetRetention(configRetention)

	report, err := comp.Compact(path)
	if err != nil {
		return fmt.Errorf("compact %s: %w", path, err)
	}

	stateDir, err := resolveStateDir()
	if err == nil && report.Removed() {
		recordRun(stateDir, "", path, report)
	}

	return printReport(report)
}

// printReport writes the report to stdout, as JSON when --json is set.
func printReport(report transcript.Report) error {
	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if !report.Removed() {
		fmt.Println("No removable tool pairs found.")
		if report.SkippedLines > 0 {
			fmt.Printf("Skipped %d malformed line(s).\n", report.SkippedLines)
		}
		return nil
	}

	fmt.Printf("Removed tool pairs:    %d\n", report.PairsRemoved)
	fmt.Printf("Removed records:       %d\n", report.RecordsRemoved)
	fmt.Printf("Repaired uuid links:   %d\n", report.LinksRepaired)
	fmt.Printf("Record count:          %d -> %d\n", report.OriginalCount, report.FinalCount)
	if report.SkippedLines > 0 {
		fmt.Printf("Skipped lines:         %d\n", report.SkippedLines)
	}
	return nil
}
