// Package main provides the broom CLI, the hook binary that compacts agent
// session transcripts and drives the turn-synchronized restart countdown.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
