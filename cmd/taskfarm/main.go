// ============================================================================
// Task-Farm - Main Entry Point
// ============================================================================
//
// File: cmd/taskfarm/main.go
// Purpose: Application entry point and CLI initialization
//
// Responsibilities:
//   1. Version Management - Inject build info via ldflags
//   2. Panic Recovery - Catch unexpected panics gracefully
//   3. CLI Setup - Build and configure Cobra command interface
//   4. Error Handling - Unified command execution error handling: exit
//      code 1 whenever the command returns an error (configuration errors
//      as well as transport errors that end a dispatcher or worker run)
//
// Usage:
//   ./taskfarm dispatch --cmd ./run.sh --inputs tasks.txt --allworkers 8
//   ./taskfarm work --mothersuperior node0 --count 4 --time 01:00:00
//   ./taskfarm launch --cmd ./run.sh --inputs tasks.txt --count 2
//   ./taskfarm status
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/lsu-cct/taskfarm/internal/cli"
)

// Build-time version injection via ldflags.
var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
