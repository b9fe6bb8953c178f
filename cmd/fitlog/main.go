// ABOUTME: Entry point for fitlog CLI.
// ABOUTME: Loads .env, then invokes the root Cobra command.
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/fitlog/internal/config"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
