// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server over the same router as the CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/fitlog/internal/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

The server communicates via stdin/stdout. Add it to an MCP client config:

  {
    "mcpServers": {
      "fitlog": { "command": "fitlog", "args": ["mcp"] }
    }
  }

AVAILABLE TOOLS:

  save_workout_session   Log a workout session
  list_workout_sessions  List recent sessions
  save_exercise_log      Log sets for one exercise
  list_exercise_logs     List exercise logs
  save_progress          Record a measurement
  list_progress          List measurements
  sync_to_cloud          Upload on-device records (paid plans)
  sync_status            Plan, connectivity and backlog
  refresh_plan           Re-check the subscription plan

AVAILABLE RESOURCES:

  fitlog://status   Sync status
  fitlog://recent   Recent sessions and measurements`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(rt, resolver, logger)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
