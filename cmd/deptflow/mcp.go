package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/deptflow/internal/mcp"
	"github.com/spf13/cobra"
)

// version 由构建时 -ldflags 注入
var version = "dev"

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server so an AI assistant can read
and log habits. The server communicates via stdin/stdout.

  {
    "mcpServers": {
      "deptflow": { "command": "deptflow", "args": ["mcp"] }
    }
  }

AVAILABLE TOOLS:

  list_habits    List habits with streaks
  add_habit      Start tracking a habit
  rename_habit   Rename a habit
  delete_habit   Delete a habit and its logs
  log_habit      Mark a habit completed or missed on a day
  get_streaks    Current and longest streak of a habit
  get_summary    Completion summary over the last N days

AVAILABLE RESOURCES:

  deptflow://today     Today's check-in state
  deptflow://summary   30 day summary and rates`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := openTracker()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return mcp.NewServer(tracker, version).Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
