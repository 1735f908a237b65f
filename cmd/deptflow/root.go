package main

import (
	"fmt"

	"github.com/deptflow/internal/config"
	"github.com/deptflow/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string

	cfg    config.AppConfig
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "deptflow",
	Short: "Habit tracker dashboard and Discord action bot",
	Long: `DeptFLOW tracks daily habits and runs the department's Discord action bot.

QUICK START:

  $ deptflow habit add "Read 20 pages"   # Start tracking a habit
  $ deptflow checkin                     # Tick today's habits
  $ deptflow habit stats                 # Summary table for the last 30 days
  $ deptflow serve                       # Dashboard on :8080
  $ deptflow bot                         # Discord bot (needs DISCORD_TOKEN)
  $ deptflow run                         # Dashboard and bot together

CONFIGURATION:

  Settings come from $XDG_CONFIG_HOME/deptflow/config.toml (or --config,
  or DEPTFLOW_CONFIG), overridden by environment variables such as PORT,
  HABIT_DB_PATH, DISCORD_TOKEN and LOG_LEVEL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultPath()
		}

		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded

		built, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = built
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeStores()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.toml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
