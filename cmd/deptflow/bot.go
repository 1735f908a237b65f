package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/deptflow/internal/bot"
	"github.com/deptflow/internal/roblox"
	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Discord action bot",
	Long: `Connect to Discord and serve the /setup, /action and /roblox slash commands.

The bot token comes from DISCORD_TOKEN or discord_token in the config file.
Set DISCORD_GUILD_ID to register commands on a single server; leave it empty to
register them globally.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner, err := newBot()
		if err != nil {
			return err
		}
		return runner(ctx)
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}

// newBot 校验令牌并组装机器人，返回阻塞运行的函数
func newBot() (func(context.Context) error, error) {
	token, err := cfg.RequireDiscordToken()
	if err != nil {
		return nil, err
	}

	configs, err := openGuildConfigs()
	if err != nil {
		return nil, err
	}

	avatars := roblox.New(roblox.Config{
		UsersBaseURL:      cfg.RobloxUsersURL,
		ThumbnailsBaseURL: cfg.RobloxThumbnailsURL,
		Attempts:          cfg.LookupAttempts,
		Timeout:           cfg.LookupTimeout,
	}, logger.Named("roblox"))

	b, err := bot.New(bot.Deps{
		Configs:  configs,
		Avatars:  avatars,
		Logger:   logger.Named("bot"),
		Cooldown: cfg.ActionCooldown,
	})
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context) error {
		return b.Run(ctx, token, cfg.DiscordGuildID)
	}, nil
}
