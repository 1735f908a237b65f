package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dashboard and the Discord bot together",
	Long: `Run the dashboard and the Discord bot in one process.
If either stops with an error the other is shut down as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 先校验令牌，避免仪表盘已启动后才发现机器人无法运行
		runBot, err := newBot()
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return runServer(gctx)
		})
		g.Go(func() error {
			return runBot(gctx)
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
