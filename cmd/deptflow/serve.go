package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deptflow/internal/handler"
	"github.com/deptflow/internal/router"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the habit tracker dashboard",
	Long: `Start the web dashboard: daily check-in, habit management, analytics
charts, export and the webhook registry, plus the JSON API under /api.

Set dashboard_password_hash (see 'deptflow hash-password') to require a login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newDashboard() (http.Handler, error) {
	tracker, err := openTracker()
	if err != nil {
		return nil, err
	}
	webhooks, err := openWebhooks()
	if err != nil {
		return nil, err
	}

	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	default:
		logger.Warn("unknown gin mode, using release", zap.String("gin_mode", cfg.GinMode))
		gin.SetMode(gin.ReleaseMode)
	}

	api := handler.NewAPI(tracker, webhooks, handler.Options{
		PasswordHash: cfg.DashboardPasswordHash,
		DefaultDays:  cfg.DefaultRangeDays,
		Logger:       logger.Named("http"),
	})
	return router.SetupRouter(api, cfg.SessionSecret, logger.Named("http"))
}

// runServer 启动 HTTP 服务并在 ctx 结束时优雅关闭
func runServer(ctx context.Context) error {
	engine, err := newDashboard()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("dashboard listening",
		zap.String("addr", cfg.ListenAddr),
		zap.Bool("auth", cfg.DashboardPasswordHash != ""),
	)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
