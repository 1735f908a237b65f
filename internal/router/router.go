package router

import (
	"fmt"
	"html/template"
	"time"

	"github.com/deptflow/internal/handler"
	"github.com/deptflow/internal/logging"
	"github.com/deptflow/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TemplateFuncs 返回页面模板使用的辅助函数
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02")
		},
		"pct": func(rate float64) string {
			return fmt.Sprintf("%.1f%%", rate*100)
		},
		"deref": func(v *float64) float64 {
			if v == nil {
				return 0
			}
			return *v
		},
	}
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string, logger *zap.Logger) (*gin.Engine, error) {
	r := gin.New()
	r.Use(logging.RequestLogger(logger), gin.Recovery())

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 7 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions("deptflow_session", store))

	tmpl, err := web.Templates(TemplateFuncs())
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", api.Login)
	r.GET("/logout", api.Logout)

	auth := r.Group("")
	auth.Use(api.AuthRequired())
	{
		auth.GET("/", api.Home)
		auth.GET("/checkin", api.ShowCheckIn)
		auth.POST("/checkin", api.SubmitCheckIn)
		auth.GET("/habits", api.ShowHabits)
		auth.POST("/habits", api.CreateHabitForm)
		auth.POST("/habits/:id/rename", api.RenameHabitForm)
		auth.POST("/habits/:id/delete", api.DeleteHabitForm)
		auth.GET("/analytics", api.ShowAnalytics)
		auth.GET("/export", api.ShowExport)
		auth.GET("/export/download", api.Export)
		auth.GET("/webhooks", api.ShowWebhooks)

		// API路由
		apiGroup := auth.Group("/api")
		{
			apiGroup.GET("/habits", api.ListHabits)
			apiGroup.POST("/habits", api.CreateHabit)
			apiGroup.PUT("/habits/:id", api.RenameHabit)
			apiGroup.DELETE("/habits/:id", api.DeleteHabit)
			apiGroup.PUT("/habits/:id/logs", api.UpsertLog)
			apiGroup.GET("/habits/:id/analytics", api.GetAnalytics)
			apiGroup.GET("/habits/:id/charts/weekly.png", api.WeeklyChart)
			apiGroup.GET("/habits/:id/charts/heatmap.png", api.HeatmapChart)
			apiGroup.GET("/habits/:id/charts/daily.png", api.DailyChart)

			apiGroup.GET("/logs", api.QueryLogs)
			apiGroup.POST("/checkin", api.CheckIn)
			apiGroup.GET("/overview", api.GetOverview)
			apiGroup.GET("/summary", api.GetSummary)
			apiGroup.GET("/charts/daily.png", api.OverviewChart)
			apiGroup.GET("/export", api.Export)

			apiGroup.GET("/webhooks", api.ListWebhooks)
			apiGroup.POST("/webhooks/send", api.SendWebhookCommand)
		}
	}

	return r, nil
}
