package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/deptflow/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.uber.org/zap"
)

const (
	sessionHabitKey = "habit_id"
	sessionDaysKey  = "days"
	sessionAuthKey  = "authenticated"
)

// Options 汇总仪表盘的可选配置。
type Options struct {
	// PasswordHash 为空时不启用登录
	PasswordHash string
	DefaultDays  int
	Logger       *zap.Logger
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	tracker      *service.Tracker
	webhooks     *service.WebhookService
	passwordHash string
	defaultDays  int
	logger       *zap.Logger
	markdown     goldmark.Markdown
	sanitizer    *bluemonday.Policy
	now          func() time.Time
}

// NewAPI constructs a handler set with shared services.
func NewAPI(tracker *service.Tracker, webhooks *service.WebhookService, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	days := opts.DefaultDays
	if days <= 0 {
		days = service.DefaultRangeDays
	}

	return &API{
		tracker:      tracker,
		webhooks:     webhooks,
		passwordHash: strings.TrimSpace(opts.PasswordHash),
		defaultDays:  service.ClampRangeDays(days),
		logger:       logger.Named("dashboard"),
		markdown:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer:    bluemonday.UGCPolicy(),
		now:          time.Now,
	}
}

// AuthEnabled 表示是否配置了仪表盘密码。
func (a *API) AuthEnabled() bool {
	return a.passwordHash != ""
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["authEnabled"]; !exists {
		payload["authEnabled"] = a.AuthEnabled()
	}
	c.HTML(status, template, payload)
}

// selectedHabit 依次从查询参数、会话中读取当前习惯，查询参数会写入会话（由调用方保存）。
func (a *API) selectedHabit(c *gin.Context) uint {
	session := sessions.Default(c)
	if raw := strings.TrimSpace(c.Query("habit")); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			session.Set(sessionHabitKey, uint(id))
			return uint(id)
		}
	}
	if id, ok := session.Get(sessionHabitKey).(uint); ok {
		return id
	}
	return 0
}

// selectedDays 读取分析窗口，规则同 selectedHabit。
func (a *API) selectedDays(c *gin.Context) int {
	session := sessions.Default(c)
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil {
			days = service.ClampRangeDays(days)
			session.Set(sessionDaysKey, days)
			return days
		}
	}
	if days, ok := session.Get(sessionDaysKey).(int); ok {
		return service.ClampRangeDays(days)
	}
	return a.defaultDays
}

func (a *API) saveSession(c *gin.Context, session sessions.Session) {
	if err := session.Save(); err != nil {
		a.logger.Warn("failed to save session", zap.Error(err))
	}
}
