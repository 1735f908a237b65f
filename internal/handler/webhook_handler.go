package handler

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/deptflow/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type webhookView struct {
	Name      string
	CreatedAt time.Time
	Commands  []commandView
}

type commandView struct {
	Name        string
	Description string
	CreatedBy   string
	Body        template.HTML
}

// ShowWebhooks 渲染某个服务器登记的 Webhook 与命令，命令内容按 Markdown 渲染后再过滤
func (a *API) ShowWebhooks(c *gin.Context) {
	guild := strings.TrimSpace(c.Query("guild"))
	data := gin.H{"title": "Webhooks", "guild": guild}
	if guild == "" || a.webhooks == nil {
		a.renderHTML(c, http.StatusOK, "webhooks.html", data)
		return
	}

	views, err := a.webhookViews(guild)
	if err != nil {
		a.renderPageError(c, "Webhooks", err)
		return
	}
	data["webhooks"] = views
	a.renderHTML(c, http.StatusOK, "webhooks.html", data)
}

// ListWebhooks 返回某个服务器的 Webhook 与命令 JSON，不包含 Webhook 地址
func (a *API) ListWebhooks(c *gin.Context) {
	guild := strings.TrimSpace(c.Query("guild"))
	if guild == "" {
		respondError(c, http.StatusBadRequest, "guild is required")
		return
	}
	if a.webhooks == nil {
		c.JSON(http.StatusOK, gin.H{"webhooks": []gin.H{}})
		return
	}

	hooks, err := a.webhooks.ListWebhooks(guild)
	if err != nil {
		a.logger.Error("list webhooks", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "failed to list webhooks")
		return
	}

	items := make([]gin.H, 0, len(hooks))
	for _, hook := range hooks {
		commands, err := a.webhooks.ListCommands(hook.ID)
		if err != nil {
			a.logger.Error("list commands", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "failed to list commands")
			return
		}
		names := make([]string, 0, len(commands))
		for _, cmd := range commands {
			names = append(names, cmd.CommandName)
		}
		items = append(items, gin.H{"name": hook.Name, "commands": names})
	}
	c.JSON(http.StatusOK, gin.H{"webhooks": items})
}

// SendWebhookCommand 把命令内容投递到 Webhook
func (a *API) SendWebhookCommand(c *gin.Context) {
	if a.webhooks == nil {
		respondError(c, http.StatusNotFound, "webhook registry is not configured")
		return
	}

	var payload struct {
		Guild   string `json:"guild"`
		Webhook string `json:"webhook"`
		Command string `json:"command"`
	}
	if !bindJSON(c, &payload, "invalid request body") {
		return
	}

	err := a.webhooks.Send(c.Request.Context(), payload.Guild, payload.Webhook, payload.Command)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"sent": true})
	case errors.Is(err, service.ErrWebhookNotFound), errors.Is(err, service.ErrCommandNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		a.logger.Error("send webhook command", zap.Error(err))
		respondError(c, http.StatusBadGateway, "failed to deliver webhook message")
	}
}

func (a *API) webhookViews(guild string) ([]webhookView, error) {
	hooks, err := a.webhooks.ListWebhooks(guild)
	if err != nil {
		return nil, err
	}

	views := make([]webhookView, 0, len(hooks))
	for _, hook := range hooks {
		commands, err := a.webhooks.ListCommands(hook.ID)
		if err != nil {
			return nil, err
		}
		view := webhookView{Name: hook.Name, CreatedAt: hook.CreatedAt}
		for _, cmd := range commands {
			view.Commands = append(view.Commands, commandView{
				Name:        cmd.CommandName,
				Description: cmd.Description,
				CreatedBy:   cmd.CreatedBy,
				Body:        a.renderMarkdown(cmd.MessageContent),
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// renderMarkdown 把 Discord 风格的 Markdown 转为经过 UGC 策略过滤的 HTML
func (a *API) renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := a.markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(a.sanitizer.SanitizeBytes(buf.Bytes()))
}
