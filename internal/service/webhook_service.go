package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deptflow/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrWebhookNotFound 指定名称的 Webhook 不存在
	ErrWebhookNotFound = errors.New("webhook not found")
	// ErrWebhookExists 同一服务器下名称重复
	ErrWebhookExists = errors.New("webhook already exists")
	// ErrCommandNotFound 指定命令不存在
	ErrCommandNotFound = errors.New("command not found")
	// ErrCommandExists 同一 Webhook 下命令重复
	ErrCommandExists = errors.New("command already exists")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// CommandInput 描述新增命令时的字段
type CommandInput struct {
	CommandName    string
	MessageContent string
	Description    string
	CreatedBy      string
}

// WebhookService 管理 Webhook 注册表，并负责把命令内容投递到 Webhook
type WebhookService struct {
	db   *gorm.DB
	http httpDoer
}

// NewWebhookService 构造 WebhookService
func NewWebhookService(gdb *gorm.DB) *WebhookService {
	return &WebhookService{db: gdb, http: &http.Client{Timeout: 10 * time.Second}}
}

// SetHTTPClient 替换投递使用的 HTTP 客户端，传 nil 恢复默认
func (s *WebhookService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.http = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.http = client
}

// AddWebhook 登记新的 Webhook
func (s *WebhookService) AddWebhook(guildID, webhookURL, name string) (*db.Webhook, error) {
	guildID = strings.TrimSpace(guildID)
	name = strings.TrimSpace(name)
	webhookURL = strings.TrimSpace(webhookURL)
	if guildID == "" || name == "" {
		return nil, fmt.Errorf("guild id and name are required")
	}
	if parsed, err := url.Parse(webhookURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid webhook url %q", webhookURL)
	}

	if _, err := s.GetWebhook(guildID, name); err == nil {
		return nil, ErrWebhookExists
	} else if !errors.Is(err, ErrWebhookNotFound) {
		return nil, err
	}

	webhook := db.Webhook{GuildID: guildID, WebhookURL: webhookURL, Name: name}
	if err := s.db.Create(&webhook).Error; err != nil {
		return nil, fmt.Errorf("add webhook: %w", err)
	}
	return &webhook, nil
}

// GetWebhook 按服务器与名称查找
func (s *WebhookService) GetWebhook(guildID, name string) (*db.Webhook, error) {
	var webhook db.Webhook
	err := s.db.Where("guild_id = ? AND name = ?", strings.TrimSpace(guildID), strings.TrimSpace(name)).
		First(&webhook).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWebhookNotFound
		}
		return nil, fmt.Errorf("get webhook: %w", err)
	}
	return &webhook, nil
}

// ListWebhooks 列出服务器下的全部 Webhook
func (s *WebhookService) ListWebhooks(guildID string) ([]db.Webhook, error) {
	var webhooks []db.Webhook
	if err := s.db.Where("guild_id = ?", strings.TrimSpace(guildID)).Order("name ASC").Find(&webhooks).Error; err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return webhooks, nil
}

// DeleteWebhook 删除 Webhook 及其下全部命令
func (s *WebhookService) DeleteWebhook(guildID, name string) error {
	webhook, err := s.GetWebhook(guildID, name)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("webhook_id = ?", webhook.ID).Delete(&db.WebhookCommand{}).Error; err != nil {
			return fmt.Errorf("delete webhook commands: %w", err)
		}
		if err := tx.Delete(&db.Webhook{}, webhook.ID).Error; err != nil {
			return fmt.Errorf("delete webhook: %w", err)
		}
		return nil
	})
}

// AddCommand 在 Webhook 下新增命令，重复命令名返回 ErrCommandExists
func (s *WebhookService) AddCommand(webhookID uint, input CommandInput) (*db.WebhookCommand, error) {
	command := db.WebhookCommand{
		WebhookID:      webhookID,
		CommandName:    strings.TrimSpace(input.CommandName),
		MessageContent: strings.TrimSpace(input.MessageContent),
		Description:    strings.TrimSpace(input.Description),
		CreatedBy:      strings.TrimSpace(input.CreatedBy),
	}
	if command.CommandName == "" || command.MessageContent == "" || command.CreatedBy == "" {
		return nil, fmt.Errorf("command name, message and author are required")
	}

	if _, err := s.GetCommand(webhookID, command.CommandName); err == nil {
		return nil, ErrCommandExists
	} else if !errors.Is(err, ErrCommandNotFound) {
		return nil, err
	}

	if err := s.db.Create(&command).Error; err != nil {
		return nil, fmt.Errorf("add command: %w", err)
	}
	return &command, nil
}

// GetCommand 读取命令
func (s *WebhookService) GetCommand(webhookID uint, name string) (*db.WebhookCommand, error) {
	var command db.WebhookCommand
	err := s.db.Where("webhook_id = ? AND command_name = ?", webhookID, strings.TrimSpace(name)).First(&command).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommandNotFound
		}
		return nil, fmt.Errorf("get command: %w", err)
	}
	return &command, nil
}

// ListCommands 列出 Webhook 下的命令
func (s *WebhookService) ListCommands(webhookID uint) ([]db.WebhookCommand, error) {
	var commands []db.WebhookCommand
	if err := s.db.Where("webhook_id = ?", webhookID).Order("command_name ASC").Find(&commands).Error; err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	return commands, nil
}

// DeleteCommand 删除命令
func (s *WebhookService) DeleteCommand(webhookID uint, name string) error {
	result := s.db.Where("webhook_id = ? AND command_name = ?", webhookID, strings.TrimSpace(name)).
		Delete(&db.WebhookCommand{})
	if result.Error != nil {
		return fmt.Errorf("delete command: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommandNotFound
	}
	return nil
}

// Send 把命令内容投递到对应的 Discord Webhook
func (s *WebhookService) Send(ctx context.Context, guildID, webhookName, commandName string) error {
	webhook, err := s.GetWebhook(guildID, webhookName)
	if err != nil {
		return err
	}
	command, err := s.GetCommand(webhook.ID, commandName)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]string{"content": command.MessageContent})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhook.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "deptflow/1.0")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook %s: %w", webhook.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook %s returned %s: %s", webhook.Name, resp.Status, strings.TrimSpace(string(snippet)))
	}
	return nil
}
