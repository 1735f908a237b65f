package db

import "time"

// Webhook 描述某个服务器下登记的 Discord Webhook
type Webhook struct {
	ID         uint   `gorm:"primaryKey"`
	GuildID    string `gorm:"size:32;not null;uniqueIndex:idx_webhook_guild_name"`
	WebhookURL string `gorm:"not null"`
	Name       string `gorm:"size:100;not null;uniqueIndex:idx_webhook_guild_name"`
	CreatedAt  time.Time
}

// TableName 固定表名
func (Webhook) TableName() string {
	return "webhooks"
}

// WebhookCommand 是挂在 Webhook 下的预设消息
// WebhookID + CommandName 唯一
type WebhookCommand struct {
	ID             uint    `gorm:"primaryKey"`
	WebhookID      uint    `gorm:"not null;uniqueIndex:idx_command_webhook_name"`
	Webhook        Webhook `gorm:"constraint:OnDelete:CASCADE"`
	CommandName    string  `gorm:"size:100;not null;uniqueIndex:idx_command_webhook_name"`
	MessageContent string  `gorm:"type:text;not null"`
	Description    string
	CreatedBy      string `gorm:"not null"`
	CreatedAt      time.Time
}

// TableName 固定表名
func (WebhookCommand) TableName() string {
	return "commands"
}
