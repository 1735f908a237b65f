package db

import "time"

// GuildConfig 存储每个服务器的机器人设置，一个服务器一行。
type GuildConfig struct {
	GuildID      string  `gorm:"primaryKey;size:32"`
	LogChannelID string  `gorm:"size:32;not null"`
	ManageRoleID string  `gorm:"size:32;not null"`
	ALMessage    *string `gorm:"column:al_message;type:text"`
	UpdatedAt    time.Time
}

// TableName 保持与历史库一致。
func (GuildConfig) TableName() string {
	return "bot_config"
}
