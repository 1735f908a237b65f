package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/deptflow/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrGuildNotConfigured 表示服务器尚未执行 /setup
var ErrGuildNotConfigured = errors.New("guild not configured")

// GuildConfigInput 定义 /setup 可写入的字段
type GuildConfigInput struct {
	GuildID      string
	LogChannelID string
	ManageRoleID string
	ALMessage    string
}

// GuildConfigService 读写每个服务器的机器人设置，写入按服务器覆盖（后写者胜）
type GuildConfigService struct {
	db *gorm.DB
}

// NewGuildConfigService 构造 GuildConfigService
func NewGuildConfigService(gdb *gorm.DB) *GuildConfigService {
	return &GuildConfigService{db: gdb}
}

// Save 保存服务器设置
func (s *GuildConfigService) Save(input GuildConfigInput) (*db.GuildConfig, error) {
	record := db.GuildConfig{
		GuildID:      strings.TrimSpace(input.GuildID),
		LogChannelID: strings.TrimSpace(input.LogChannelID),
		ManageRoleID: strings.TrimSpace(input.ManageRoleID),
	}
	if record.GuildID == "" || record.LogChannelID == "" || record.ManageRoleID == "" {
		return nil, fmt.Errorf("guild, log channel and manage role are required")
	}
	if msg := strings.TrimSpace(input.ALMessage); msg != "" {
		record.ALMessage = &msg
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"log_channel_id", "manage_role_id", "al_message", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return nil, fmt.Errorf("save guild config: %w", err)
	}
	return &record, nil
}

// Get 读取服务器设置，未配置时返回 ErrGuildNotConfigured
func (s *GuildConfigService) Get(guildID string) (*db.GuildConfig, error) {
	var record db.GuildConfig
	if err := s.db.Where("guild_id = ?", strings.TrimSpace(guildID)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGuildNotConfigured
		}
		return nil, fmt.Errorf("get guild config: %w", err)
	}
	return &record, nil
}
