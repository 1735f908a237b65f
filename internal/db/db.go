package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 三个独立的单文件数据库，分别承载习惯数据、Webhook 注册表与机器人服务器设置。
const (
	DefaultHabitPath     = "habits.db"
	DefaultWebhookPath   = "webhooks.db"
	DefaultBotConfigPath = "bot_config.db"
)

// Options 控制数据库连接行为。
type Options struct {
	// Silent 关闭 gorm 的 SQL 日志，测试与 CLI 场景使用。
	Silent bool
}

// Open 打开 path 指向的 SQLite 文件并对给定模型执行自动迁移。
// 父目录不存在时会自动创建，外键约束始终开启。
func Open(path string, opts Options, models ...any) (*gorm.DB, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("database path is required")
	}

	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	cfg := &gorm.Config{}
	if opts.Silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}

	gdb, err := gorm.Open(sqlite.Open(withForeignKeys(path)), cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if len(models) > 0 {
		if err := gdb.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", path, err)
		}
	}

	return gdb, nil
}

// OpenHabits 打开习惯库（habits + habit_logs）。
func OpenHabits(path string, opts Options) (*gorm.DB, error) {
	return Open(path, opts, &Habit{}, &HabitLog{})
}

// OpenWebhooks 打开 Webhook 注册表（webhooks + commands）。
func OpenWebhooks(path string, opts Options) (*gorm.DB, error) {
	return Open(path, opts, &Webhook{}, &WebhookCommand{})
}

// OpenBotConfig 打开机器人服务器设置库。
func OpenBotConfig(path string, opts Options) (*gorm.DB, error) {
	return Open(path, opts, &GuildConfig{})
}

// Close 释放底层连接，nil 安全。
func Close(gdb *gorm.DB) error {
	if gdb == nil {
		return nil
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withForeignKeys(path string) string {
	if strings.Contains(path, "_foreign_keys=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on"
}

func ensureParentDir(path string) error {
	if strings.HasPrefix(path, "file:") {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return errors.New("database path parent is not a directory")
		}
		return nil
	}

	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}

	return err
}
