package main

import (
	"github.com/deptflow/internal/db"
	"github.com/deptflow/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 命令运行期间打开的数据库，在 PersistentPostRun 中统一关闭
var opened []*gorm.DB

func dbOptions() db.Options {
	return db.Options{Silent: cfg.LogLevel != "debug"}
}

func track(gdb *gorm.DB, err error) (*gorm.DB, error) {
	if err != nil {
		return nil, err
	}
	opened = append(opened, gdb)
	return gdb, nil
}

func openTracker() (*service.Tracker, error) {
	gdb, err := track(db.OpenHabits(cfg.HabitDBPath, dbOptions()))
	if err != nil {
		return nil, err
	}
	return service.NewTracker(gdb), nil
}

func openWebhooks() (*service.WebhookService, error) {
	gdb, err := track(db.OpenWebhooks(cfg.WebhookDBPath, dbOptions()))
	if err != nil {
		return nil, err
	}
	return service.NewWebhookService(gdb), nil
}

func openGuildConfigs() (*service.GuildConfigService, error) {
	gdb, err := track(db.OpenBotConfig(cfg.BotConfigDBPath, dbOptions()))
	if err != nil {
		return nil, err
	}
	return service.NewGuildConfigService(gdb), nil
}

func closeStores() {
	for _, gdb := range opened {
		if err := db.Close(gdb); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
	opened = nil
}
