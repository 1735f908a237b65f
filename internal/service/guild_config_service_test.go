package service

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/deptflow/internal/db"
)

func TestGuildConfigSaveAndGet(t *testing.T) {
	gdb, err := db.OpenBotConfig(filepath.Join(t.TempDir(), "bot_config.db"), db.Options{Silent: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })

	svc := NewGuildConfigService(gdb)

	if _, err := svc.Get("g1"); !errors.Is(err, ErrGuildNotConfigured) {
		t.Fatalf("expected ErrGuildNotConfigured, got %v", err)
	}

	if _, err := svc.Save(GuildConfigInput{GuildID: "g1", LogChannelID: "c1", ManageRoleID: "r1", ALMessage: "on leave"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	cfg, err := svc.Get("g1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if cfg.LogChannelID != "c1" || cfg.ManageRoleID != "r1" || cfg.ALMessage == nil || *cfg.ALMessage != "on leave" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	// 再次保存覆盖，空消息清空旧值
	if _, err := svc.Save(GuildConfigInput{GuildID: "g1", LogChannelID: "c2", ManageRoleID: "r2"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	cfg, _ = svc.Get("g1")
	if cfg.LogChannelID != "c2" || cfg.ManageRoleID != "r2" || cfg.ALMessage != nil {
		t.Fatalf("expected overwrite, got %+v", cfg)
	}

	var count int64
	gdb.Model(&db.GuildConfig{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected one row per guild, got %d", count)
	}

	if _, err := svc.Save(GuildConfigInput{GuildID: "g2"}); err == nil {
		t.Fatal("expected validation error")
	}
}
