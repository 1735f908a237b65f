package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LISTEN_ADDR", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.HabitDBPath != "habits.db" || cfg.WebhookDBPath != "webhooks.db" || cfg.BotConfigDBPath != "bot_config.db" {
		t.Fatalf("unexpected database paths: %+v", cfg)
	}
	if cfg.LookupTimeout != 10*time.Second || cfg.LookupAttempts != 3 || cfg.ActionCooldown != 5*time.Second {
		t.Fatalf("unexpected lookup defaults: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
port = "9000"
habit_db_path = "/data/habits.db"
default_range_days = 14
discord_guild_id = "123"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("PORT", "")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("DISCORD_GUILD_ID", "456")
	t.Setenv("LOOKUP_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected port from file, got %q", cfg.ListenAddr)
	}
	if cfg.HabitDBPath != "/data/habits.db" || cfg.DefaultRangeDays != 14 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DiscordGuildID != "456" {
		t.Fatalf("expected env to override file, got %q", cfg.DiscordGuildID)
	}
	if cfg.LookupTimeout != 3*time.Second {
		t.Fatalf("unexpected lookup timeout %v", cfg.LookupTimeout)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("LOOKUP_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestRequireDiscordToken(t *testing.T) {
	if _, err := (AppConfig{}).RequireDiscordToken(); !errors.Is(err, ErrDiscordTokenMissing) {
		t.Fatalf("expected ErrDiscordTokenMissing, got %v", err)
	}
	token, err := (AppConfig{DiscordToken: " abc "}).RequireDiscordToken()
	if err != nil || token != "abc" {
		t.Fatalf("unexpected token %q err=%v", token, err)
	}
}
