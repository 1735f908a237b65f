package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrDiscordTokenMissing 表示启动机器人所需的凭据缺失
var ErrDiscordTokenMissing = errors.New("DISCORD_TOKEN is not set")

// AppConfig 汇总运行仪表盘与机器人所需的配置。
// 取值优先级：环境变量 > 配置文件 > 默认值。
type AppConfig struct {
	ListenAddr            string        `toml:"listen_addr"`
	Port                  string        `toml:"port"`
	HabitDBPath           string        `toml:"habit_db_path"`
	WebhookDBPath         string        `toml:"webhook_db_path"`
	BotConfigDBPath       string        `toml:"bot_config_db_path"`
	SessionSecret         string        `toml:"session_secret"`
	GinMode               string        `toml:"gin_mode"`
	DashboardPasswordHash string        `toml:"dashboard_password_hash"`
	DefaultRangeDays      int           `toml:"default_range_days"`
	LogLevel              string        `toml:"log_level"`
	LogFormat             string        `toml:"log_format"`
	DiscordToken          string        `toml:"discord_token"`
	DiscordGuildID        string        `toml:"discord_guild_id"`
	RobloxUsersURL        string        `toml:"roblox_users_url"`
	RobloxThumbnailsURL   string        `toml:"roblox_thumbnails_url"`
	LookupTimeout         time.Duration `toml:"lookup_timeout"`
	LookupAttempts        int           `toml:"lookup_attempts"`
	ActionCooldown        time.Duration `toml:"action_cooldown"`
}

// Default 返回默认配置。
func Default() AppConfig {
	return AppConfig{
		Port:                "8080",
		HabitDBPath:         "habits.db",
		WebhookDBPath:       "webhooks.db",
		BotConfigDBPath:     "bot_config.db",
		SessionSecret:       "deptflow-dev-secret",
		GinMode:             "release",
		DefaultRangeDays:    30,
		LogLevel:            "info",
		LogFormat:           "console",
		RobloxUsersURL:      "https://users.roblox.com",
		RobloxThumbnailsURL: "https://thumbnails.roblox.com",
		LookupTimeout:       10 * time.Second,
		LookupAttempts:      3,
		ActionCooldown:      5 * time.Second,
	}
}

// DefaultPath 返回遵循 XDG 约定的配置文件路径。
func DefaultPath() string {
	if explicit := strings.TrimSpace(os.Getenv("DEPTFLOW_CONFIG")); explicit != "" {
		return explicit
	}
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "deptflow", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "deptflow", "config.toml")
}

// Load 读取 path 指向的 TOML 文件（不存在时忽略），再用环境变量覆盖。
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.DefaultRangeDays <= 0 {
		cfg.DefaultRangeDays = 30
	}
	if cfg.LookupAttempts <= 0 {
		cfg.LookupAttempts = 3
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 10 * time.Second
	}

	return cfg, nil
}

// RequireDiscordToken 在机器人启动前校验凭据。
func (c AppConfig) RequireDiscordToken() (string, error) {
	token := strings.TrimSpace(c.DiscordToken)
	if token == "" {
		return "", fmt.Errorf("%w: export DISCORD_TOKEN or set discord_token in %s", ErrDiscordTokenMissing, DefaultPath())
	}
	return token, nil
}

func applyEnv(cfg *AppConfig) error {
	stringVars := map[string]*string{
		"LISTEN_ADDR":             &cfg.ListenAddr,
		"PORT":                    &cfg.Port,
		"HABIT_DB_PATH":           &cfg.HabitDBPath,
		"WEBHOOK_DB_PATH":         &cfg.WebhookDBPath,
		"BOT_CONFIG_DB_PATH":      &cfg.BotConfigDBPath,
		"SESSION_SECRET":          &cfg.SessionSecret,
		"GIN_MODE":                &cfg.GinMode,
		"DASHBOARD_PASSWORD_HASH": &cfg.DashboardPasswordHash,
		"LOG_LEVEL":               &cfg.LogLevel,
		"LOG_FORMAT":              &cfg.LogFormat,
		"DISCORD_TOKEN":           &cfg.DiscordToken,
		"DISCORD_GUILD_ID":        &cfg.DiscordGuildID,
		"ROBLOX_USERS_URL":        &cfg.RobloxUsersURL,
		"ROBLOX_THUMBNAILS_URL":   &cfg.RobloxThumbnailsURL,
	}
	for key, dst := range stringVars {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*dst = value
		}
	}

	if value := strings.TrimSpace(os.Getenv("DEFAULT_RANGE_DAYS")); value != "" {
		days, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("DEFAULT_RANGE_DAYS: %w", err)
		}
		cfg.DefaultRangeDays = days
	}
	if value := strings.TrimSpace(os.Getenv("LOOKUP_ATTEMPTS")); value != "" {
		attempts, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("LOOKUP_ATTEMPTS: %w", err)
		}
		cfg.LookupAttempts = attempts
	}

	durations := map[string]*time.Duration{
		"LOOKUP_TIMEOUT":  &cfg.LookupTimeout,
		"ACTION_COOLDOWN": &cfg.ActionCooldown,
	}
	for key, dst := range durations {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	return nil
}
