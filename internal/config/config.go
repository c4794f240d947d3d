package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, e.g.
// REMINDME_SCHEDULER__INTERVAL=10 sets scheduler.interval.
const EnvPrefix = "REMINDME_"

type Config struct {
	Store     StoreConfig     `koanf:"store"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Notify    NotifyConfig    `koanf:"notify"`
	Log       LogConfig       `koanf:"log"`
	UI        UIConfig        `koanf:"ui"`
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

type SchedulerConfig struct {
	Interval int `koanf:"interval"` // seconds between due checks
}

type NotifyConfig struct {
	Title    string         `koanf:"title"`
	Desktop  bool           `koanf:"desktop"`
	Icon     string         `koanf:"icon"`
	Timeout  int            `koanf:"timeout"` // seconds allowed for notify + action
	Telegram TelegramConfig `koanf:"telegram"`
}

type TelegramConfig struct {
	BotToken string `koanf:"bot_token"`
	ChatID   string `koanf:"chat_id"`
}

// Enabled reports whether both Telegram credentials are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

type LogConfig struct {
	Level string `koanf:"level"`
	Path  string `koanf:"path"` // empty logs to stderr
}

type UIConfig struct {
	ColoredOutput bool `koanf:"colored_output"`
}

// Load merges defaults, the YAML file at configPath (if present), a .env
// file in the working directory (if present) and REMINDME_ variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(NewDefaultProvider(), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		configPath = expandPath(configPath)

		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.Log.Path = expandPath(cfg.Log.Path)

	return &cfg, nil
}

// envKey maps REMINDME_NOTIFY__TELEGRAM__BOT_TOKEN to notify.telegram.bot_token.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	// A reminder only matches during its minute, so every minute needs a check.
	if c.Scheduler.Interval < 1 || c.Scheduler.Interval > 60 {
		return fmt.Errorf("scheduler interval must be between 1 and 60 seconds, got %d", c.Scheduler.Interval)
	}

	if c.Notify.Title == "" {
		return fmt.Errorf("notification title is required")
	}

	if c.Notify.Timeout < 1 {
		return fmt.Errorf("notify timeout must be at least 1 second, got %d", c.Notify.Timeout)
	}

	tg := c.Notify.Telegram
	if (tg.BotToken == "") != (tg.ChatID == "") {
		return fmt.Errorf("telegram needs both bot_token and chat_id")
	}

	return nil
}

// CheckInterval returns the due-check interval as a duration.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Scheduler.Interval) * time.Second
}

// DispatchTimeout bounds the notification and action of one fired reminder.
func (c *Config) DispatchTimeout() time.Duration {
	return time.Duration(c.Notify.Timeout) * time.Second
}

func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}

	return path
}
