// Package config manages application configuration from a YAML file,
// BOT_* environment variables, and default values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN) or
// through the YAML config file.
type Config struct {
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Index     IndexConfig     `mapstructure:"index"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Search    SearchConfig    `mapstructure:"search"`
	Messages  MessagesConfig  `mapstructure:"messages"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// TelegramConfig holds transport settings. BotInfo is resolved at startup
// via GetMe and is not read from configuration.
type TelegramConfig struct {
	Token   string       `mapstructure:"token" validate:"required"`
	BotInfo *models.User `mapstructure:"-"`
}

// LoggerConfig controls log verbosity and output format.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig locates the SQLite file backing the enabled-chat registry.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// IndexConfig locates the Bleve index directory holding the messages.
type IndexConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// AuthConfig controls the per-user authorization cache.
type AuthConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"min=1s"`
}

// SearchConfig controls inline query answering.
type SearchConfig struct {
	MaxHits   int `mapstructure:"max_hits"   validate:"min=1,max=50"`
	CacheTime int `mapstructure:"cache_time" validate:"min=0"`
}

// MessagesConfig holds user-visible bot replies.
type MessagesConfig struct {
	Help string `mapstructure:"help" validate:"required"`
}

// SchedulerConfig maps task names to their schedules.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

const defaultHelpMessage = "These commands are supported:\n" +
	"/help — Display this text.\n" +
	"/start — Start to log messages in this chat. Privilege is needed for this operation.\n" +
	"/stop — Stop to log messages in this chat. Privilege is needed for this operation.\n\n" +
	"Search logged chats by typing @botname followed by your query in any chat."

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The config file at configPath (missing file is not an error)
// 3. BOT_* environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, we'll use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values for optional configuration parameters.
func setDefaults(v *viper.Viper) {
	// Registered so AutomaticEnv can populate the key from BOT_TELEGRAM_TOKEN
	// even without a config file; validation still rejects an empty token.
	v.SetDefault("telegram.token", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.json", false)

	v.SetDefault("database.path", "./data/registry.db")
	v.SetDefault("index.path", "./data/messages.bleve")

	v.SetDefault("auth.cache_ttl", 120*time.Second)

	v.SetDefault("search.max_hits", 25)
	v.SetDefault("search.cache_time", 10)

	v.SetDefault("messages.help", defaultHelpMessage)
}
