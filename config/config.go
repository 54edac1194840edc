package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the application-wide configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Bot      BotConfig      `mapstructure:"bot"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings for the chat webhook.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// Storage backend identifiers.
const (
	StorageSQLite = "sqlite"
	StorageSheets = "google_sheets"
)

// StorageConfig selects and configures the shift store backend.
type StorageConfig struct {
	Type   string       `mapstructure:"type"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Sheets SheetsConfig `mapstructure:"sheets"`
}

// SQLiteConfig configures the local relational backend.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// SheetsConfig configures the remote Google Sheets backend.
// Credentials is the raw service-account JSON (typically injected via
// TANUKI_STORAGE_SHEETS_CREDENTIALS); CredentialsFile is an alternative
// path on disk. SpreadsheetID identifies the document, Worksheet the tab.
type SheetsConfig struct {
	Credentials     string `mapstructure:"credentials"`
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	Worksheet       string `mapstructure:"worksheet"`
}

// RedisConfig configures the optional persistent session store.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// BotConfig holds conversation-layer settings.
type BotConfig struct {
	// OwnerChatID is the single operator's chat; reminders go there.
	OwnerChatID int64 `mapstructure:"owner_chat_id"`
	// OutboundURL is the chat platform adapter endpoint replies are
	// pushed to. Empty disables outbound push (replies are still
	// returned in the webhook response).
	OutboundURL string        `mapstructure:"outbound_url"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
	// ChunkDelay is the pacing delay between multi-part replies.
	ChunkDelay time.Duration `mapstructure:"chunk_delay"`
}

// ReminderConfig holds the daily reminder schedule.
type ReminderConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Timezone string `mapstructure:"timezone"`
	Morning  string `mapstructure:"morning"` // cron spec
	Evening  string `mapstructure:"evening"` // cron spec
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment.
// Precedence: environment variables > config file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)

	v.SetDefault("storage.type", StorageSheets)
	v.SetDefault("storage.sqlite.path", "shifts.db")
	v.SetDefault("storage.sheets.worksheet", "Смены")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("bot.owner_chat_id", 0)
	v.SetDefault("bot.outbound_url", "")
	v.SetDefault("bot.session_ttl", "30m")
	v.SetDefault("bot.chunk_delay", "500ms")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.timezone", "Europe/Moscow")
	v.SetDefault("reminder.morning", "0 10 * * *")
	v.SetDefault("reminder.evening", "0 22 * * *")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TANUKI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// No config file: defaults plus environment are enough.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants that would otherwise surface
// as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	switch c.Storage.Type {
	case StorageSQLite, StorageSheets:
	default:
		return fmt.Errorf("config: unknown storage.type %q (want %q or %q)",
			c.Storage.Type, StorageSQLite, StorageSheets)
	}
	// An unconfigured Sheets backend is not rejected here: startup
	// falls back to SQLite when the remote store cannot be built.
	return nil
}
