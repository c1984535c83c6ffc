package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Bot       BotConfig       `mapstructure:"bot"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
}

// GatewayConfig holds the connection to the chat-platform gateway sidecar
type GatewayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// BotConfig holds chat-platform bot configuration
type BotConfig struct {
	Token          string   `mapstructure:"token"`
	BotUserID      string   `mapstructure:"bot_user_id"`
	AckEmoji       string   `mapstructure:"ack_emoji"`
	DeleteEmojis   []string `mapstructure:"delete_emojis"`
	LegacyChannels []string `mapstructure:"legacy_channels"`
}

// RateLimitConfig holds per-user command rate limiting configuration
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxRequests   int           `mapstructure:"max_requests"`
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CacheConfig holds look-aside cache configuration
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	TTLSeconds int  `mapstructure:"ttl_seconds"`
}

// WebhookConfig holds outbound link-ingestion webhook configuration
type WebhookConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	setDefaults()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Environment variables override config file
	viper.AutomaticEnv()

	// Bind environment variables
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("bot.ack_emoji", "✅")
	viper.SetDefault("bot.delete_emojis", []string{"🗑️", "❌"})

	viper.SetDefault("ratelimit.enabled", true)
	viper.SetDefault("ratelimit.max_requests", 5)
	viper.SetDefault("ratelimit.window", "1m")
	viper.SetDefault("ratelimit.sweep_interval", "5m")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.ttl_seconds", 60)

	viper.SetDefault("webhook.enabled", false)
	viper.SetDefault("webhook.timeout", "10s")

	viper.SetDefault("gateway.url", "http://localhost:9090")
	viper.SetDefault("gateway.timeout", "15s")
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	// Server
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	// Database
	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	// Bot
	viper.BindEnv("bot.token", "BOT_TOKEN")
	viper.BindEnv("bot.bot_user_id", "BOT_USER_ID")
	viper.BindEnv("bot.ack_emoji", "BOT_ACK_EMOJI")

	// Rate limiting
	viper.BindEnv("ratelimit.enabled", "RATELIMIT_ENABLED")
	viper.BindEnv("ratelimit.max_requests", "RATELIMIT_MAX_REQUESTS")
	viper.BindEnv("ratelimit.window", "RATELIMIT_WINDOW")
	viper.BindEnv("ratelimit.sweep_interval", "RATELIMIT_SWEEP_INTERVAL")

	// Cache
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.ttl_seconds", "CACHE_TTL_SECONDS")

	// Webhook
	viper.BindEnv("webhook.enabled", "WEBHOOK_ENABLED")
	viper.BindEnv("webhook.url", "WEBHOOK_URL")
	viper.BindEnv("webhook.timeout", "WEBHOOK_TIMEOUT")

	// Gateway
	viper.BindEnv("gateway.url", "GATEWAY_URL")
	viper.BindEnv("gateway.timeout", "GATEWAY_TIMEOUT")
}

// GetDSN returns the database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user, and dbname are required")
	}

	if c.Bot.Token == "" {
		return fmt.Errorf("bot token is required")
	}
	if c.Bot.AckEmoji == "" {
		return fmt.Errorf("acknowledgment emoji is required")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.MaxRequests <= 0 {
			return fmt.Errorf("rate limit max requests must be greater than 0")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be greater than 0")
		}
	}

	if c.Webhook.Enabled && c.Webhook.URL == "" {
		return fmt.Errorf("webhook URL is required when webhook delivery is enabled")
	}

	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway URL is required")
	}

	return nil
}
