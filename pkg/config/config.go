package config

import (
	"fmt"
	"time"

	appredis "github.com/Proton-105/fish-shop-bot/pkg/redis"
)

// Config holds runtime configuration for the shop bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot"`
	Commerce  CommerceConfig  `mapstructure:"commerce"`
	Redis     appredis.Config `mapstructure:"redis"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Server    ServerConfig    `mapstructure:"server"`
	Locale    LocaleConfig    `mapstructure:"locale"`
}

// BotConfig configures the Telegram transport and the conversation engine.
type BotConfig struct {
	Token          string        `mapstructure:"token" validate:"required"`
	Mode           string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout        time.Duration `mapstructure:"timeout"`
	WebhookListen  string        `mapstructure:"webhook_listen" validate:"required_if=Mode webhook"`
	WebhookURL     string        `mapstructure:"webhook_url" validate:"omitempty,url"`
	Workers        int           `mapstructure:"workers" validate:"min=1"`
	QueueSize      int           `mapstructure:"queue_size" validate:"min=1"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"gt=0"`
	FailurePolicy  string        `mapstructure:"failure_policy" validate:"oneof=silent notify"`
}

// CommerceConfig configures the e-commerce backend and its credentials.
type CommerceConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,url"`
	ClientID     string        `mapstructure:"client_id" validate:"required"`
	ClientSecret string        `mapstructure:"client_secret"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	TokenMargin  time.Duration `mapstructure:"token_margin" validate:"min=0"`
}

// GrantType picks client_credentials when a secret is configured.
func (c CommerceConfig) GrantType() string {
	if c.ClientSecret != "" {
		return "client_credentials"
	}
	return "implicit"
}

// PostgresConfig configures the optional customer registry.
type PostgresConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name" validate:"required_if=Enabled true"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// DSN returns the PostgreSQL connection URL.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
	)
}

// SessionConfig configures session persistence and idle cleanup.
type SessionConfig struct {
	TTL         time.Duration `mapstructure:"ttl" validate:"min=0"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
	CleanupCron string        `mapstructure:"cleanup_cron"`
}

// RateLimitConfig configures the per-chat limiter.
type RateLimitConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Limit     int           `mapstructure:"limit" validate:"min=0"`
	Window    time.Duration `mapstructure:"window"`
	Whitelist []int64       `mapstructure:"whitelist"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=text json"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LocaleConfig struct {
	Default string `mapstructure:"default" validate:"oneof=en ru"`
}
