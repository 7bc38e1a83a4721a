package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DatabaseURL      string
	MigrationsPath   string
	LogLevel         string
	Port             string
	Timezone         string
	ReminderSyncSpec string
	TelegramToken    string
	TelegramChatID   int64
}

// Load loads configuration from a .env file (when present) and the
// environment. Only the Telegram pair is validated as a unit; everything
// else has a sensible default.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:      getEnvOrDefault("DATABASE_URL", "schedulo.db"),
		MigrationsPath:   getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:         getEnvOrDefault("LOG_LEVEL", "info"),
		Port:             getEnvOrDefault("PORT", "8080"),
		Timezone:         os.Getenv("DEFAULT_TIMEZONE"),
		ReminderSyncSpec: getEnvOrDefault("REMINDER_SYNC_INTERVAL", "*/5 * * * *"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		chatID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramChatID = chatID
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_TOKEN is set")
	}

	return cfg, nil
}

// Location resolves the configured timezone, defaulting to the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
