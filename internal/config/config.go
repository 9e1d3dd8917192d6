// Package config загружает настройки бота из .env и переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config - настройки приложения.
type Config struct {
	Environment string
	Bot         BotConfig
	Database    DatabaseConfig
	Log         LogConfig
	Sessions    SessionConfig
	Mirror      MirrorConfig
	// Сколько обновлений обрабатывается одновременно
	WorkerLimit int `validate:"min=1"`
}

// BotConfig - настройки Telegram. Без URL вебхука бот работает через polling.
type BotConfig struct {
	Token      string `validate:"required"`
	WebhookURL string `validate:"omitempty,url"`
	HTTPPort   string `validate:"required,numeric"`
}

// DatabaseConfig - диалект и подключение.
type DatabaseConfig struct {
	Driver string `validate:"oneof=sqlite mysql postgres"`
	// Файл SQLite; не используется, если задан DSN
	Path string `validate:"required_if=Driver sqlite"`
	// DSN важнее остальных полей для любого драйвера
	DSN string `validate:"required_if=Driver postgres"`

	// Части DSN для MySQL, если DSN пуст
	Host     string
	Port     string
	Username string
	Password string
	Name     string
}

type LogConfig struct {
	Level  string `validate:"omitempty,oneof=debug info warn warning error"`
	Format string `validate:"omitempty,oneof=json text"`
}

// SessionConfig - хранилище сессий выбора категории.
type SessionConfig struct {
	// Время жизни сессии; 0 - до перезапуска
	TTL           time.Duration `validate:"min=0"`
	Capacity      int           `validate:"min=1"`
	SweepInterval time.Duration `validate:"min=1s"`
}

// MirrorConfig - копирование в архивный канал.
type MirrorConfig struct {
	// Копий в секунду на один канал
	Rate    float64       `validate:"gt=0"`
	Burst   int           `validate:"min=1"`
	Timeout time.Duration `validate:"min=1s"`
}

var envPaths = []string{
	".env",
	"../.env",
	"../../.env",
}

// LoadEnv загружает первый найденный .env из paths (или стандартных путей).
// Уже заданные переменные окружения не перезаписываются.
func LoadEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = envPaths
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("load %s: %w", path, err)
		}
		return path, nil
	}

	wd, _ := os.Getwd()
	return "", fmt.Errorf("no .env file found (working directory %s)", wd)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "telegram_bot.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SESSION_TTL", 24*time.Hour)
	v.SetDefault("SESSION_CAPACITY", 1000)
	v.SetDefault("SESSION_SWEEP_INTERVAL", 5*time.Minute)
	v.SetDefault("WORKER_LIMIT", 16)
	v.SetDefault("MIRROR_RATE", 1.0)
	v.SetDefault("MIRROR_BURST", 5)
	v.SetDefault("MIRROR_TIMEOUT", 30*time.Second)
}

// Load читает настройки из окружения (после загрузки .env) и валидирует их.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Environment: v.GetString("ENVIRONMENT"),
		Bot: BotConfig{
			Token:      v.GetString("BOT_TOKEN"),
			WebhookURL: v.GetString("BOT_WEBHOOK_URL"),
			HTTPPort:   v.GetString("HTTP_PORT"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DATABASE_DRIVER"),
			Path:     v.GetString("DATABASE_PATH"),
			DSN:      v.GetString("DATABASE_DSN"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Username: v.GetString("DB_USERNAME"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_DATABASE"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Sessions: SessionConfig{
			TTL:           v.GetDuration("SESSION_TTL"),
			Capacity:      v.GetInt("SESSION_CAPACITY"),
			SweepInterval: v.GetDuration("SESSION_SWEEP_INTERVAL"),
		},
		Mirror: MirrorConfig{
			Rate:    v.GetFloat64("MIRROR_RATE"),
			Burst:   v.GetInt("MIRROR_BURST"),
			Timeout: v.GetDuration("MIRROR_TIMEOUT"),
		},
		WorkerLimit: v.GetInt("WORKER_LIMIT"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LogValue не пускает секреты в логи.
func (c *Config) LogValue() slog.Value {
	mode := "polling"
	if c.Bot.WebhookURL != "" {
		mode = "webhook"
	}
	return slog.GroupValue(
		slog.String("environment", c.Environment),
		slog.String("mode", mode),
		slog.String("database_driver", c.Database.Driver),
		slog.Duration("session_ttl", c.Sessions.TTL),
		slog.Int("worker_limit", c.WorkerLimit),
	)
}
