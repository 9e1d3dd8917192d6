// Package logger настраивает структурированный логгер для бота и базы.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// Config - настройки логгера.
type Config struct {
	Writer      io.Writer
	Format      string
	Environment string
	Level       slog.Level
	AddSource   bool
}

// New создает логгер: в production JSON, иначе текст.
func New(cfg Config) *slog.Logger {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	if cfg.Format == "" {
		if cfg.Environment == "production" {
			cfg.Format = formatJSON
		} else {
			cfg.Format = formatText
		}
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}

	var handler slog.Handler
	if cfg.Format == formatJSON {
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Writer, opts)
	}

	return slog.New(handler)
}

// ParseLevel переводит строку в slog.Level, по умолчанию info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// gormWriter - адаптер slog под Printf-логгер gorm.
type gormWriter struct {
	log   *slog.Logger
	level slog.Level
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Log(context.Background(), w.level, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Gorm возвращает логгер gorm поверх log. Медленные запросы и ошибки пишутся
// всегда, полный SQL только на уровне debug.
func Gorm(log *slog.Logger, level slog.Level) gormlogger.Interface {
	logLevel, writeLevel := gormlogger.Warn, slog.LevelWarn
	if level <= slog.LevelDebug {
		logLevel, writeLevel = gormlogger.Info, slog.LevelDebug
	}

	return gormlogger.New(gormWriter{log: log.With("component", "gorm"), level: writeLevel}, gormlogger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
