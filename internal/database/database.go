package database

import (
	"CategorizerBot/internal/config"
	"CategorizerBot/internal/database/models"
	"CategorizerBot/internal/logger"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// schemaSQL - формат файла SQLite; существующие базы открываются как есть.
//
//go:embed schema.sql
var schemaSQL string

// Встроенный LOWER в SQLite понимает только ASCII, поэтому поиск и сортировка
// идут через драйвер с юникодной lower.
const sqliteDriverName = "sqlite3_unicode"

var registerSQLite sync.Once

func registerSQLiteDriver() {
	registerSQLite.Do(func() {
		sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("lower", strings.ToLower, true)
			},
		})
	})
}

// Open подключается к базе из конфига и проверяет соединение.
func Open(cfg config.DatabaseConfig, log *slog.Logger, level slog.Level) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	log.Info("Connecting to database", "driver", cfg.Driver)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Gorm(log, level),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// Один писатель, остальное ждет по busy_timeout
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("database ping error: %w", err)
	}

	log.Info("Connected to database")
	return db, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		registerSQLiteDriver()
		return sqlite.New(sqlite.Config{
			DriverName: sqliteDriverName,
			DSN:        sqliteDSN(cfg),
		}), nil
	case "mysql":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
		}
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// sqliteDSN строит DSN из пути к файлу с включенными внешними ключами:
// на них держится каскадное удаление категорий.
func sqliteDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("could not create database directory", "dir", dir, "error", err)
		}
	}

	sep := "?"
	if strings.Contains(cfg.Path, "?") {
		sep = "&"
	}
	return cfg.Path + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

// Migrate создает пять таблиц. Для SQLite выполняется встроенный DDL,
// для остальных диалектов - AutoMigrate по моделям.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		if err := db.Exec(schemaSQL).Error; err != nil {
			return fmt.Errorf("exec schema: %w", err)
		}
		return nil
	}

	err := db.AutoMigrate(
		&models.Category{},
		&models.ActiveCategory{},
		&models.StorageChannel{},
		&models.Message{},
		&models.MessageLink{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return nil
}
