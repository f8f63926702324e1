package db

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	defaultConnectTimeout = 60 * time.Second
	retryInterval         = 3 * time.Second

	sqliteMaxOpenConns = 1
	sqliteBusyTimeout  = 5 * time.Second
)

// Config はデータベース接続の設定です。DSNが設定されていればそれを優先します。
type Config struct {
	Driver   string
	DSN      string
	Path     string // sqlite のファイルパス
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Migrate  bool
}

// Opener は DSN から gorm.DB を開く関数です。テストで差し替えます。
type Opener func(dsn string) (*gorm.DB, error)

// BuildDSN は設定から接続文字列を組み立てます。
func BuildDSN(cfg Config) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	if cfg.Driver == DriverSQLite {
		return cfg.Path
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host,
		Path:   "/" + cfg.Name,
	}
	if cfg.Port != "" {
		u.Host = cfg.Host + ":" + cfg.Port
	}
	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// NewOpener はドライバー名に対応するOpenerを返します。
func NewOpener(driver string) (Opener, error) {
	gcfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	switch driver {
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return openSQLite(dsn, gcfg) }, nil
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// openSQLite はSQLiteを開き、書き込みが1接続に直列化されるようにします。
// 複数接続のままだと並行トランザクションが "database is locked" で失敗します。
func openSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(sqliteMaxOpenConns)
	if err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", sqliteBusyTimeout.Milliseconds())).Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite busy_timeout: %w", err)
	}
	return db, nil
}

// ConnectWithRetry は timeout に達するまで一定間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, open Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := open(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("DB connect failed after %v: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying...", "error", err)
		time.Sleep(retryInterval)
	}
}

// OpenDB は接続を確立し、cfg.Migrate が true なら models をマイグレーションします。
func OpenDB(cfg Config, models ...any) (*gorm.DB, error) {
	open, err := NewOpener(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), defaultConnectTimeout, open)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		slog.Info("database migrated", "driver", cfg.Driver, "models", len(models))
	}
	return db, nil
}
