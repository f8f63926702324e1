package di

import (
	"context"
	"fmt"

	"spawnwatch/internal/feature/subscription/adapters"
	"spawnwatch/internal/feature/subscription/adapters/jsonfile"
	"spawnwatch/internal/feature/subscription/usecase"
	"spawnwatch/internal/platform/config"
	"spawnwatch/internal/platform/db"
	platformhandler "spawnwatch/internal/platform/http/handler"
)

// WatcherStore はウォッチャーリポジトリと、その後始末・疎通確認をまとめたものです。
type WatcherStore struct {
	Repo  usecase.WatcherRepository
	Close func() error
	Check *platformhandler.Check
}

// NewWatcherStore は設定されたバックエンドのウォッチャーリポジトリを生成します。
// json はファイル1つ、sqlite / postgres は gorm を使います。
func NewWatcherStore(cfg config.Store) (*WatcherStore, error) {
	switch cfg.Backend {
	case config.BackendJSON:
		store, err := jsonfile.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &WatcherStore{Repo: store, Close: store.Close}, nil

	case config.BackendSQLite, config.BackendPostgres:
		gdb, err := db.OpenDB(db.Config{
			Driver:   cfg.Backend,
			DSN:      cfg.DSN,
			Path:     cfg.Path,
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			Name:     cfg.Name,
			SSLMode:  cfg.SSLMode,
			// sqlite はファイルを作るだけなので常にマイグレーションする
			Migrate: cfg.Migrate || cfg.Backend == config.BackendSQLite,
		}, adapters.Models()...)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql.DB: %w", err)
		}
		return &WatcherStore{
			Repo:  adapters.NewWatcherRepository(gdb),
			Close: sqlDB.Close,
			Check: &platformhandler.Check{
				Name: "database",
				Fn:   func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}
