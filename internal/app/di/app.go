package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"spawnwatch/internal/app/router"
	identhandler "spawnwatch/internal/feature/identification/transport/handler"
	identusecase "spawnwatch/internal/feature/identification/usecase"
	"spawnwatch/internal/feature/notification/adapters/render"
	notifusecase "spawnwatch/internal/feature/notification/usecase"
	"spawnwatch/internal/feature/subscription/transport/command"
	subhandler "spawnwatch/internal/feature/subscription/transport/handler"
	subusecase "spawnwatch/internal/feature/subscription/usecase"
	"spawnwatch/internal/platform/config"
	platformhandler "spawnwatch/internal/platform/http/handler"
	infraredis "spawnwatch/internal/platform/redis"
)

// App はサーバーとして起動するために組み立てられたコンポーネントです。
type App struct {
	Router  *gin.Engine
	closers []func() error
}

// Close は開いたリソースを逆順に閉じます。
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewRedis はRedisが設定されていれば接続します。接続できない場合はキャッシュなしで続行します。
func NewRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	addr := cfg.RedisAddr()
	if addr == "" {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, addr, cfg.Redis.Password)
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache.", "error", err)
		return nil
	}
	return rdb
}

// NewApp は設定からすべてのコンポーネントを組み立てます。
// 途中で失敗した場合は、それまでに開いたリソースを閉じてから返します。
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	var checks []platformhandler.Check

	rdb := NewRedis(ctx, cfg)
	if rdb != nil {
		app.closers = append(app.closers, rdb.Close)
		checks = append(checks, platformhandler.Check{
			Name: "redis",
			Fn:   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	store, err := NewWatcherStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open watcher store: %w", err)
	}
	app.closers = append(app.closers, store.Close)
	if store.Check != nil {
		checks = append(checks, *store.Check)
	}

	ident, err := NewIdentification(ctx, cfg, rdb)
	if err != nil {
		return nil, err
	}
	checks = append(checks, platformhandler.Check{
		Name: "catalog",
		Fn: func(context.Context) error {
			if ident.Catalog.Loaded() == 0 {
				return errors.New("no reference images loaded")
			}
			return nil
		},
	})

	renderer, err := render.NewLabelRenderer(cfg.Label.BackgroundPath)
	if err != nil {
		return nil, fmt.Errorf("label renderer: %w", err)
	}

	// Usecase
	messenger := NewMessenger(cfg)
	subUC := subusecase.NewSubscriptionUsecase(store.Repo)
	dispatcher := notifusecase.NewDispatcher(messenger, renderer, subUC, notifusecase.Config{
		TextOnlyContexts: cfg.Events.TextOnlyContexts,
		DeleteAfter:      cfg.DeleteAfter(),
	})
	identUC := identusecase.NewIdentifyUsecase(ident.Normalizer, ident.Catalog, ident.Matcher, dispatcher,
		identusecase.EventFilter{
			SourceAuthorID: cfg.Events.SourceAuthorID,
			TitlePrefix:    cfg.Events.TitlePrefix,
		})

	// Handler
	handlers := router.Handlers{
		Health:   platformhandler.NewHealthHandler(checks...),
		Identify: identhandler.NewIdentifyHandler(identUC),
		Command: subhandler.NewCommandHandler(
			command.NewParser(cfg.Events.BotID, cfg.Events.CommandPrefix),
			command.NewResponder(subUC),
			messenger,
		),
		Watcher: subhandler.NewWatcherHandler(subUC),
	}

	if cfg.HTTP.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. /v1 endpoints will reject every request.")
	}
	app.Router = router.NewRouter(handlers, cfg.HTTP.JWTSecret, logger)
	return app, nil
}
