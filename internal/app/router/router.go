package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	identhandler "spawnwatch/internal/feature/identification/transport/handler"
	subhandler "spawnwatch/internal/feature/subscription/transport/handler"
	platformhandler "spawnwatch/internal/platform/http/handler"
	jwtmw "spawnwatch/internal/platform/jwt"
	"spawnwatch/internal/platform/logging"
)

// Handlers はルーターに登録するハンドラーの集まりです。
type Handlers struct {
	Health   *platformhandler.HealthHandler
	Identify *identhandler.IdentifyHandler
	Command  *subhandler.CommandHandler
	Watcher  *subhandler.WatcherHandler
}

func NewRouter(h Handlers, jwtSecret string, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logging.GinLogger(logger))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", h.Health.Health)
	r.HEAD("/healthz", h.Health.Health)
	r.OPTIONS("/healthz", h.Health.Health)

	// 認証必須のルート
	// → ゲートウェイ・CLIはリクエストヘッダーに JWT が必要になる
	v1 := r.Group("/v1")
	v1.Use(jwtmw.AuthRequired(jwtSecret))
	{
		// チャットプラットフォームからのイベント
		v1.POST("/events/image", h.Identify.ImageEvent)
		v1.POST("/events/command", h.Command.CommandEvent)

		v1.GET("/catalog", h.Identify.Catalog)
		v1.POST("/identify", h.Identify.Identify)

		v1.GET("/watchers/:id/interests", h.Watcher.ListInterests)
		v1.POST("/watchers/:id/interests", h.Watcher.AddInterests)
	}

	return r
}
