package di

import (
	"log/slog"

	"spawnwatch/internal/feature/notification/adapters/gateway"
	"spawnwatch/internal/feature/notification/usecase"
	"spawnwatch/internal/platform/config"
	infrahttp "spawnwatch/internal/platform/http"
	jwtmw "spawnwatch/internal/platform/jwt"
	"spawnwatch/internal/shared/ratelimiter"
)

// NewMessenger はゲートウェイURLが設定されていればHTTPMessengerを、なければLogMessengerを返します。
func NewMessenger(cfg *config.Config) usecase.Messenger {
	if cfg.Gateway.URL == "" {
		slog.Warn("gateway url is not set, outgoing messages are only logged")
		return gateway.LogMessenger{}
	}
	return gateway.NewHTTPMessenger(
		cfg.Gateway.URL,
		infrahttp.NewHTTPClient(cfg.FetchTimeout(),
			infrahttp.WithUserAgent(infrahttp.DefaultUserAgent),
			infrahttp.WithMaxIdleConnsPerHost(16),
		),
		jwtmw.NewGenerator(cfg.Gateway.Secret, cfg.TokenTTL()),
		ratelimiter.NewRateLimiter(cfg.Gateway.RateLimit, cfg.RateInterval()),
	)
}
