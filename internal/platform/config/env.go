package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// lookupFunc は os.LookupEnv と同じシグネチャです。
type lookupFunc func(key string) (string, bool)

type envBinding struct {
	key   string
	apply func(c *Config, v string) error
}

func str(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

func num(dst func(c *Config) *int) func(*Config, string) error {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = n
		return nil
	}
}

func boolean(dst func(c *Config) *bool) func(*Config, string) error {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return err
		}
		*dst(c) = b
		return nil
	}
}

func list(dst func(c *Config) *[]string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = strings.Split(v, ",")
		return nil
	}
}

// envBindings は環境変数と設定項目の対応です。
// Redis・DB・JWTはデプロイ環境で使われている変数名をそのまま使います。
var envBindings = []envBinding{
	{"SPAWNWATCH_CATALOG_DIR", str(func(c *Config) *string { return &c.Catalog.Dir })},
	{"SPAWNWATCH_SCALE_WIDTH", num(func(c *Config) *int { return &c.Catalog.ScaleWidth })},
	{"SPAWNWATCH_SCALE_HEIGHT", num(func(c *Config) *int { return &c.Catalog.ScaleHeight })},
	{"SPAWNWATCH_INTERPOLATOR", str(func(c *Config) *string { return &c.Catalog.Interpolator })},
	{"SPAWNWATCH_MATCH_WORKERS", num(func(c *Config) *int { return &c.Catalog.MatchWorkers })},
	{"SPAWNWATCH_PRELOAD_CONCURRENCY", num(func(c *Config) *int { return &c.Catalog.PreloadConcurrency })},
	{"SPAWNWATCH_FETCH_TIMEOUT_MS", num(func(c *Config) *int { return &c.Catalog.FetchTimeoutMS })},

	{"SPAWNWATCH_SOURCE_AUTHOR_ID", str(func(c *Config) *string { return &c.Events.SourceAuthorID })},
	{"SPAWNWATCH_TITLE_PREFIX", str(func(c *Config) *string { return &c.Events.TitlePrefix })},
	{"SPAWNWATCH_BOT_ID", str(func(c *Config) *string { return &c.Events.BotID })},
	{"SPAWNWATCH_COMMAND_PREFIX", str(func(c *Config) *string { return &c.Events.CommandPrefix })},
	{"SPAWNWATCH_TEXT_ONLY_CONTEXTS", list(func(c *Config) *[]string { return &c.Events.TextOnlyContexts })},
	{"SPAWNWATCH_DELETE_AFTER_MS", num(func(c *Config) *int { return &c.Events.DeleteAfterMS })},

	{"SPAWNWATCH_STORE_BACKEND", str(func(c *Config) *string { return &c.Store.Backend })},
	{"SPAWNWATCH_STORE_PATH", str(func(c *Config) *string { return &c.Store.Path })},
	{"SPAWNWATCH_STORE_DSN", str(func(c *Config) *string { return &c.Store.DSN })},
	{"DB_HOST", str(func(c *Config) *string { return &c.Store.Host })},
	{"DB_PORT", str(func(c *Config) *string { return &c.Store.Port })},
	{"DB_USER", str(func(c *Config) *string { return &c.Store.User })},
	{"DB_PASSWORD", str(func(c *Config) *string { return &c.Store.Password })},
	{"DB_NAME", str(func(c *Config) *string { return &c.Store.Name })},
	{"DB_SSLMODE", str(func(c *Config) *string { return &c.Store.SSLMode })},
	{"RUN_MIGRATIONS", boolean(func(c *Config) *bool { return &c.Store.Migrate })},

	{"SPAWNWATCH_GATEWAY_URL", str(func(c *Config) *string { return &c.Gateway.URL })},
	{"SPAWNWATCH_GATEWAY_SECRET", str(func(c *Config) *string { return &c.Gateway.Secret })},
	{"SPAWNWATCH_GATEWAY_TOKEN_TTL_SECONDS", num(func(c *Config) *int { return &c.Gateway.TokenTTLSeconds })},
	{"SPAWNWATCH_GATEWAY_RATE_LIMIT", num(func(c *Config) *int { return &c.Gateway.RateLimit })},
	{"SPAWNWATCH_GATEWAY_RATE_INTERVAL_MS", num(func(c *Config) *int { return &c.Gateway.RateIntervalMS })},

	{"REDIS_HOST", str(func(c *Config) *string { return &c.Redis.Host })},
	{"REDIS_PORT", str(func(c *Config) *string { return &c.Redis.Port })},
	{"REDIS_PASSWORD", str(func(c *Config) *string { return &c.Redis.Password })},
	{"SPAWNWATCH_CACHE_TTL_SECONDS", num(func(c *Config) *int { return &c.Redis.CacheTTLSeconds })},

	{"SPAWNWATCH_HTTP_ADDR", str(func(c *Config) *string { return &c.HTTP.Addr })},
	{"JWT_SECRET", str(func(c *Config) *string { return &c.HTTP.JWTSecret })},

	{"SPAWNWATCH_LOG_LEVEL", str(func(c *Config) *string { return &c.Logging.Level })},
	{"SPAWNWATCH_LOG_FORMAT", str(func(c *Config) *string { return &c.Logging.Format })},

	{"SPAWNWATCH_LABEL_BACKGROUND", str(func(c *Config) *string { return &c.Label.BackgroundPath })},
}

// applyEnv は設定されている環境変数で値を上書きします。
// 値が解釈できない変数はすべてまとめてエラーにします。
func (c *Config) applyEnv(lookup lookupFunc) error {
	var errs []error
	for _, b := range envBindings {
		v, ok := lookup(b.key)
		if !ok {
			continue
		}
		if err := b.apply(c, v); err != nil {
			errs = append(errs, fmt.Errorf("env %s: %w", b.key, err))
		}
	}
	return errors.Join(errs...)
}
