// Package config はサービスとCLIの設定を読み込みます。
//
// 読み込み順:
//   - .env（存在しなくてもよい、godotenv）
//   - TOMLファイル（SPAWNWATCH_CONFIG または引数で指定、存在しなくてもよい）
//   - 環境変数（ファイルの値を上書き）
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// EnvConfigPath は設定ファイルのパスを指定する環境変数です。
const EnvConfigPath = "SPAWNWATCH_CONFIG"

// Store backends.
const (
	BackendJSON     = "json"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Catalog は参照画像カタログと正規化の設定です。
type Catalog struct {
	Dir                string `toml:"dir"`
	ScaleWidth         int    `toml:"scale_width"`
	ScaleHeight        int    `toml:"scale_height"`
	Interpolator       string `toml:"interpolator"`
	MatchWorkers       int    `toml:"match_workers"`
	PreloadConcurrency int    `toml:"preload_concurrency"`
	FetchTimeoutMS     int    `toml:"fetch_timeout_ms"`
}

// Events は受信イベントのフィルタとコマンドの設定です。
type Events struct {
	SourceAuthorID   string   `toml:"source_author_id"`
	TitlePrefix      string   `toml:"title_prefix"`
	BotID            string   `toml:"bot_id"`
	CommandPrefix    string   `toml:"command_prefix"`
	TextOnlyContexts []string `toml:"text_only_contexts"`
	DeleteAfterMS    int      `toml:"delete_after_ms"`
}

// Store はウォッチャーストアの設定です。
type Store struct {
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	SSLMode  string `toml:"sslmode"`
	Migrate  bool   `toml:"migrate"`
}

// Gateway は送信先ゲートウェイの設定です。URLが空ならログ出力のみ。
type Gateway struct {
	URL             string `toml:"url"`
	Secret          string `toml:"secret"`
	TokenTTLSeconds int    `toml:"token_ttl_seconds"`
	RateLimit       int    `toml:"rate_limit"`
	RateIntervalMS  int    `toml:"rate_interval_ms"`
}

// Redis は正規化済みバッファキャッシュの設定です。Hostが空ならキャッシュなし。
type Redis struct {
	Host            string `toml:"host"`
	Port            string `toml:"port"`
	Password        string `toml:"password"`
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
}

// HTTP はAPIサーバーの設定です。
type HTTP struct {
	Addr      string `toml:"addr"`
	JWTSecret string `toml:"jwt_secret"`
}

// Logging はログ出力の設定です。
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Label はラベル画像の設定です。
type Label struct {
	BackgroundPath string `toml:"background_path"`
}

// Config はアプリケーション全体の設定です。
type Config struct {
	Catalog Catalog `toml:"catalog"`
	Events  Events  `toml:"events"`
	Store   Store   `toml:"store"`
	Gateway Gateway `toml:"gateway"`
	Redis   Redis   `toml:"redis"`
	HTTP    HTTP    `toml:"http"`
	Logging Logging `toml:"logging"`
	Label   Label   `toml:"label"`
}

// Default はデフォルト値で埋めたConfigを返します。
func Default() Config {
	return Config{
		Catalog: Catalog{
			Dir:                "./images",
			ScaleWidth:         64,
			ScaleHeight:        64,
			Interpolator:       "bilinear",
			MatchWorkers:       1,
			PreloadConcurrency: 4,
			FetchTimeoutMS:     10000,
		},
		Events: Events{
			TitlePrefix:   "A wild",
			CommandPrefix: "cl",
			DeleteAfterMS: 4000,
		},
		Store: Store{
			Backend: BackendJSON,
			Path:    "./pings.json",
			SSLMode: "disable",
		},
		Gateway: Gateway{
			TokenTTLSeconds: 300,
			RateLimit:       50,
			RateIntervalMS:  1000,
		},
		Redis: Redis{
			Port:            "6379",
			CacheTTLSeconds: 600,
		},
		HTTP:    HTTP{Addr: ":8080"},
		Logging: Logging{Level: "info", Format: "text"},
	}
}

// Load は .env・設定ファイル・環境変数の順に読み込み、検証済みのConfigを返します。
// path が空の場合は SPAWNWATCH_CONFIG を参照します。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Catalog.Interpolator = strings.ToLower(strings.TrimSpace(c.Catalog.Interpolator))
	c.Gateway.URL = strings.TrimRight(strings.TrimSpace(c.Gateway.URL), "/")

	contexts := c.Events.TextOnlyContexts[:0]
	for _, id := range c.Events.TextOnlyContexts {
		if id = strings.TrimSpace(id); id != "" {
			contexts = append(contexts, id)
		}
	}
	c.Events.TextOnlyContexts = contexts
}

// Validate は設定の問題をすべて集めて返します。
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(c.Catalog.Dir) == "" {
		add("catalog.dir is required")
	}
	if c.Catalog.ScaleWidth <= 0 || c.Catalog.ScaleHeight <= 0 {
		add("catalog scale must be positive, got %dx%d", c.Catalog.ScaleWidth, c.Catalog.ScaleHeight)
	}
	switch c.Catalog.Interpolator {
	case "", "bilinear", "nearest", "approx-bilinear", "catmull-rom":
	default:
		add("catalog.interpolator: unsupported value %q", c.Catalog.Interpolator)
	}
	if c.Catalog.MatchWorkers < 1 {
		add("catalog.match_workers must be at least 1")
	}
	if c.Catalog.PreloadConcurrency < 1 {
		add("catalog.preload_concurrency must be at least 1")
	}
	if c.Catalog.FetchTimeoutMS <= 0 {
		add("catalog.fetch_timeout_ms must be positive")
	}
	if c.Events.DeleteAfterMS < 0 {
		add("events.delete_after_ms must not be negative")
	}
	if strings.TrimSpace(c.Events.CommandPrefix) == "" {
		add("events.command_prefix is required")
	}

	switch c.Store.Backend {
	case BackendJSON:
		if strings.TrimSpace(c.Store.Path) == "" {
			add("store.path is required for the json backend")
		}
	case BackendSQLite:
		if c.Store.DSN == "" && c.Store.Path == "" {
			add("store.dsn or store.path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.DSN == "" && (c.Store.Host == "" || c.Store.Name == "") {
			add("store.dsn or store.host and store.name are required for the postgres backend")
		}
	default:
		add("store.backend: unsupported value %q", c.Store.Backend)
	}

	if c.Gateway.URL != "" && c.Gateway.Secret == "" {
		add("gateway.secret is required when gateway.url is set")
	}
	if c.Gateway.TokenTTLSeconds <= 0 {
		add("gateway.token_ttl_seconds must be positive")
	}
	if c.Gateway.RateLimit > 0 && c.Gateway.RateIntervalMS <= 0 {
		add("gateway.rate_interval_ms must be positive when rate_limit is set")
	}
	if c.Redis.CacheTTLSeconds < 0 {
		add("redis.cache_ttl_seconds must not be negative")
	}
	if strings.TrimSpace(c.HTTP.Addr) == "" {
		add("http.addr is required")
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		add("logging.level: unsupported value %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		add("logging.format: unsupported value %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}

// DeleteAfter は返信の自動削除までの時間です。
func (c *Config) DeleteAfter() time.Duration {
	return time.Duration(c.Events.DeleteAfterMS) * time.Millisecond
}

// FetchTimeout は画像取得のタイムアウトです。
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Catalog.FetchTimeoutMS) * time.Millisecond
}

// CacheTTL は正規化済みバッファのキャッシュTTLです。
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

// TokenTTL はゲートウェイ向けトークンの有効期間です。
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Gateway.TokenTTLSeconds) * time.Second
}

// RateInterval はゲートウェイ送信のレート制限の単位時間です。
func (c *Config) RateInterval() time.Duration {
	return time.Duration(c.Gateway.RateIntervalMS) * time.Millisecond
}

// RedisAddr はRedisの接続先です。Hostが未設定なら空文字列を返します。
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}
