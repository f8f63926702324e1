// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"spawnwatch/internal/feature/identification/adapters/cache"
	"spawnwatch/internal/feature/identification/adapters/fetch"
	"spawnwatch/internal/feature/identification/adapters/imaging"
	"spawnwatch/internal/feature/identification/domain/entity"
	"spawnwatch/internal/feature/identification/usecase"
	"spawnwatch/internal/platform/config"
	infrahttp "spawnwatch/internal/platform/http"
)

// Identification は照合パイプラインの構成要素です。
type Identification struct {
	Normalizer usecase.Normalizer
	Catalog    *usecase.Catalog
	Matcher    usecase.Matcher
}

// NewNormalizer は取得・デコード・縮小を行うNormalizerを生成します。
// rdb が nil でなければ、リモート画像の正規化結果をRedisにキャッシュします。
func NewNormalizer(cfg *config.Config, rdb *redis.Client) (usecase.Normalizer, entity.Scale, error) {
	scale := entity.Scale{Width: cfg.Catalog.ScaleWidth, Height: cfg.Catalog.ScaleHeight}
	canon, err := imaging.NewCanonicalizer(scale, cfg.Catalog.Interpolator)
	if err != nil {
		return nil, scale, err
	}
	fetcher := fetch.NewHTTPFetcher(infrahttp.NewHTTPClient(cfg.FetchTimeout(), infrahttp.WithUserAgent(infrahttp.DefaultUserAgent)))

	var n usecase.Normalizer = usecase.NewNormalizer(fetcher, canon)
	if rdb != nil {
		interp := cfg.Catalog.Interpolator
		if interp == "" {
			interp = imaging.DefaultInterpolator
		}
		n = cache.NewCachingNormalizer(rdb, cfg.CacheTTL(), n, cache.DefaultNamespace, scale, interp)
	}
	return n, scale, nil
}

// NewIdentification はカタログをプリロードし、照合パイプラインを組み立てます。
func NewIdentification(ctx context.Context, cfg *config.Config, rdb *redis.Client) (*Identification, error) {
	n, scale, err := NewNormalizer(cfg, rdb)
	if err != nil {
		return nil, err
	}
	slog.Debug("building catalog", "dir", cfg.Catalog.Dir, "scale", fmt.Sprintf("%dx%d", scale.Width, scale.Height))

	catalog, err := usecase.BuildCatalog(ctx, cfg.Catalog.Dir, n, cfg.Catalog.PreloadConcurrency)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}
	return &Identification{
		Normalizer: n,
		Catalog:    catalog,
		Matcher:    usecase.NewLinearMatcher(catalog, cfg.Catalog.MatchWorkers),
	}, nil
}
