// Package cache はNormalizerにRedisキャッシュを追加するデコレーターを提供します。
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"spawnwatch/internal/feature/identification/domain/entity"
	"spawnwatch/internal/feature/identification/usecase"
)

const (
	// DefaultTTL はキャッシュエントリのデフォルト有効期間です。
	DefaultTTL = 10 * time.Minute
	// DefaultNamespace はキャッシュキーのデフォルト接頭辞です。
	DefaultNamespace = "canon"
)

// CachingNormalizer はリモートソースの正規化結果をRedisにキャッシュします。
// ローカルパスはキャッシュせず、内部のNormalizerへそのまま委譲します。
// キャッシュの読み書き失敗は処理を止めません（ベストエフォート）。
type CachingNormalizer struct {
	inner     usecase.Normalizer
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	scale     entity.Scale
	interp    string
}

var _ usecase.Normalizer = (*CachingNormalizer)(nil)

// NewCachingNormalizer はNormalizerをRedisキャッシュでラップします。
// ttlが0以下の場合はDefaultTTL、namespaceが空の場合はDefaultNamespaceを使用します。
// スケールと補間方式はキーに含めるため、設定変更後に古いバッファが返ることはありません。
func NewCachingNormalizer(rdb *redis.Client, ttl time.Duration, inner usecase.Normalizer, namespace string, scale entity.Scale, interpolator string) *CachingNormalizer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingNormalizer{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		scale:     scale,
		interp:    strings.ToLower(strings.TrimSpace(interpolator)),
	}
}

// Normalize はキャッシュを確認し、なければ内部のNormalizerで正規化して保存します。
func (c *CachingNormalizer) Normalize(ctx context.Context, source string) (entity.CanonicalBuffer, error) {
	// Redis未設定またはローカルパスならキャッシュをバイパス
	if c.rdb == nil || !usecase.IsRemote(source) {
		return c.inner.Normalize(ctx, source)
	}

	key := c.cacheKey(source)

	// 1) キャッシュ確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		if len(b) == c.scale.BufferLen() {
			return entity.CanonicalBuffer(b), nil
		}
		// 長さが合わないエントリは破損扱いで削除
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != redis.Nil {
		slog.Debug("canonical buffer cache read failed", "error", err)
	}

	// 2) 正規化
	buf, err := c.inner.Normalize(ctx, source)
	if err != nil {
		return nil, err
	}

	// 3) キャッシュに保存（ベストエフォート）
	if err := c.rdb.Set(ctx, key, []byte(buf), c.ttl).Err(); err != nil {
		slog.Debug("canonical buffer cache write failed", "error", err)
	}
	return buf, nil
}

// NormalizeBytes はキャッシュせずに委譲します。
func (c *CachingNormalizer) NormalizeBytes(data []byte) (entity.CanonicalBuffer, error) {
	return c.inner.NormalizeBytes(data)
}

// cacheKey はソースURL・スケール・補間方式からキャッシュキーを生成します。
func (c *CachingNormalizer) cacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("%s:%dx%d:%s:%s", c.namespace, c.scale.Width, c.scale.Height, c.interp, hex.EncodeToString(sum[:]))
}
