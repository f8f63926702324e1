package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
)

// mockNormalizer はテスト用のNormalizerモック実装です。
type mockNormalizer struct {
	normalizeFn func(ctx context.Context, source string) (entity.CanonicalBuffer, error)
	calls       int
}

func (m *mockNormalizer) Normalize(ctx context.Context, source string) (entity.CanonicalBuffer, error) {
	m.calls++
	if m.normalizeFn != nil {
		return m.normalizeFn(ctx, source)
	}
	return nil, nil
}

func (m *mockNormalizer) NormalizeBytes(data []byte) (entity.CanonicalBuffer, error) {
	return entity.CanonicalBuffer(data), nil
}

var testScale = entity.Scale{Width: 1, Height: 2}

const testInterp = "bilinear"

const testURL = "https://cdn.example.com/spawn.png"

func fixedBuffer() entity.CanonicalBuffer {
	return entity.CanonicalBuffer{1, 2, 3, 4, 5, 6, 7, 8}
}

func TestNewCachingNormalizer_Defaults(t *testing.T) {
	t.Parallel()

	c := NewCachingNormalizer(nil, 0, &mockNormalizer{}, "", testScale, testInterp)
	if c.ttl != DefaultTTL {
		t.Errorf("expected TTL %v, got %v", DefaultTTL, c.ttl)
	}
	if c.namespace != DefaultNamespace {
		t.Errorf("expected namespace %q, got %q", DefaultNamespace, c.namespace)
	}

	c = NewCachingNormalizer(nil, time.Minute, &mockNormalizer{}, "custom", testScale, testInterp)
	if c.ttl != time.Minute || c.namespace != "custom" {
		t.Errorf("custom values not preserved: ttl=%v namespace=%q", c.ttl, c.namespace)
	}
}

func TestCachingNormalizer_CacheKey(t *testing.T) {
	t.Parallel()

	a := NewCachingNormalizer(nil, 0, &mockNormalizer{}, "", testScale, testInterp)
	b := NewCachingNormalizer(nil, 0, &mockNormalizer{}, "", entity.Scale{Width: 2, Height: 1}, testInterp)

	if a.cacheKey(testURL) == b.cacheKey(testURL) {
		t.Error("keys for different scales must differ")
	}
	if a.cacheKey(testURL) != a.cacheKey(testURL) {
		t.Error("key must be deterministic")
	}

	n := NewCachingNormalizer(nil, 0, &mockNormalizer{}, "", testScale, "nearest")
	if a.cacheKey(testURL) == n.cacheKey(testURL) {
		t.Error("keys for different interpolators must differ")
	}
	if !strings.Contains(n.cacheKey(testURL), ":nearest:") {
		t.Errorf("interpolator missing from key %q", n.cacheKey(testURL))
	}
	if u := NewCachingNormalizer(nil, 0, &mockNormalizer{}, "", testScale, " Nearest "); u.cacheKey(testURL) != n.cacheKey(testURL) {
		t.Error("interpolator name must be normalized")
	}
}

// TestCachingNormalizer_Hit はキャッシュヒット時に内部Normalizerを呼ばないことを検証します。
func TestCachingNormalizer_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &mockNormalizer{}
	c := NewCachingNormalizer(rdb, 0, inner, "", testScale, testInterp)

	mock.ExpectGet(c.cacheKey(testURL)).SetVal(string(fixedBuffer()))

	buf, err := c.Normalize(context.Background(), testURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf) != string(fixedBuffer()) {
		t.Errorf("unexpected buffer %v", buf)
	}
	if inner.calls != 0 {
		t.Errorf("inner normalizer called %d times", inner.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestCachingNormalizer_MissStores はキャッシュミス時に正規化結果を保存することを検証します。
func TestCachingNormalizer_MissStores(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &mockNormalizer{normalizeFn: func(context.Context, string) (entity.CanonicalBuffer, error) {
		return fixedBuffer(), nil
	}}
	c := NewCachingNormalizer(rdb, 0, inner, "", testScale, testInterp)
	key := c.cacheKey(testURL)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte(fixedBuffer()), DefaultTTL).SetVal("OK")

	buf, err := c.Normalize(context.Background(), testURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf) != testScale.BufferLen() {
		t.Errorf("unexpected length %d", len(buf))
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestCachingNormalizer_WrongLength は長さの合わないエントリを削除して再計算することを検証します。
func TestCachingNormalizer_WrongLength(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &mockNormalizer{normalizeFn: func(context.Context, string) (entity.CanonicalBuffer, error) {
		return fixedBuffer(), nil
	}}
	c := NewCachingNormalizer(rdb, 0, inner, "", testScale, testInterp)
	key := c.cacheKey(testURL)

	mock.ExpectGet(key).SetVal("short")
	mock.ExpectDel(key).SetVal(1)
	mock.ExpectSet(key, []byte(fixedBuffer()), DefaultTTL).SetVal("OK")

	if _, err := c.Normalize(context.Background(), testURL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestCachingNormalizer_RedisErrorFallsThrough はRedis障害時も正規化を続けることを検証します。
func TestCachingNormalizer_RedisErrorFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &mockNormalizer{normalizeFn: func(context.Context, string) (entity.CanonicalBuffer, error) {
		return fixedBuffer(), nil
	}}
	c := NewCachingNormalizer(rdb, 0, inner, "", testScale, testInterp)
	key := c.cacheKey(testURL)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, []byte(fixedBuffer()), DefaultTTL).SetErr(errors.New("connection refused"))

	buf, err := c.Normalize(context.Background(), testURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf) != testScale.BufferLen() {
		t.Errorf("unexpected length %d", len(buf))
	}
}

// TestCachingNormalizer_InnerError は正規化エラーをキャッシュせずに返すことを検証します。
func TestCachingNormalizer_InnerError(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &mockNormalizer{normalizeFn: func(context.Context, string) (entity.CanonicalBuffer, error) {
		return nil, domain.ErrFetch
	}}
	c := NewCachingNormalizer(rdb, 0, inner, "", testScale, testInterp)

	mock.ExpectGet(c.cacheKey(testURL)).RedisNil()

	_, err := c.Normalize(context.Background(), testURL)
	if !errors.Is(err, domain.ErrFetch) {
		t.Errorf("expected ErrFetch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

// TestCachingNormalizer_Bypass はローカルパスとRedis未設定時にキャッシュを使わないことを検証します。
func TestCachingNormalizer_Bypass(t *testing.T) {
	t.Run("local path", func(t *testing.T) {
		rdb, mock := redismock.NewClientMock()
		inner := &mockNormalizer{normalizeFn: func(context.Context, string) (entity.CanonicalBuffer, error) {
			return fixedBuffer(), nil
		}}
		c := NewCachingNormalizer(rdb, 0, inner, "", testScale, testInterp)

		if _, err := c.Normalize(context.Background(), "./images/Eevee.png"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inner.calls != 1 {
			t.Errorf("expected 1 inner call, got %d", inner.calls)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unexpected redis traffic: %v", err)
		}
	})

	t.Run("nil client", func(t *testing.T) {
		inner := &mockNormalizer{normalizeFn: func(context.Context, string) (entity.CanonicalBuffer, error) {
			return fixedBuffer(), nil
		}}
		c := NewCachingNormalizer(nil, 0, inner, "", testScale, testInterp)

		if _, err := c.Normalize(context.Background(), testURL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if inner.calls != 1 {
			t.Errorf("expected 1 inner call, got %d", inner.calls)
		}
	})

	t.Run("bytes are never cached", func(t *testing.T) {
		c := NewCachingNormalizer(nil, 0, &mockNormalizer{}, "", testScale, testInterp)
		buf, err := c.NormalizeBytes([]byte{9})
		if err != nil || len(buf) != 1 {
			t.Errorf("unexpected result %v, %v", buf, err)
		}
	})
}
