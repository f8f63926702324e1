// Package usecase はidentificationフィーチャーのビジネスロジック（正規化・カタログ・最近傍探索）を実装します。
package usecase

import (
	"context"
	"fmt"
	"os"
	"strings"

	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
)

// ImageFetcher はURLから画像バイト列を取得するインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Canonicalizer は画像バイト列を共通スケールのバッファへ変換するインターフェースです。
type Canonicalizer interface {
	Canonicalize(data []byte) (entity.CanonicalBuffer, error)
	Scale() entity.Scale
}

// Normalizer はソース（パスまたはURL）から正規化バッファを生成します。
type Normalizer interface {
	// Normalize はローカルパスまたはHTTP(S) URLから正規化バッファを生成します。
	Normalize(ctx context.Context, source string) (entity.CanonicalBuffer, error)
	// NormalizeBytes は取得済みのバイト列から正規化バッファを生成します。
	NormalizeBytes(data []byte) (entity.CanonicalBuffer, error)
}

// sourceNormalizer はNormalizerの標準実装です。
type sourceNormalizer struct {
	fetcher  ImageFetcher
	canon    Canonicalizer
	readFile func(name string) ([]byte, error)
}

// NewNormalizer はsourceNormalizerの新しいインスタンスを生成します。
func NewNormalizer(fetcher ImageFetcher, canon Canonicalizer) *sourceNormalizer {
	return &sourceNormalizer{fetcher: fetcher, canon: canon, readFile: os.ReadFile}
}

// IsRemote はソースがHTTP(S) URLかどうかをスキーム接頭辞で判定します。
func IsRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Normalize はソースを読み込み、共通スケールにリサイズしたバッファを返します。
func (n *sourceNormalizer) Normalize(ctx context.Context, source string) (entity.CanonicalBuffer, error) {
	var (
		data []byte
		err  error
	)
	if IsRemote(source) {
		data, err = n.fetcher.Fetch(ctx, source)
		if err != nil {
			return nil, err
		}
	} else {
		data, err = n.readFile(source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrRead, err)
		}
	}
	return n.canon.Canonicalize(data)
}

// NormalizeBytes はバイト列をそのまま正規化します。
func (n *sourceNormalizer) NormalizeBytes(data []byte) (entity.CanonicalBuffer, error) {
	return n.canon.Canonicalize(data)
}
