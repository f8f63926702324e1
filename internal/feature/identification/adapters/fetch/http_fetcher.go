// Package fetch はリモート画像をHTTPで取得するクライアントを提供します。
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/usecase"
)

// MaxImageBytes は取得する画像の最大サイズ（10MB）です。
const MaxImageBytes = 10 * 1024 * 1024

// HTTPFetcher はHTTP(S) URLから画像バイト列を取得します。
type HTTPFetcher struct {
	client *http.Client
}

// HTTPFetcherがImageFetcherを実装していることをコンパイル時に検証します。
var _ usecase.ImageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher は指定されたHTTPクライアントでHTTPFetcherを生成します。
// タイムアウトとUser-Agentはクライアント側（platform/http.NewHTTPClient）で設定します。
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Fetch はURLのレスポンスボディを返します。
// トランスポートエラー・タイムアウト・4xx/5xxはすべてdomain.ErrFetchでラップされます。
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrFetch, err)
	}

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: http %d", domain.ErrFetch, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}
	if len(body) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrFetch, MaxImageBytes)
	}
	return body, nil
}
