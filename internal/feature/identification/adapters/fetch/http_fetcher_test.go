package fetch_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spawnwatch/internal/feature/identification/adapters/fetch"
	"spawnwatch/internal/feature/identification/domain"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Run("success: ボディを返す", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte("png-bytes"))
		}))
		defer srv.Close()

		body, err := fetch.NewHTTPFetcher(srv.Client()).Fetch(context.Background(), srv.URL+"/a.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), body)
	})

	t.Run("error: 4xx/5xxはErrFetch", func(t *testing.T) {
		for _, status := range []int{http.StatusNotFound, http.StatusBadGateway} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
			}))
			_, err := fetch.NewHTTPFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
			assert.ErrorIs(t, err, domain.ErrFetch, "status %d", status)
			srv.Close()
		}
	})

	t.Run("error: サイズ上限を超える", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte{0}, fetch.MaxImageBytes+1))
		}))
		defer srv.Close()

		_, err := fetch.NewHTTPFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, domain.ErrFetch)
	})

	t.Run("error: タイムアウト", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		client := srv.Client()
		client.Timeout = 50 * time.Millisecond
		_, err := fetch.NewHTTPFetcher(client).Fetch(context.Background(), srv.URL)
		assert.ErrorIs(t, err, domain.ErrFetch)
	})

	t.Run("error: 不正なURL", func(t *testing.T) {
		_, err := fetch.NewHTTPFetcher(http.DefaultClient).Fetch(context.Background(), "http://[::1")
		assert.ErrorIs(t, err, domain.ErrFetch)
	})
}
