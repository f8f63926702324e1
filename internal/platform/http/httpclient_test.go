package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient(t *testing.T) {
	t.Run("timeout and transport", func(t *testing.T) {
		c := NewHTTPClient(3*time.Second, WithMaxIdleConnsPerHost(8))
		assert.Equal(t, 3*time.Second, c.Timeout)

		tr, ok := c.Transport.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, 8, tr.MaxIdleConnsPerHost)
		assert.Equal(t, 100, tr.MaxIdleConns)
	})

	t.Run("user agent is added when missing", func(t *testing.T) {
		var got []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = append(got, r.Header.Get("User-Agent"))
		}))
		defer srv.Close()

		c := NewHTTPClient(time.Second, WithUserAgent(DefaultUserAgent))

		res, err := c.Get(srv.URL)
		require.NoError(t, err)
		_ = res.Body.Close()

		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "custom/2.0")
		res, err = c.Do(req)
		require.NoError(t, err)
		_ = res.Body.Close()

		assert.Equal(t, []string{DefaultUserAgent, "custom/2.0"}, got)
		assert.Equal(t, "custom/2.0", req.Header.Get("User-Agent"))
	})
}
