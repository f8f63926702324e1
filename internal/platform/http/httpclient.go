// Package http はアウトバウンドHTTP通信（画像取得・ゲートウェイ呼び出し）用のクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent はアウトバウンドリクエストに付与するUser-Agentです。
const DefaultUserAgent = "spawnwatch/1.0"

// Option はNewHTTPClientの設定を変更します。
type Option func(*options)

type options struct {
	userAgent       string
	maxIdlePerHost  int
	dialTimeout     time.Duration
	tlsHandshakeMax time.Duration
}

// WithUserAgent はUser-Agentヘッダーが未設定のリクエストにuaを付与します。
func WithUserAgent(ua string) Option {
	return func(o *options) { o.userAgent = ua }
}

// WithMaxIdleConnsPerHost はホストごとのアイドル接続数を設定します。
// ゲートウェイのように単一ホストへ集中する呼び出しで使います。
func WithMaxIdleConnsPerHost(n int) Option {
	return func(o *options) { o.maxIdlePerHost = n }
}

// NewHTTPClient は外部呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト（5秒）
//   - MaxIdleConns: 最大アイドル接続数（100）
//   - TLSHandshakeTimeout: HTTPSハンドシェイクの最大時間（5秒）
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// http.DefaultClientにはタイムアウトがないため、常にこのクライアントを使用すること。
func NewHTTPClient(timeout time.Duration, opts ...Option) *http.Client {
	o := options{
		dialTimeout:     5 * time.Second,
		tlsHandshakeMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   o.dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: o.maxIdlePerHost,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: o.tlsHandshakeMax,
	}

	var rt http.RoundTripper = t
	if o.userAgent != "" {
		rt = &userAgentTransport{base: t, ua: o.userAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

// userAgentTransport はUser-Agentを補うRoundTripperです。
type userAgentTransport struct {
	base http.RoundTripper
	ua   string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	// RoundTripperは受け取ったリクエストを変更してはいけない
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", t.ua)
	return t.base.RoundTrip(r)
}
