// Package http はモデルAPI呼び出し用のHTTPクライアントを提供します。
package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は生成AIモデルAPI呼び出し用に設定されたHTTPクライアントを作成します。
//
// パイプラインは1件の分析で最大7回、並行してモデルを呼び出すため、
// ホストあたりのアイドル接続を多めに保持して接続を再利用します。
// timeoutはリクエスト全体（レスポンス生成待ちを含む）の上限です。
// 0の場合はタイムアウトせず、呼び出し元のcontextに委ねます。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}
