// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"analyst_backend/internal/api"
)

const checkTimeout = 2 * time.Second

// Check は依存サービス（DB、Redisなど）の疎通確認です。
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Health は /healthz エンドポイントを処理するハンドラーを返します。
// 依存サービスのいずれかが応答しない場合は503を返します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		switch c.Request.Method {
		case http.MethodOptions:
			c.Status(http.StatusNoContent)
			return
		}

		resp := api.HealthResponse{Status: "ok"}
		code := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			defer cancel()
			for _, chk := range checks {
				if err := chk.Ping(ctx); err != nil {
					resp.Checks[chk.Name] = err.Error()
					resp.Status = "degraded"
					code = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[chk.Name] = "ok"
			}
		}

		if c.Request.Method == http.MethodHead {
			c.Status(code)
			return
		}
		c.JSON(code, resp)
	}
}
