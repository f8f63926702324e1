// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Check は依存コンポーネントの疎通確認です。
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// HealthHandler は /healthz を処理します。
type HealthHandler struct {
	checks []Check
}

// NewHealthHandler はHealthHandlerを生成します。checks が空なら常に ok を返します。
func NewHealthHandler(checks ...Check) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
// 依存コンポーネントのいずれかが失敗した場合は503を返します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	components, healthy := h.run(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}

	body := gin.H{"status": "ok"}
	if !healthy {
		body["status"] = "degraded"
	}
	if len(components) > 0 {
		body["components"] = components
	}
	c.JSON(status, body)
}

func (h *HealthHandler) run(ctx context.Context) (map[string]string, bool) {
	if len(h.checks) == 0 {
		return nil, true
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	healthy := true
	components := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Fn(ctx); err != nil {
			slog.Warn("health check failed", "component", chk.Name, "error", err)
			components[chk.Name] = "unavailable"
			healthy = false
			continue
		}
		components[chk.Name] = "ok"
	}
	return components, healthy
}
