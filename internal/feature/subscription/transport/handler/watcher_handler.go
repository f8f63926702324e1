package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"spawnwatch/internal/api"
	"spawnwatch/internal/feature/subscription/domain"
	"spawnwatch/internal/feature/subscription/domain/entity"
)

// SubscriptionUsecase は関心リストのユースケースインターフェースです。
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type SubscriptionUsecase interface {
	AddInterest(ctx context.Context, watcherID string, names []string) (entity.AddResult, error)
	ListInterest(ctx context.Context, watcherID string) ([]string, error)
}

// WatcherHandler はウォッチャーの関心リストを操作するHTTPリクエストを処理します。
type WatcherHandler struct {
	uc SubscriptionUsecase
}

// NewWatcherHandler は新しい WatcherHandler を作成します。
func NewWatcherHandler(uc SubscriptionUsecase) *WatcherHandler {
	return &WatcherHandler{uc: uc}
}

// ListInterests はウォッチャーの関心リストを返します。
//
// エンドポイント: GET /v1/watchers/:id/interests
func (h *WatcherHandler) ListInterests(c *gin.Context) {
	id := c.Param("id")
	names, err := h.uc.ListInterest(c.Request.Context(), id)
	if errors.Is(err, domain.ErrWatcherNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "watcher not found"})
		return
	}
	if err != nil {
		slog.Error("failed to list interests", "error", err, "watcher_id", id)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}
	c.JSON(http.StatusOK, api.InterestsResponse{WatcherID: id, Interests: names})
}

// AddInterests はウォッチャーの関心リストに名前を追加します。
//
// エンドポイント: POST /v1/watchers/:id/interests
func (h *WatcherHandler) AddInterests(c *gin.Context) {
	var req api.AddInterestsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	id := c.Param("id")
	res, err := h.uc.AddInterest(c.Request.Context(), id, req.Names)
	switch {
	case errors.Is(err, domain.ErrNoNames), errors.Is(err, domain.ErrInvalidWatcher):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	case err != nil:
		slog.Error("failed to add interests", "error", err, "watcher_id", id)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to save interests"})
		return
	}
	c.JSON(http.StatusOK, api.AddInterestsResponse{Added: res.Added, AlreadyPresent: res.AlreadyPresent})
}
