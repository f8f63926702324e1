// Package handler はidentificationフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"spawnwatch/internal/api"
	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
)

// MaxUploadSize はアップロード画像の最大サイズ（10MB）です。
const MaxUploadSize = 10 * 1024 * 1024

// IdentifyUsecase は画像識別のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type IdentifyUsecase interface {
	HandleImageEvent(ctx context.Context, ev entity.ImageEvent) (entity.MatchResult, entity.Outcome, error)
	Identify(ctx context.Context, data []byte) (entity.MatchResult, error)
	Summary() entity.CatalogSummary
}

// IdentifyHandler は画像イベント・照合・カタログ参照のHTTPリクエストを処理します。
type IdentifyHandler struct {
	uc IdentifyUsecase
}

// NewIdentifyHandler はIdentifyHandlerの新しいインスタンスを生成します。
func NewIdentifyHandler(uc IdentifyUsecase) *IdentifyHandler {
	return &IdentifyHandler{uc: uc}
}

// ImageEvent はゲートウェイから届いた画像イベントを処理します。
//
// エンドポイント: POST /v1/events/image
// - 対象外のイベント、画像の取得・デコード失敗は422を返却
// - 返信・通知の送信失敗は502を返却
func (h *IdentifyHandler) ImageEvent(c *gin.Context) {
	var req api.ImageEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("image event validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	ev := entity.ImageEvent{
		EventID:    uuid.NewString(),
		MessageID:  req.MessageID,
		ChannelID:  req.ChannelID,
		ContextID:  req.ContextID,
		AuthorID:   req.AuthorID,
		EmbedTitle: req.EmbedTitle,
		ImageURL:   req.ImageURL,
	}

	result, out, err := h.uc.HandleImageEvent(c.Request.Context(), ev)
	switch {
	case errors.Is(err, domain.ErrEventIgnored):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "event ignored"})
		return
	case errors.Is(err, domain.ErrFetch), errors.Is(err, domain.ErrDecode), errors.Is(err, domain.ErrRead):
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "image could not be processed"})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "delivery failed"})
		return
	}

	resp := api.ImageEventResponse{
		EventID: ev.EventID,
		Matched: result.Found,
		Replied: out.Replied,
		Pinged:  out.Pinged,
	}
	if resp.Pinged == nil {
		resp.Pinged = []string{}
	}
	if result.Found {
		d := result.Distance
		resp.Name = result.Name
		resp.Distance = &d
	}
	c.JSON(http.StatusOK, resp)
}

// Identify はアップロードされた画像をカタログと照合します（通知なし）。
//
// エンドポイント: POST /v1/identify
// Content-Type: multipart/form-data
// フィールド: image（画像ファイル、最大10MB）
func (h *IdentifyHandler) Identify(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		slog.Warn("image file missing", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "image file is required"})
		return
	}
	if file.Size > MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, api.ErrorResponse{Error: "image too large"})
		return
	}

	f, err := file.Open()
	if err != nil {
		slog.Error("failed to open uploaded image", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read image"})
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded image", "error", err)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("failed to read uploaded image", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read image"})
		return
	}

	result, err := h.uc.Identify(c.Request.Context(), data)
	if err != nil {
		slog.Warn("failed to identify uploaded image", "error", err)
		c.JSON(http.StatusUnprocessableEntity, api.ErrorResponse{Error: "image could not be processed"})
		return
	}

	resp := api.IdentifyResponse{Matched: result.Found}
	if result.Found {
		d := result.Distance
		resp.Name = result.Name
		resp.Distance = &d
	}
	c.JSON(http.StatusOK, resp)
}

// Catalog はカタログの読み込み状況を返します。
//
// エンドポイント: GET /v1/catalog
func (h *IdentifyHandler) Catalog(c *gin.Context) {
	s := h.uc.Summary()
	names := s.Names
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, api.CatalogResponse{Total: s.Total, Loaded: s.Loaded, Names: names})
}
