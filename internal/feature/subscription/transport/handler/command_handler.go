// Package handler はsubscriptionフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"spawnwatch/internal/api"
	"spawnwatch/internal/feature/subscription/transport/command"
)

// CommandParser はテキストをコマンドに解析します。
type CommandParser interface {
	Parse(content string) (command.Command, bool)
}

// CommandResponder はコマンドを実行して返信テキストを返します。
type CommandResponder interface {
	Respond(ctx context.Context, authorID string, cmd command.Command) ([]string, error)
}

// Replier はコマンド元のメッセージへ返信を送ります。
type Replier interface {
	SendText(ctx context.Context, channelID, replyTo, content string) (string, error)
}

// CommandHandler はゲートウェイから届いたテキストコマンドを処理します。
type CommandHandler struct {
	parser    CommandParser
	responder CommandResponder
	replier   Replier
}

// NewCommandHandler はCommandHandlerの新しいインスタンスを生成します。
func NewCommandHandler(p CommandParser, r CommandResponder, replier Replier) *CommandHandler {
	return &CommandHandler{parser: p, responder: r, replier: replier}
}

// CommandEvent はテキストコマンドを実行し、返信を送信します。
//
// エンドポイント: POST /v1/events/command
// - コマンドでないメッセージは404を返却
// - 永続化失敗時は失敗を伝える返信を送ったうえで500を返却
func (h *CommandHandler) CommandEvent(c *gin.Context) {
	var req api.CommandEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("command event validation failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	cmd, ok := h.parser.Parse(req.Content)
	if !ok {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "not a command"})
		return
	}

	ctx := c.Request.Context()
	replies, cmdErr := h.responder.Respond(ctx, req.AuthorID, cmd)
	for _, text := range replies {
		if _, err := h.replier.SendText(ctx, req.ChannelID, req.MessageID, text); err != nil {
			slog.Error("failed to send command reply", "error", err, "channel_id", req.ChannelID)
		}
	}
	if cmdErr != nil {
		slog.Error("command failed", "error", cmdErr, "author_id", req.AuthorID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "command failed"})
		return
	}

	if replies == nil {
		replies = []string{}
	}
	c.JSON(http.StatusOK, api.CommandEventResponse{Replies: replies})
}
