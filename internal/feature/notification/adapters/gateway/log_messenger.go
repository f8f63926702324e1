package gateway

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"spawnwatch/internal/feature/notification/usecase"
)

// LogMessenger はゲートウェイが設定されていない場合に使う Messenger です。
// 送信内容をログに出力し、ランダムなメッセージIDを返します。
type LogMessenger struct{}

var _ usecase.Messenger = LogMessenger{}

func (LogMessenger) SendText(_ context.Context, channelID, replyTo, content string) (string, error) {
	id := uuid.NewString()
	slog.Info("send text (log only)", "channel_id", channelID, "reply_to", replyTo, "message_id", id, "content", content)
	return id, nil
}

func (LogMessenger) SendFile(_ context.Context, channelID, replyTo, filename string, data []byte) (string, error) {
	id := uuid.NewString()
	slog.Info("send file (log only)", "channel_id", channelID, "reply_to", replyTo, "message_id", id, "filename", filename, "bytes", len(data))
	return id, nil
}

func (LogMessenger) DeleteMessage(_ context.Context, channelID, messageID string) error {
	slog.Info("delete message (log only)", "channel_id", channelID, "message_id", messageID)
	return nil
}
