// Package usecase はマッチ成功時の返信・通知の判断を実装します。
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	idententity "spawnwatch/internal/feature/identification/domain/entity"
	"spawnwatch/internal/feature/notification/domain"
)

const (
	// DefaultDeleteAfter は返信を自動削除するまでのデフォルト時間です。
	DefaultDeleteAfter = 4 * time.Second
	// LabelFilename は画像返信の添付ファイル名です。
	LabelFilename = "label.png"

	deleteTimeout = 10 * time.Second
)

// Messenger はチャットプラットフォームへの送信を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Messenger interface {
	// SendText はテキストを送信し、送信したメッセージのIDを返します。replyToが空なら通常の投稿です。
	SendText(ctx context.Context, channelID, replyTo, content string) (string, error)
	// SendFile はファイルを添付して送信し、送信したメッセージのIDを返します。
	SendFile(ctx context.Context, channelID, replyTo, filename string, data []byte) (string, error)
	// DeleteMessage はメッセージを削除します。
	DeleteMessage(ctx context.Context, channelID, messageID string) error
}

// Renderer はラベル文字列を画像（PNG）に描画します。
type Renderer interface {
	Render(text string) ([]byte, error)
}

// WatcherFinder は名前に関心を持つウォッチャーを検索します。
type WatcherFinder interface {
	WatchersInterestedIn(ctx context.Context, name string) ([]string, error)
}

// Config はDispatcherの返信ポリシーです。
type Config struct {
	TextOnlyContexts []string      // 画像ではなくテキストで返信するコンテキスト（サーバー）ID
	DeleteAfter      time.Duration // 0以下なら自動削除しない
}

// Dispatcher はマッチ結果に応じて返信と通知を送信します。
type Dispatcher struct {
	messenger   Messenger
	renderer    Renderer
	watchers    WatcherFinder
	textOnly    map[string]struct{}
	deleteAfter time.Duration

	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewDispatcher はDispatcherの新しいインスタンスを生成します。
func NewDispatcher(m Messenger, r Renderer, w WatcherFinder, cfg Config) *Dispatcher {
	textOnly := make(map[string]struct{}, len(cfg.TextOnlyContexts))
	for _, id := range cfg.TextOnlyContexts {
		if id = strings.TrimSpace(id); id != "" {
			textOnly[id] = struct{}{}
		}
	}
	return &Dispatcher{
		messenger:   m,
		renderer:    r,
		watchers:    w,
		textOnly:    textOnly,
		deleteAfter: cfg.DeleteAfter,
		afterFunc:   time.AfterFunc,
	}
}

// Notify はマッチ結果に対する返信を送り、関心のあるウォッチャーがいれば通知メッセージを送ります。
// マッチしていない結果には何もしません。
func (d *Dispatcher) Notify(ctx context.Context, ev idententity.ImageEvent, result idententity.MatchResult) (idententity.Outcome, error) {
	var out idententity.Outcome
	if !result.Found {
		slog.Debug("no match, nothing to dispatch", "event_id", ev.EventID)
		return out, nil
	}
	log := slog.With("event_id", ev.EventID, "channel_id", ev.ChannelID, "name", result.Name)

	watchers, err := d.watchers.WatchersInterestedIn(ctx, result.Name)
	if err != nil {
		// 通知先が引けなくてもラベルの返信は行う
		log.Warn("failed to look up interested watchers", "error", err)
		watchers = nil
	}

	replyID, err := d.sendLabel(ctx, ev, result.Name)
	if err != nil {
		return out, fmt.Errorf("%w: reply: %v", domain.ErrDelivery, err)
	}
	out.Replied = true
	out.ReplyMessageID = replyID
	out.CancelDelete = d.scheduleDelete(ev.ChannelID, replyID)

	if len(watchers) > 0 {
		if _, err := d.messenger.SendText(ctx, ev.ChannelID, "", FormatPings(watchers)); err != nil {
			return out, fmt.Errorf("%w: pings: %v", domain.ErrDelivery, err)
		}
		out.Pinged = watchers
		log.Info("watchers pinged", "count", len(watchers))
	}
	return out, nil
}

// sendLabel はコンテキストに応じてテキストまたは画像で返信します。
// 画像の描画に失敗した場合はテキスト返信にフォールバックします。
func (d *Dispatcher) sendLabel(ctx context.Context, ev idententity.ImageEvent, name string) (string, error) {
	if _, ok := d.textOnly[ev.ContextID]; ok || d.renderer == nil {
		return d.messenger.SendText(ctx, ev.ChannelID, ev.MessageID, name)
	}
	png, err := d.renderer.Render(name)
	if err != nil {
		slog.Warn("failed to render label, falling back to text", "event_id", ev.EventID, "error", err)
		return d.messenger.SendText(ctx, ev.ChannelID, ev.MessageID, name)
	}
	return d.messenger.SendFile(ctx, ev.ChannelID, ev.MessageID, LabelFilename, png)
}

// scheduleDelete は返信の自動削除を予約し、取り消し関数を返します。
// 削除の失敗はログに記録するだけで、再試行しません。
func (d *Dispatcher) scheduleDelete(channelID, messageID string) func() {
	if d.deleteAfter <= 0 || messageID == "" {
		return nil
	}
	timer := d.afterFunc(d.deleteAfter, func() {
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		if err := d.messenger.DeleteMessage(ctx, channelID, messageID); err != nil {
			slog.Warn("failed to delete reply", "channel_id", channelID, "message_id", messageID, "error", err)
		}
	})
	return func() { timer.Stop() }
}

// FormatPings は通知メッセージの本文を組み立てます。
func FormatPings(watcherIDs []string) string {
	mentions := make([]string, 0, len(watcherIDs))
	for _, id := range watcherIDs {
		mentions = append(mentions, "<@"+id+">")
	}
	return "Pings: " + strings.Join(mentions, " ")
}
