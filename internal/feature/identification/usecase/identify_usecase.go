package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"spawnwatch/internal/feature/identification/domain"
	"spawnwatch/internal/feature/identification/domain/entity"
)

// DefaultTitlePrefix は識別対象とする埋め込みタイトルのデフォルト接頭辞です。
const DefaultTitlePrefix = "A wild"

// Notifier はマッチ成功時の返信・通知を行うインターフェースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type Notifier interface {
	Notify(ctx context.Context, event entity.ImageEvent, result entity.MatchResult) (entity.Outcome, error)
}

// EventFilter は識別対象のイベントを判定する条件です。
type EventFilter struct {
	SourceAuthorID string // 指定された送信者（スポーンを投稿するボット）のID
	TitlePrefix    string // 埋め込みタイトルの接頭辞
}

// Accepts はイベントが識別対象かどうかを返します。
func (f EventFilter) Accepts(ev entity.ImageEvent) bool {
	if f.SourceAuthorID != "" && ev.AuthorID != f.SourceAuthorID {
		return false
	}
	prefix := f.TitlePrefix
	if prefix == "" {
		prefix = DefaultTitlePrefix
	}
	if !strings.HasPrefix(ev.EmbedTitle, prefix) {
		return false
	}
	return strings.TrimSpace(ev.ImageURL) != ""
}

// IdentifyUsecase は画像イベントの正規化・照合・通知を統括します。
type IdentifyUsecase struct {
	normalizer Normalizer
	catalog    *Catalog
	matcher    Matcher
	notifier   Notifier
	filter     EventFilter
}

// NewIdentifyUsecase はIdentifyUsecaseの新しいインスタンスを生成します。
func NewIdentifyUsecase(n Normalizer, c *Catalog, m Matcher, notifier Notifier, filter EventFilter) *IdentifyUsecase {
	return &IdentifyUsecase{normalizer: n, catalog: c, matcher: m, notifier: notifier, filter: filter}
}

// HandleImageEvent は画像イベントを1件処理します。
// 対象外のイベントはdomain.ErrEventIgnoredを返します。正規化の失敗はこのイベントだけを中断します。
// マッチしなかった場合は返信せず、Found=falseの結果を返します。
func (u *IdentifyUsecase) HandleImageEvent(ctx context.Context, ev entity.ImageEvent) (entity.MatchResult, entity.Outcome, error) {
	log := slog.With("event_id", ev.EventID, "channel_id", ev.ChannelID)

	if !u.filter.Accepts(ev) {
		log.Debug("image event ignored", "author_id", ev.AuthorID, "title", ev.EmbedTitle)
		return entity.NoMatch(), entity.Outcome{}, domain.ErrEventIgnored
	}

	buf, err := u.normalizer.Normalize(ctx, ev.ImageURL)
	if err != nil {
		log.Warn("failed to normalize event image", "url", ev.ImageURL, "error", err)
		return entity.NoMatch(), entity.Outcome{}, fmt.Errorf("normalize %q: %w", ev.ImageURL, err)
	}

	result := u.matcher.Match(buf)
	if !result.Found {
		log.Info("no comparable catalog entry", "url", ev.ImageURL)
		return result, entity.Outcome{}, nil
	}
	log.Info("image identified", "name", result.Name, "distance", result.Distance)

	out, err := u.notifier.Notify(ctx, ev, result)
	if err != nil {
		log.Error("failed to notify", "name", result.Name, "error", err)
		return result, out, err
	}
	return result, out, nil
}

// Identify はアップロードされた画像バイト列を照合します。通知は行いません。
func (u *IdentifyUsecase) Identify(ctx context.Context, data []byte) (entity.MatchResult, error) {
	if err := ctx.Err(); err != nil {
		return entity.NoMatch(), err
	}
	buf, err := u.normalizer.NormalizeBytes(data)
	if err != nil {
		return entity.NoMatch(), err
	}
	return u.matcher.Match(buf), nil
}

// Summary はカタログの読み込み状況を返します。
func (u *IdentifyUsecase) Summary() entity.CatalogSummary {
	return entity.CatalogSummary{
		Total:  u.catalog.Len(),
		Loaded: u.catalog.Loaded(),
		Names:  u.catalog.Names(),
	}
}
